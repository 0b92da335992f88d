// Package storage provides the durable local key-value storage the
// inventory and the settings live in.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devadigapratham/spoolkeeper/api/models"
)

// InventoryKey is the fixed key the filament collection is stored under
const InventoryKey = "filament-inventory-v1"

// ThemeKey is the key of the display theme preference
const ThemeKey = "theme"

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("key not found")

// KV is a durable key-value store
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Records persists the filament collection as a JSON array under one key
type Records struct {
	KV  KV
	Key string
}

// NewRecords returns a persister for the collection stored under key, or
// under InventoryKey when key is empty
func NewRecords(kv KV, key string) *Records {
	if key == "" {
		key = InventoryKey
	}
	return &Records{KV: kv, Key: key}
}

// Load reads the collection. A missing key yields an empty collection.
func (r *Records) Load() ([]models.Filament, error) {
	data, err := r.KV.Get(r.Key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.Key, err)
	}

	records, err := models.UnmarshalFilaments(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.Key, err)
	}
	return records, nil
}

// Save writes the whole collection
func (r *Records) Save(records []models.Filament) error {
	if records == nil {
		records = []models.Filament{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.Key, err)
	}
	return r.KV.Set(r.Key, data)
}

// Themes stores the display theme preference
type Themes struct {
	KV KV
}

// Get returns the stored theme, dark when absent or invalid
func (t *Themes) Get() models.Theme {
	data, err := t.KV.Get(ThemeKey)
	if err != nil {
		return models.ThemeDark
	}
	return models.ParseTheme(string(data))
}

// Set stores theme
func (t *Themes) Set(theme models.Theme) error {
	return t.KV.Set(ThemeKey, []byte(models.ParseTheme(string(theme))))
}

// Toggle flips the stored theme and returns the new value
func (t *Themes) Toggle() (models.Theme, error) {
	next := t.Get().Toggle()
	if err := t.Set(next); err != nil {
		return t.Get(), err
	}
	return next, nil
}
