// Package transfer moves the whole collection in and out of the JSON
// interchange format used for backups.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/devadigapratham/spoolkeeper/api/models"
)

// ErrImportDeclined is returned when the user does not confirm an import
var ErrImportDeclined = errors.New("import declined")

// FormatError reports a document that is not a JSON array of records
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data format: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid data format: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Replacer swaps the whole collection
type Replacer interface {
	Replace(records []models.Filament) error
}

// ConfirmFunc is asked before an import replaces the collection
type ConfirmFunc func(count int) bool

// Filename returns the export file name for the given day
func Filename(t time.Time) string {
	return fmt.Sprintf("filament-inventory-%s.json", t.Format("2006-01-02"))
}

// ConfirmMessage is the question shown before an import is committed
func ConfirmMessage(count int) string {
	return fmt.Sprintf("This will import %d filament(s). Current data will be replaced. Continue?", count)
}

// Export writes records as a pretty-printed JSON array
func Export(w io.Writer, records []models.Filament) error {
	if records == nil {
		records = []models.Filament{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Parse reads an exported document. Only the top-level shape is checked;
// elements are decoded leniently.
func Parse(r io.Reader) ([]models.Filament, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, &FormatError{Reason: "not valid JSON"}
	}
	if len(data) == 0 || data[0] != '[' {
		return nil, &FormatError{Reason: "top level is not an array"}
	}

	records, err := models.UnmarshalFilaments(data)
	if err != nil {
		return nil, &FormatError{Reason: "array elements are not records", Err: err}
	}
	return records, nil
}

// Import parses the document, asks confirm with the incoming record count
// and, when confirmed, replaces the collection. Nothing is changed when
// parsing fails or confirmation is declined.
func Import(dst Replacer, r io.Reader, confirm ConfirmFunc) (int, error) {
	records, err := Parse(r)
	if err != nil {
		return 0, err
	}

	if confirm == nil || !confirm(len(records)) {
		return len(records), ErrImportDeclined
	}

	if err := dst.Replace(records); err != nil {
		return len(records), fmt.Errorf("failed to replace inventory: %w", err)
	}
	return len(records), nil
}
