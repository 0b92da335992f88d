// Package inventory owns the canonical, ordered filament collection. Every
// mutation is expressed as a models.Command, applied in memory and then
// persisted, either in full or as the command itself.
package inventory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devadigapratham/spoolkeeper/api/models"
)

// Persister loads and saves the whole collection
type Persister interface {
	Load() ([]models.Filament, error)
	Save(records []models.Filament) error
}

// CommandSaver is implemented by persisters that record each mutation
// instead of rewriting the whole collection
type CommandSaver interface {
	SaveCommand(cmd *models.Command) error
}

// Event describes a committed mutation
type Event struct {
	Type       models.CommandType
	FilamentID string
	Count      int
}

// Store is the filament record store
type Store struct {
	mu       sync.RWMutex
	records  []models.Filament
	persist  Persister
	logger   *logrus.Logger
	now      func() time.Time
	newID    func() string
	nextSub  int
	watchers map[int]func(Event)
}

// Option customises a Store
type Option func(*Store)

// WithClock sets the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the id source used on add
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a store and rehydrates it from p. A load failure leaves the
// store empty.
func New(p Persister, logger *logrus.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Store{
		persist:  p,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		watchers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, err := p.Load()
	if err != nil {
		logger.WithError(err).Warn("Failed to load inventory, starting empty")
		records = nil
	}
	s.records = cloneAll(records)
	logger.WithField("records", len(s.records)).Debug("Inventory loaded")
	return s
}

// Add creates a new record from f with a fresh id and creation time and
// places it first in the collection
func (s *Store) Add(f models.Filament) (models.Filament, error) {
	f = f.Clone()
	f.ID = s.newID()
	f.CreatedAt = models.NewTimestamp(s.now().UTC())

	cmd := &models.Command{
		Type:     models.AddFilament,
		Filament: &f,
	}
	if _, _, err := s.commit(cmd); err != nil {
		return f, err
	}
	return f.Clone(), nil
}

// Update merges patch into the record with the given id. It reports false
// and does nothing when no such record exists.
func (s *Store) Update(id string, patch models.FilamentPatch) (models.Filament, bool, error) {
	cmd := &models.Command{
		Type:       models.UpdateFilament,
		FilamentID: id,
		Patch:      &patch,
	}
	snapshot, changed, err := s.commit(cmd)
	if !changed {
		return models.Filament{}, false, err
	}

	for _, f := range snapshot {
		if f.ID == id {
			return f.Clone(), true, err
		}
	}
	return models.Filament{}, true, err
}

// Delete removes the record with the given id. It reports false when no
// such record exists.
func (s *Store) Delete(id string) (bool, error) {
	_, changed, err := s.commit(&models.Command{
		Type:       models.DeleteFilament,
		FilamentID: id,
	})
	return changed, err
}

// Replace swaps the entire collection for records
func (s *Store) Replace(records []models.Filament) error {
	_, _, err := s.commit(&models.Command{
		Type:      models.ReplaceFilaments,
		Filaments: records,
	})
	return err
}

// All returns a copy of the collection, newest first
func (s *Store) All() []models.Filament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Get returns the record with the given id
func (s *Store) Get(id string) (models.Filament, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.records {
		if f.ID == id {
			return f.Clone(), true
		}
	}
	return models.Filament{}, false
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats computes the aggregates over the current collection
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.records)
}

// ComputeStats sums the remaining weight and counts the rolls in records
func ComputeStats(records []models.Filament) models.Stats {
	var total float64
	for _, f := range records {
		total += float64(f.WeightRemaining)
	}
	return models.Stats{
		TotalWeight: total,
		TotalRolls:  len(records),
	}
}

// Subscribe registers fn to be called after every committed mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// commit applies cmd and persists the change. It returns the collection as
// it was right after cmd was applied. The in-memory mutation is kept even
// if saving fails.
func (s *Store) commit(cmd *models.Command) ([]models.Filament, bool, error) {
	s.mu.Lock()
	records, changed, err := cmd.Apply(s.records)
	if err != nil {
		s.mu.Unlock()
		return nil, false, err
	}
	if !changed {
		s.mu.Unlock()
		s.logger.WithFields(logrus.Fields{
			"command": cmd.Type,
			"id":      cmd.FilamentID,
		}).Debug("No matching filament, nothing to do")
		return nil, false, nil
	}
	s.records = records

	snapshot := cloneAll(s.records)
	var saveErr error
	if cs, ok := s.persist.(CommandSaver); ok {
		saveErr = cs.SaveCommand(cmd)
	} else {
		saveErr = s.persist.Save(snapshot)
	}
	watchers := make([]func(Event), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	if saveErr != nil {
		s.logger.WithError(saveErr).WithField("command", cmd.Type).Error("Failed to persist inventory")
		saveErr = fmt.Errorf("failed to persist inventory: %w", saveErr)
	}

	ev := Event{Type: cmd.Type, FilamentID: cmd.FilamentID, Count: len(snapshot)}
	if cmd.Filament != nil {
		ev.FilamentID = cmd.Filament.ID
	}
	for _, fn := range watchers {
		fn(ev)
	}
	return snapshot, true, saveErr
}

func cloneAll(records []models.Filament) []models.Filament {
	out := make([]models.Filament, len(records))
	for i, f := range records {
		out[i] = f.Clone()
	}
	return out
}
