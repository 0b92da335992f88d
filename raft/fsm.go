package raft

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/hashicorp/raft"
)

// FSM implements the raft.FSM interface over the filament collection
type FSM struct {
	mu sync.RWMutex

	filaments []models.Filament
}

// NewFSM creates an empty state machine
func NewFSM() *FSM {
	return &FSM{}
}

// Apply applies a Raft log entry to the FSM
func (f *FSM) Apply(log *raft.Log) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Unmarshal the command
	cmd, err := models.UnmarshalCommand(log.Data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal command: %v", err)
	}

	// Same transition the in-memory store applied before logging cmd
	filaments, _, err := cmd.Apply(f.filaments)
	if err != nil {
		return err
	}
	f.filaments = filaments
	return nil
}

// Snapshot returns a snapshot of the FSM state
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return &fsmSnapshot{Filaments: cloneAll(f.filaments)}, nil
}

// Restore restores the FSM from a snapshot
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snapshot fsmSnapshot
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.filaments = snapshot.Filaments
	return nil
}

// GetFilaments returns a copy of the collection
func (f *FSM) GetFilaments() []models.Filament {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return cloneAll(f.filaments)
}

func cloneAll(records []models.Filament) []models.Filament {
	out := make([]models.Filament, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// fsmSnapshot implements the raft.FSMSnapshot interface
type fsmSnapshot struct {
	Filaments []models.Filament `json:"filaments"`
}

// Persist saves the snapshot to the provided sink
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		// Encode the snapshot
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()

	if err != nil {
		sink.Cancel()
		return err
	}

	return nil
}

// Release is a no-op
func (s *fsmSnapshot) Release() {}
