package raft

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/hashicorp/raft"
	"github.com/sirupsen/logrus"
)

// Journal persists the filament collection through a single-node Raft log.
// Each mutation of the store is one log entry carrying its command;
// snapshots compact the log.
type Journal struct {
	node   *Node
	logger *logrus.Logger
}

// OpenJournal starts a journal node in config.RaftDir and waits until it
// can accept writes
func OpenJournal(config *Config, startTimeout time.Duration, logger *logrus.Logger) (*Journal, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if err := os.MkdirAll(config.RaftDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	node, err := NewNode(config)
	if err != nil {
		return nil, err
	}

	if err := node.WaitForLeader(startTimeout); err != nil {
		node.Shutdown()
		return nil, fmt.Errorf("failed to start journal: %w", err)
	}

	logger.WithField("dir", config.RaftDir).Debug("Journal ready")
	return &Journal{node: node, logger: logger}, nil
}

// Load replays the journal and returns the collection it describes
func (j *Journal) Load() ([]models.Filament, error) {
	if err := j.node.Barrier(); err != nil {
		return nil, err
	}
	return j.node.GetFSM().GetFilaments(), nil
}

// Save appends the whole collection to the journal
func (j *Journal) Save(records []models.Filament) error {
	return j.SaveCommand(&models.Command{
		Type:      models.ReplaceFilaments,
		Filaments: records,
	})
}

// SaveCommand appends a single mutation to the journal
func (j *Journal) SaveCommand(cmd *models.Command) error {
	if !j.node.Leader() {
		return ErrNotReady
	}
	return j.node.Apply(cmd)
}

// Ready reports whether the journal accepts writes
func (j *Journal) Ready() bool {
	return j.node.Leader()
}

// Compact forces a snapshot of the current collection. Compacting twice
// in a row is not an error.
func (j *Journal) Compact() error {
	if err := j.node.Snapshot(); err != nil && !errors.Is(err, raft.ErrNothingNewToSnapshot) {
		return err
	}
	return nil
}

// Node returns the underlying Raft node
func (j *Journal) Node() *Node {
	return j.node
}

// Close shuts the journal down
func (j *Journal) Close() error {
	if err := j.node.Shutdown(); err != nil {
		j.logger.WithError(err).Warn("Error shutting down journal")
		return err
	}
	return nil
}
