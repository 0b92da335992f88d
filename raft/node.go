package raft

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
)

// ErrNotReady is returned when the node has not become leader in time
var ErrNotReady = errors.New("journal is not ready")

// Node is a single-node Raft instance used as a local write-ahead journal.
// It never talks to the network.
type Node struct {
	raft        *raft.Raft
	fsm         *FSM
	transport   *raft.InmemTransport
	logStore    *raftboltdb.BoltStore
	stableStore *raftboltdb.BoltStore
	timeout     time.Duration
}

// Config represents the configuration for a journal node
type Config struct {
	NodeID            string
	RaftDir           string
	ApplyTimeout      time.Duration
	SnapshotThreshold uint64
	Logger            hclog.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.NodeID == "" {
		out.NodeID = "spoolkeeper"
	}
	if out.ApplyTimeout == 0 {
		out.ApplyTimeout = 5 * time.Second
	}
	if out.SnapshotThreshold == 0 {
		out.SnapshotThreshold = 64
	}
	if out.Logger == nil {
		out.Logger = hclog.NewNullLogger()
	}
	return out
}

// NewNode creates a journal node and bootstraps it on first use
func NewNode(config *Config) (*Node, error) {
	cfg := config.withDefaults()

	// Create the FSM
	fsm := NewFSM()

	// Only one voter ever exists, so elections can be quick
	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)
	raftConfig.HeartbeatTimeout = 50 * time.Millisecond
	raftConfig.ElectionTimeout = 50 * time.Millisecond
	raftConfig.LeaderLeaseTimeout = 50 * time.Millisecond
	raftConfig.CommitTimeout = 5 * time.Millisecond
	raftConfig.SnapshotInterval = 30 * time.Second
	raftConfig.SnapshotThreshold = cfg.SnapshotThreshold
	raftConfig.TrailingLogs = cfg.SnapshotThreshold
	raftConfig.Logger = cfg.Logger

	// Create the BoltDB store for logs
	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.RaftDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create BoltDB log store: %w", err)
	}

	// Create the stable store for data
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.RaftDir, "raft-stable.db"))
	if err != nil {
		logStore.Close()
		return nil, fmt.Errorf("failed to create BoltDB stable store: %w", err)
	}

	// Create the snapshot store
	snapshotStore, err := raft.NewFileSnapshotStoreWithLogger(cfg.RaftDir, 3, cfg.Logger)
	if err != nil {
		logStore.Close()
		stableStore.Close()
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	addr, transport := raft.NewInmemTransport(raft.ServerAddress(cfg.NodeID))

	hasState, err := raft.HasExistingState(logStore, stableStore, snapshotStore)
	if err != nil {
		logStore.Close()
		stableStore.Close()
		return nil, fmt.Errorf("failed to inspect existing state: %w", err)
	}

	// Create the Raft instance
	r, err := raft.NewRaft(raftConfig, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		logStore.Close()
		stableStore.Close()
		return nil, fmt.Errorf("failed to create Raft instance: %w", err)
	}

	// Bootstrap on first start
	if !hasState {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{
					ID:      raft.ServerID(cfg.NodeID),
					Address: addr,
				},
			},
		}

		f := r.BootstrapCluster(configuration)
		if err := f.Error(); err != nil && err != raft.ErrCantBootstrap {
			r.Shutdown()
			logStore.Close()
			stableStore.Close()
			return nil, fmt.Errorf("failed to bootstrap journal: %w", err)
		}
	}

	return &Node{
		raft:        r,
		fsm:         fsm,
		transport:   transport,
		logStore:    logStore,
		stableStore: stableStore,
		timeout:     cfg.ApplyTimeout,
	}, nil
}

// WaitForLeader blocks until the node leads or the timeout expires
func (n *Node) WaitForLeader(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !n.Leader() {
		if time.Now().After(deadline) {
			return ErrNotReady
		}
		<-ticker.C
	}
	return nil
}

// Apply applies a command to the Raft log
func (n *Node) Apply(cmd *models.Command) error {
	data, err := cmd.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	// Apply the command to the Raft log
	future := n.raft.Apply(data, n.timeout)
	if err := future.Error(); err != nil {
		return fmt.Errorf("failed to apply command to Raft log: %w", err)
	}

	// Check for application error
	if appErr, ok := future.Response().(error); ok && appErr != nil {
		return fmt.Errorf("command application failed: %w", appErr)
	}

	return nil
}

// Barrier waits until every committed entry has reached the FSM
func (n *Node) Barrier() error {
	if err := n.raft.Barrier(n.timeout).Error(); err != nil {
		return fmt.Errorf("failed to wait for journal replay: %w", err)
	}
	return nil
}

// Snapshot forces a snapshot, compacting the log
func (n *Node) Snapshot() error {
	if err := n.raft.Snapshot().Error(); err != nil {
		return fmt.Errorf("failed to snapshot journal: %w", err)
	}
	return nil
}

// GetFSM returns the FSM
func (n *Node) GetFSM() *FSM {
	return n.fsm
}

// Leader returns true if this node is the leader
func (n *Node) Leader() bool {
	return n.raft.State() == raft.Leader
}

// State returns the current state of the Raft node
func (n *Node) State() raft.RaftState {
	return n.raft.State()
}

// Stats returns raft's internal counters
func (n *Node) Stats() map[string]string {
	return n.raft.Stats()
}

// Shutdown stops the Raft node and closes its stores
func (n *Node) Shutdown() error {
	var errs []error

	if n.raft != nil {
		if err := n.raft.Shutdown().Error(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.transport != nil {
		if err := n.transport.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.logStore != nil {
		if err := n.logStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.stableStore != nil {
		if err := n.stableStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
