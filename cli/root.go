// Package cli implements the spoolkeeper command-line interface.
// Destructive actions (delete, import) ask for confirmation unless --yes
// is given.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devadigapratham/spoolkeeper/config"
	"github.com/devadigapratham/spoolkeeper/inventory"
	"github.com/devadigapratham/spoolkeeper/logging"
	"github.com/devadigapratham/spoolkeeper/raft"
	"github.com/devadigapratham/spoolkeeper/storage"
)

// Env carries the process streams so commands can be driven from tests
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Execute runs the root command against the process streams
func Execute() error {
	return NewRootCmd(Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}).Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd(env Env) *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "spoolkeeper",
		Short: "Local inventory for 3D printing filament spools",
		Long: `spoolkeeper tracks the filament spools you own: brand, material, color and
how much is left on each roll. Everything is stored locally in a data
directory; nothing leaves your machine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(env.In)
	rootCmd.SetOut(env.Out)
	rootCmd.SetErr(env.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default <data-dir>/config.yaml)")
	flags.String("data-dir", config.DefaultDataDir(), "Directory holding the inventory")
	flags.String("backend", config.BackendFile, "Storage backend: file, bolt, raft or memory")
	flags.String("log-level", "info", "Log level")
	flags.String("log-format", "text", "Log format: text or json")
	v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	v.BindPFlag("backend", flags.Lookup("backend"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_format", flags.Lookup("log-format"))

	open := func() (*app, error) {
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return nil, err
		}
		return openApp(cfg, env.Err)
	}

	rootCmd.AddCommand(
		newServeCmd(v, open),
		newAddCmd(open),
		newListCmd(open),
		newShowCmd(open),
		newUpdateCmd(open),
		newDeleteCmd(open),
		newStatsCmd(open),
		newFacetsCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newThemeCmd(open),
		newJournalCmd(open),
	)
	return rootCmd
}

// app is an opened inventory with everything commands need
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   *inventory.Store
	themes  *storage.Themes
	ready   func() bool
	journal *raft.Journal
	closers []io.Closer
}

type opener func() (*app, error)

func openApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, ready: func() bool { return true }}
	records, settings, err := a.openBackend()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store = inventory.New(records, logger)
	a.themes = &storage.Themes{KV: settings}
	return a, nil
}

// openBackend returns the persister for the collection and the key-value
// store for settings
func (a *app) openBackend() (inventory.Persister, storage.KV, error) {
	cfg := a.cfg

	switch cfg.Backend {
	case config.BackendMemory:
		kv := storage.NewMemoryStore()
		return storage.NewRecords(kv, cfg.StorageKey), kv, nil

	case config.BackendFile:
		kv, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "store"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, kv)
		return storage.NewRecords(kv, cfg.StorageKey), kv, nil

	case config.BackendBolt:
		kv, err := storage.NewBoltStore(filepath.Join(cfg.DataDir, "spoolkeeper.db"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, kv)
		return storage.NewRecords(kv, cfg.StorageKey), kv, nil

	case config.BackendRaft:
		settings, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "store"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, settings)

		journal, err := raft.OpenJournal(&raft.Config{
			RaftDir: filepath.Join(cfg.DataDir, "journal"),
			Logger:  logging.HCLog(a.logger, "journal"),
		}, cfg.JournalStartTimeout, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, journal)
		a.journal = journal
		a.ready = journal.Ready
		return journal, settings, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Close releases the backend
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WithError(err).Warn("Error closing storage")
		}
	}
	a.closers = nil
}

// withApp opens the inventory, runs fn and closes it again
func withApp(open opener, fn func(a *app) error) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
