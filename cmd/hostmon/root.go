package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/config"
	"github.com/rusenback/hostmon/internal/logging"
	"github.com/rusenback/hostmon/internal/pipeline"
	"github.com/rusenback/hostmon/internal/storage"
)

const (
	dataDirName = ".hostmon"
	dbFileName  = "metrics.db"
	logFileName = "hostmon.log"
)

// rootOptions are the persistent flags
type rootOptions struct {
	dataDir    string
	configPath string
	logLevel   string
	logFile    string
}

// env is what every command needs after startup
type env struct {
	dataDir    string
	configPath string
	fs         afero.Fs
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hostmon",
		Short: "Terminal system monitor with a persistent metrics history",
		Long: `hostmon samples CPU, memory, network and process counts on a timer,
shows them as live charts and keeps every sample in a local SQLite database.

Run without a subcommand to open the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory for config, database and log (default ~/"+dataDirName+")")
	pf.StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/"+config.FileName+")")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFile, "log-file", "", "log file (the interactive view defaults to <data-dir>/"+logFileName+")")

	cmd.AddCommand(
		newRecordCmd(opts),
		newHistoryCmd(opts),
		newPsCmd(opts),
		newInspectCmd(opts),
		newKillCmd(opts),
	)

	return cmd
}

// setup resolves the data directory, starts logging and loads the config.
// The interactive view owns the terminal, so it always logs to a file.
func (o *rootOptions) setup(logToFile bool) (*env, error) {
	dataDir := o.dataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDirName)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = o.logLevel
	logCfg.File = o.logFile
	if logCfg.File == "" && logToFile {
		logCfg.File = filepath.Join(dataDir, logFileName)
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	configPath := o.configPath
	if configPath == "" {
		configPath = filepath.Join(dataDir, config.FileName)
	}

	fs := afero.NewOsFs()
	cfg := config.Load(fs, configPath, logger)

	logger.Debug("starting",
		zap.String("data_dir", dataDir),
		zap.String("config", configPath),
		zap.Int("interval_seconds", cfg.IntervalSeconds))

	return &env{
		dataDir:    dataDir,
		configPath: configPath,
		fs:         fs,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func (e *env) openStore() (*storage.Store, error) {
	store, err := storage.Open(filepath.Join(e.dataDir, dbFileName), e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newPipeline wires the gopsutil source to the store
func (e *env) newPipeline(store *storage.Store) *pipeline.Pipeline {
	src := collector.NewSource(collector.DefaultConfig(), e.logger)
	return pipeline.New(src, store, e.cfg.HistoryPoints, e.logger)
}

func (e *env) close() {
	e.logger.Sync()
}
