// Package main provides the tos CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/treeofscience/internal/config"
	"github.com/matsen/treeofscience/internal/isi"
	"github.com/matsen/treeofscience/internal/logging"
	"github.com/matsen/treeofscience/internal/storage"
	"github.com/matsen/treeofscience/internal/tree"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	verbose     bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// SilenceErrors is set, so cobra errors such as unknown flags are
		// printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tos",
	Short: "Tree of Science citation analysis",
	Long: `tos builds a citation graph from ISI / Web of Science exports and
classifies papers into the parts of a tree:

  root    foundational papers, cited a lot and citing nothing in the set
  trunk   papers that structure the field, by betweenness centrality
  leave   recent papers, citing a lot and not yet cited

Near-duplicate citation labels are merged before the graph is built.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Credentials and overrides may live in a .env file next to the exports.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $TOS_CONFIG or $XDG_CONFIG_HOME/tos/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log build stages to stderr")
	rootCmd.Version = Version
}

// setup loads the configuration and logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg = loaded

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	l, err := logging.New(logCfg)
	if err != nil {
		exitWithError(ExitConfigError, "configuring logger: %v", err)
	}
	logger = l
	cobra.OnFinalize(func() { _ = logger.Sync() })
	return nil
}

// treeConfig returns the build options from the loaded configuration.
func treeConfig(data string) tree.Config {
	opts, err := cfg.DedupeOptions()
	if err != nil {
		exitWithError(ExitConfigError, "dedupe options: %v", err)
	}
	return tree.Config{
		Data:       data,
		Duplicates: opts,
		Workers:    cfg.Workers,
		Logger:     logger,
	}
}

// mustBuildTree reads an ISI export and builds its tree, exits on error.
func mustBuildTree(ctx context.Context, path string) *tree.Tree {
	data, err := os.ReadFile(path)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	t, err := tree.NewContext(ctx, isi.New(), treeConfig(string(data)))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			exitWithError(ExitError, "interrupted")
		}
		exitWithError(ExitError, "building tree from %s: %v", path, err)
	}
	if n := len(t.Diagnostics()); n > 0 && humanOutput {
		fmt.Fprintf(os.Stderr, "warning: %d entries have incomplete labels\n", n)
	}
	return t
}

// mustOpenStore opens the snapshot database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenStore() *storage.DB {
	path := cfg.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		exitWithError(ExitConfigError, "creating store directory: %v", err)
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening store: %v", err)
	}
	return db
}
