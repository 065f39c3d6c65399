// Package commands implements the currigraph CLI: validate, build,
// serve, and the surrounding pipeline verbs. Each command loads the
// layered configuration, then drives the dataset, shacl, sparql,
// server, sanity, store, and export packages.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/config"
	"github.com/oaknational/currigraph/dataset"
	"github.com/oaknational/currigraph/graph"
)

const appName = "currigraph"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "currigraph",
	Short: "UK curriculum knowledge-graph toolkit",
	Long: `Currigraph maintains the UK curriculum knowledge graph: Turtle
sources are validated against SHACL shapes, compiled into static query
results, and served over a SPARQL endpoint. Conversion from the Sanity
content lake and export to Neo4j round out the pipeline.

The usual cycle is validate, then build or serve:

  currigraph validate
  currigraph build
  currigraph serve --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors come back to the caller for the
// exit code; user-facing detail is printed by the commands themselves.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo records the build-time version stamp.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default currigraph.yaml, searched upward)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error (overrides the config file)")
}

// setup loads the layered configuration and installs the process
// logger. The --log-level flag wins over the configured level.
func setup() (*config.Config, *slog.Logger, error) {
	bootLog := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.NewLoader(bootLog).Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// loadDataset discovers and merges the Turtle sources. The core
// ontology file joins the merge when it exists outside the data roots,
// so queries and the server see the full graph.
func loadDataset(cfg *config.Config) (*dataset.Dataset, error) {
	files, err := dataset.Discover(cfg.Data.Roots, cfg.Data.Exclude)
	if err != nil {
		return nil, err
	}
	if ont := cfg.Data.Ontology; ont != "" && !containsPath(files, ont) {
		if _, err := os.Stat(ont); err == nil {
			files = append([]string{ont}, files...)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", dataset.ErrNoFiles, strings.Join(cfg.Data.Roots, ", "))
	}
	return dataset.Load(files)
}

func containsPath(files []string, path string) bool {
	for _, f := range files {
		if f == path {
			return true
		}
	}
	return false
}

// natsConfig assembles the ingest publishing config. NATS_URL in the
// environment overrides the configured URL; with neither set the
// publisher stays disabled.
func natsConfig(cfg *config.Config) graph.Config {
	url := cfg.NATS.URL
	if env := os.Getenv("NATS_URL"); env != "" {
		url = env
	}
	return graph.Config{URL: url, Subject: cfg.NATS.Subject, Stream: cfg.NATS.Stream}
}
