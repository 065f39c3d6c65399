package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/graph"
	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/store"
)

var loadStorePath string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk-load the dataset into the persistent store",
	Long: `Load merges the Turtle sources and writes them into the
LevelDB-backed triple store, replacing whatever was loaded before.
When NATS is configured, the loaded entities are also published to the
ingest stream for downstream consumers.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadStorePath, "store", "", "store directory (default from config)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if loadStorePath != "" {
		cfg.Store.Path = loadStorePath
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	printer.Step("loading %d files (%d triples) into %s\n", len(ds.Files), ds.Graph.Len(), cfg.Store.Path)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	start := time.Now()
	if err := st.Load(ds.Graph, cfg.Server.Dataset); err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	printer.Success("loaded %d triples in %s\n", ds.Graph.Len(), time.Since(start).Round(time.Millisecond))

	pub, err := graph.Connect(natsConfig(cfg), logger)
	if err != nil {
		printer.Warning("ingest publishing unavailable: %v\n", err)
		return nil
	}
	if pub != nil {
		defer pub.Close()
		if err := pub.PublishGraph(cmd.Context(), ds.Graph, "load"); err != nil {
			printer.Warning("ingest publish failed: %v\n", err)
		}
	}
	return nil
}
