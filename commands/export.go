package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/dataset"
	"github.com/oaknational/currigraph/export"
	"github.com/oaknational/currigraph/printer"
)

var (
	exportMapping   string
	exportDryRun    bool
	exportCypherOut string
	exportClear     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph to Neo4j",
	Long: `Export maps the curriculum graph onto a labelled property graph
using the JSON mapping configuration and uploads it to Neo4j. The
connection comes from NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD, and
NEO4J_DATABASE, with the neo4j section of currigraph.yaml as fallback
for everything but the password.

Examples:
  # Inspect the generated Cypher without a database
  currigraph export --dry-run

  # Replace the previous export, then load
  currigraph export --clear`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportMapping, "mapping", "", "mapping configuration file (default from config)")
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "write Cypher statements instead of connecting")
	exportCmd.Flags().StringVar(&exportCypherOut, "cypher", "", "dry-run output file (default <output_dir>/export.cypher)")
	exportCmd.Flags().BoolVar(&exportClear, "clear", false, "delete previously exported nodes first")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	mappingPath := exportMapping
	if mappingPath == "" {
		mappingPath = cfg.Neo4j.Mapping
	}
	if mappingPath == "" {
		return printer.Error(
			"no mapping configuration",
			"The export needs the JSON mapping that drives labels and relationships.",
			[]string{"Pass --mapping <file>", "Set neo4j.mapping in currigraph.yaml"},
		)
	}

	expCfg, err := export.LoadConfig(mappingPath)
	if err != nil {
		return err
	}
	files, err := expCfg.RDFSource.Files.Discover(".")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return printer.Error(
			"no files matched",
			fmt.Sprintf("The mapping configuration %s selected no Turtle files.", mappingPath),
			[]string{"Check rdf_source.file_discovery against the data layout."},
		)
	}

	printer.Step("loading %d files\n", len(files))
	ds, err := dataset.Load(files)
	if err != nil {
		return err
	}
	pg := export.NewMapper(expCfg, logger).Map(ds.Graph)
	printer.Success("mapped %d nodes, %d relationships\n", pg.NodeCount(), pg.RelationshipCount())

	if exportDryRun {
		out := exportCypherOut
		if out == "" {
			out = filepath.Join(cfg.Build.OutputDir, "export.cypher")
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := export.WriteCypher(f, pg); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", out, err)
		}
		printer.Success("cypher written to %s\n", out)
		return nil
	}

	creds, err := export.CredentialsFromEnv(export.Credentials{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return printer.ErrorWithContext(
			"Neo4j credentials missing",
			"The export needs a connection endpoint and password.",
			map[string]string{
				"NEO4J_URI":      "neo4j+s:// or bolt:// endpoint",
				"NEO4J_PASSWORD": "database password",
			},
			[]string{
				"export NEO4J_URI=... NEO4J_PASSWORD=...",
				"Use --dry-run to write Cypher without a connection",
			},
		)
	}

	ctx := cmd.Context()
	exporter, err := export.Connect(ctx, creds, logger)
	if err != nil {
		return err
	}
	defer exporter.Close(ctx)
	printer.Success("connected to %s\n", creds.URI)

	label := expCfg.LabelMapping.TargetLabel
	if exportClear {
		n, err := exporter.Clear(ctx, label)
		if err != nil {
			return err
		}
		printer.Warning("cleared %d %s nodes\n", n, label)
	}

	if err := exporter.Run(ctx, pg, expCfg.Connection.BatchSize); err != nil {
		return err
	}

	stats, err := exporter.Verify(ctx, label)
	if err != nil {
		return err
	}
	printer.Success("export complete: %d nodes in the database\n", stats.Nodes)
	for _, lc := range stats.ByLabel {
		printer.Printf("  %s: %d\n", lc.Label, lc.Count)
	}
	return nil
}
