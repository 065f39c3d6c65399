package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/sparql"
)

var (
	buildQueriesDir string
	buildOutputDir  string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the static queries and write their JSON results",
	Long: `Build executes every *.sparql file in the queries directory
against the merged dataset and writes one <name>.json results file per
query to the output directory. The generated files are what the site
consumes, so a parse or evaluation error in any query fails the build.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildQueriesDir, "queries", "", "directory of *.sparql files (default from config)")
	buildCmd.Flags().StringVar(&buildOutputDir, "output", "", "directory for the JSON results (default from config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if buildQueriesDir != "" {
		cfg.Build.QueriesDir = buildQueriesDir
	}
	if buildOutputDir != "" {
		cfg.Build.OutputDir = buildOutputDir
	}

	queryFiles, err := filepath.Glob(filepath.Join(cfg.Build.QueriesDir, "*.sparql"))
	if err != nil {
		return fmt.Errorf("list queries: %w", err)
	}
	if len(queryFiles) == 0 {
		return printer.Error(
			"no queries found",
			fmt.Sprintf("No *.sparql files in %s.", cfg.Build.QueriesDir),
			[]string{"Set build.queries_dir in currigraph.yaml or pass --queries."},
		)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	printer.Step("running %d queries over %d triples\n", len(queryFiles), ds.Graph.Len())

	if err := os.MkdirAll(cfg.Build.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	failed := false
	for _, path := range queryFiles {
		name := strings.TrimSuffix(filepath.Base(path), ".sparql")
		out := filepath.Join(cfg.Build.OutputDir, name+".json")
		rows, err := buildQuery(path, out, ds.Graph)
		if err != nil {
			printer.Failure("%s: %v\n", name, err)
			failed = true
			continue
		}
		printer.Success("%s: %d rows → %s\n", name, rows, out)
	}
	if failed {
		return errors.New("build failed")
	}
	printer.Success("built %d result files in %s\n", len(queryFiles), cfg.Build.OutputDir)
	return nil
}

// buildQuery runs one query file and writes its results JSON, returning
// the row count.
func buildQuery(path, out string, src sparql.Source) (int, error) {
	q, err := sparql.ParseFile(path)
	if err != nil {
		return 0, err
	}
	res, err := q.Execute(src)
	if err != nil {
		return 0, err
	}
	data, err := res.JSON()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return 0, err
	}
	return res.Count(), nil
}
