package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/rdf/turtle"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the Turtle sources into one file",
	Long: `Merge parses every discovered source, audits the owl:imports
declarations, and serializes the combined graph to a single Turtle
file. Local curriculum imports are checked against the ontology IRIs
the merged files declare; external imports are listed for review.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "merged file path (default <output_dir>/merged.ttl)")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	out := mergeOutput
	if out == "" {
		out = filepath.Join(cfg.Build.OutputDir, "merged.ttl")
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	for _, f := range ds.Files {
		printer.Success("%s (%d triples)\n", f.Path, f.Triples)
	}

	audit := ds.AuditImports()
	if len(audit.Local) > 0 {
		printer.Step("local curriculum imports\n")
		for _, imp := range audit.Local {
			if imp.Satisfied {
				printer.Success("%s\n", imp.IRI)
			} else {
				printer.Warning("%s (no merged file declares this ontology)\n", imp.IRI)
			}
		}
	}
	if len(audit.External) > 0 {
		printer.Step("external imports\n")
		for _, iri := range audit.External {
			printer.Printf("  ! %s\n", iri)
		}
		printer.Printf("  These should resolve via w3id.org or be standard vocabularies.\n")
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
	if err := turtle.Write(f, ds.Graph, ds.Namespaces); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	printer.Success("merged %d files (%d triples) into %s\n", len(ds.Files), ds.Graph.Len(), out)
	return nil
}
