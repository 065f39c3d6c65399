package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/config"
	"github.com/oaknational/currigraph/dataset"
	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/server"
	"github.com/oaknational/currigraph/shacl"
)

var (
	validateTargets []string
	validateWatch   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check Turtle syntax and SHACL constraints",
	Long: `Validate runs the two-phase data check: every source file is
parsed individually for Turtle syntax errors, then the merged graph is
validated against the SHACL shapes with the core ontology merged in.
Syntax errors abort before the SHACL phase.

Examples:
  # Validate everything under the data roots
  currigraph validate

  # Validate the programme structure only
  currigraph validate --target data/england/programme-structure.ttl

  # Re-validate whenever a data file changes
  currigraph validate --watch`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateTargets, "target", nil, "restrict validation to these files")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "re-run validation when data files change")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	if !validateWatch {
		return runValidation(cfg, validateTargets)
	}

	// Watch mode prints each run's outcome and keeps going; a failing
	// run is part of the loop, not a reason to stop.
	if err := runValidation(cfg, validateTargets); err != nil {
		logger.Debug("initial validation failed", "error", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rl, err := server.NewReloader(cfg.Data.Roots, 0, func(context.Context) error {
		printer.Println()
		if err := runValidation(cfg, validateTargets); err != nil {
			logger.Debug("validation failed", "error", err)
		}
		return nil
	}, logger)
	if err != nil {
		return err
	}
	if err := rl.Start(ctx); err != nil {
		return fmt.Errorf("watch data roots: %w", err)
	}
	defer rl.Stop()

	<-ctx.Done()
	return nil
}

// runValidation drives both phases and prints the outcome. The returned
// error is a short summary; the detail has already been printed.
func runValidation(cfg *config.Config, targets []string) error {
	files := targets
	if len(files) == 0 {
		var err error
		files, err = dataset.Discover(cfg.Data.Roots, cfg.Data.Exclude)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return printer.Error(
			"no data files found",
			fmt.Sprintf("No .ttl files under %s.", strings.Join(cfg.Data.Roots, ", ")),
			[]string{"Point data.roots in currigraph.yaml at your Turtle sources."},
		)
	}

	printer.Step("syntax check (%d files)\n", len(files))
	syntaxOK := true
	for _, path := range files {
		if _, err := turtle.ParseFile(path); err != nil {
			printer.Failure("%v\n", err)
			syntaxOK = false
			continue
		}
		printer.Success("%s\n", path)
	}
	if !syntaxOK {
		printer.Failure("syntax errors found, fix these before SHACL validation\n")
		return errors.New("syntax check failed")
	}

	if cfg.Data.Shapes == "" {
		printer.Warning("no shapes configured, skipping SHACL validation\n")
		return nil
	}

	ds, err := dataset.Load(files)
	if err != nil {
		return err
	}

	ontology := rdf.NewGraph()
	if cfg.Data.Ontology != "" {
		doc, err := turtle.ParseFile(cfg.Data.Ontology)
		if err != nil {
			return fmt.Errorf("load ontology: %w", err)
		}
		ontology = doc.Graph
	}

	shapesDoc, err := turtle.ParseFile(cfg.Data.Shapes)
	if err != nil {
		return fmt.Errorf("load shapes: %w", err)
	}
	validator, err := shacl.NewValidator(shapesDoc.Graph)
	if err != nil {
		return fmt.Errorf("parse shapes: %w", err)
	}

	printer.Step("SHACL validation (%d shapes)\n", len(validator.Shapes()))
	report := validator.Validate(ds.Graph, ontology)

	if !report.Conforms {
		printer.Printf("%s", report.Text(ds.Namespaces))
		printer.Failure("%d violations\n", len(report.Violations()))
		return errors.New("validation failed")
	}
	if n := len(report.Results); n > 0 {
		printer.Printf("%s", report.Text(ds.Namespaces))
		printer.Warning("%d warnings\n", n)
	}
	printer.Success("all validations passed (%d files, %d triples)\n", len(ds.Files), ds.Graph.Len())
	return nil
}
