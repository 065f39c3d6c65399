package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/config"
	"github.com/oaknational/currigraph/graph"
	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/sanity"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

const defaultSyncStatePath = ".currigraph/sanity-sync.json"

var (
	convertAPI         bool
	convertSample      string
	convertSubjects    string
	convertOutput      string
	convertIncremental bool
	convertStatePath   string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a Sanity export into Turtle sources",
	Long: `Convert turns Sanity curriculum documents into the Turtle file
set: the programme structure, the themes, and a subject, knowledge
taxonomy, and schemes file per subject. Input comes from a local
export file or straight from the Sanity query API.

Examples:
  # Convert a local export
  currigraph convert --sample export.json

  # Fetch science and history from the content lake
  currigraph convert --api --subjects science,history

  # Only convert documents changed since the last run
  currigraph convert --api --incremental`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertAPI, "api", false, "fetch documents from the Sanity query API")
	convertCmd.Flags().StringVar(&convertSample, "sample", "", "convert a local export JSON file")
	convertCmd.Flags().StringVar(&convertSubjects, "subjects", "all", "comma-separated subjects to convert, or all")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output directory (default <data root>/england)")
	convertCmd.Flags().BoolVar(&convertIncremental, "incremental", false, "skip documents unchanged since the last run")
	convertCmd.Flags().StringVar(&convertStatePath, "state", defaultSyncStatePath, "sync state file for --incremental")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if convertAPI && convertSample != "" {
		return printer.Error(
			"choose one input",
			"Use either --api or --sample, not both.",
			nil,
		)
	}
	if !convertAPI && convertSample == "" {
		return printer.Error(
			"no input selected",
			"Convert needs a document source.",
			[]string{
				"--sample <export.json> converts a local export file",
				"--api fetches from the Sanity content lake",
			},
		)
	}

	var state sanity.SyncState
	if convertIncremental {
		state, err = sanity.LoadSyncState(convertStatePath)
		if err != nil {
			return err
		}
	}
	started := time.Now()

	var export *sanity.Export
	if convertAPI {
		client, err := sanity.NewClient(sanity.ClientConfig{
			ProjectID:  cfg.Sanity.ProjectID,
			Dataset:    cfg.Sanity.Dataset,
			APIVersion: cfg.Sanity.APIVersion,
			Token:      os.Getenv(cfg.Sanity.TokenEnv),
		})
		if err != nil {
			return printer.ErrorWithContext(
				"Sanity credentials missing",
				"The API fetch needs a project id and an API token.",
				map[string]string{
					"project_id": cfg.Sanity.ProjectID,
					"token_env":  cfg.Sanity.TokenEnv,
				},
				[]string{
					"Set sanity.project_id in currigraph.yaml",
					fmt.Sprintf("export %s=<token>", cfg.Sanity.TokenEnv),
				},
			)
		}
		if convertIncremental && !state.LastRun.IsZero() {
			export, err = client.FetchSince(cmd.Context(), state.LastRun)
		} else {
			export, err = client.Fetch(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("fetch documents: %w", err)
		}
	} else {
		export, err = sanity.LoadExport(convertSample)
		if err != nil {
			return err
		}
		if convertIncremental && !state.LastRun.IsZero() {
			export = export.FilterSince(state.LastRun)
		}
	}

	if export.Len() == 0 {
		if convertIncremental && !state.LastRun.IsZero() {
			printer.Printf("nothing to convert: no documents changed since %s\n", state.LastRun.Format(time.RFC3339))
			return sanity.SyncState{LastRun: started}.Save(convertStatePath)
		}
		printer.Warning("nothing to convert: the export holds no documents\n")
		return nil
	}
	printer.Step("converting %d documents\n", export.Len())

	outDir := convertOutput
	if outDir == "" {
		outDir = filepath.Join(cfg.Data.Roots[0], "england")
	}

	builder := sanity.NewBuilder(logger)
	outputs := builder.Build(export, subjectList(convertSubjects))
	if err := builder.WriteAll(outDir, outputs, curriculum.Namespaces()); err != nil {
		return err
	}
	for _, out := range outputs {
		printer.Success("%s (%d triples)\n", filepath.Join(outDir, out.Path), out.Graph.Len())
	}
	printer.Success("wrote %d files to %s\n", len(outputs), outDir)

	publishOutputs(cmd, cfg, logger, outputs)

	if convertIncremental {
		if err := (sanity.SyncState{LastRun: started}).Save(convertStatePath); err != nil {
			return err
		}
	}
	return nil
}

// subjectList splits the --subjects value; empty and all both mean
// every discovered subject.
func subjectList(value string) []string {
	var subjects []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "all") {
			continue
		}
		subjects = append(subjects, s)
	}
	return subjects
}

// publishOutputs sends the converted entities to the ingest stream.
// Publishing is supplementary: problems are warnings, not failures.
func publishOutputs(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, outputs []sanity.Output) {
	pub, err := graph.Connect(natsConfig(cfg), logger)
	if err != nil {
		printer.Warning("ingest publishing unavailable: %v\n", err)
		return
	}
	if pub == nil {
		return
	}
	defer pub.Close()
	for _, out := range outputs {
		if err := pub.PublishGraph(cmd.Context(), out.Graph, out.Path); err != nil {
			printer.Warning("ingest publish failed for %s: %v\n", out.Path, err)
		}
	}
}
