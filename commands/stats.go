package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/store"
)

var statsFromStore bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the dataset",
	Long: `Stats parses the merged dataset and prints file and triple counts
plus instance counts per class. With --store it reports on the
persistent store written by currigraph load instead.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsFromStore, "store", false, "report on the persistent store")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if statsFromStore {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		info, err := st.Info()
		if errors.Is(err, store.ErrNotFound) {
			return printer.Error(
				"store is empty",
				fmt.Sprintf("Nothing has been loaded into %s yet.", cfg.Store.Path),
				[]string{"Run: currigraph load"},
			)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "dataset: %s\n", info.Name)
		fmt.Fprintf(out, "triples: %d\n", info.Triples)
		fmt.Fprintf(out, "loaded:  %s\n", info.LoadedAt.Format(time.RFC3339))
		return nil
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	stats := ds.Stats()
	fmt.Fprintf(out, "files:   %d\n", stats.Files)
	fmt.Fprintf(out, "triples: %d\n", stats.Triples)

	if len(stats.Classes) > 0 {
		tbl := tablewriter.NewWriter(out)
		tbl.Header([]string{"Class", "Instances"})
		for _, cc := range stats.Classes {
			if err := tbl.Append([]string{cc.Label, strconv.Itoa(cc.Count)}); err != nil {
				return err
			}
		}
		if err := tbl.Render(); err != nil {
			return err
		}
	}

	for _, iri := range ds.AuditImports().Unsatisfied() {
		printer.Warning("unsatisfied import: %s\n", iri)
	}
	return nil
}
