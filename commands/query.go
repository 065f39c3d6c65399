package commands

import (
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/printer"
	"github.com/oaknational/currigraph/rdf"
	"github.com/oaknational/currigraph/rdf/turtle"
	"github.com/oaknational/currigraph/sparql"
	"github.com/oaknational/currigraph/store"
	"github.com/oaknational/currigraph/vocabulary/curriculum"
)

var (
	queryText      string
	queryFormat    string
	queryFromStore bool
)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Run a SPARQL query against the dataset",
	Long: `Query parses the merged dataset and evaluates a single SPARQL query
against it. The query comes from a file argument or from --query.

Examples:
  # Run a saved query and print a table
  currigraph query build/queries/units.sparql

  # Ad hoc query as JSON
  currigraph query -q 'SELECT ?s WHERE { ?s a curric:Unit } LIMIT 5' --format json

  # Query the persistent store written by currigraph load
  currigraph query build/queries/units.sparql --store`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text instead of a file")
	queryCmd.Flags().StringVar(&queryFormat, "format", "table", "output format: table, json, or csv")
	queryCmd.Flags().BoolVar(&queryFromStore, "store", false, "query the persistent store instead of the files")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	switch queryFormat {
	case "table", "json", "csv":
	default:
		return printer.Error(
			"unknown format",
			fmt.Sprintf("%q is not a supported output format.", queryFormat),
			[]string{"Use --format table, json, or csv"},
		)
	}
	if queryText != "" && len(args) > 0 {
		return printer.Error(
			"two queries given",
			"Pass a query file or --query, not both.",
			nil,
		)
	}

	var (
		q   *sparql.Query
		err error
	)
	switch {
	case queryText != "":
		q, err = sparql.Parse(queryText)
	case len(args) == 1:
		q, err = sparql.ParseFile(args[0])
	default:
		return printer.Error(
			"no query given",
			"Query needs SPARQL to run.",
			[]string{
				"currigraph query build/queries/units.sparql",
				"currigraph query -q 'SELECT ?s WHERE { ?s a owl:Class }'",
			},
		)
	}
	if err != nil {
		return err
	}

	cfg, _, err := setup()
	if err != nil {
		return err
	}

	var (
		src sparql.Source
		ns  *rdf.Namespaces
	)
	if queryFromStore {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := st.Info(); errors.Is(err, store.ErrNotFound) {
			return printer.Error(
				"store is empty",
				fmt.Sprintf("Nothing has been loaded into %s yet.", cfg.Store.Path),
				[]string{"Run: currigraph load"},
			)
		}
		src = st
		ns = curriculum.Namespaces()
	} else {
		ds, err := loadDataset(cfg)
		if err != nil {
			return err
		}
		src = ds.Graph
		ns = ds.Namespaces
	}

	res, err := q.Execute(src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch queryFormat {
	case "json":
		data, err := res.JSON()
		if err != nil {
			return printer.Error(
				"no JSON form",
				fmt.Sprintf("%v.", err),
				[]string{"Use --format table to print graph results as Turtle"},
			)
		}
		fmt.Fprintf(out, "%s\n", data)
	case "csv":
		if err := res.WriteCSV(out); err != nil {
			return err
		}
	default:
		switch res.Form {
		case sparql.FormSelect:
			header, rows := res.TableRows(ns)
			tbl := tablewriter.NewWriter(out)
			tbl.Header(header)
			for _, row := range rows {
				if err := tbl.Append(row); err != nil {
					return err
				}
			}
			if err := tbl.Render(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d rows\n", len(rows))
		case sparql.FormAsk:
			fmt.Fprintln(out, res.Boolean != nil && *res.Boolean)
		default:
			if err := turtle.Write(out, res.Graph, ns); err != nil {
				return err
			}
		}
	}
	return nil
}
