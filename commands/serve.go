package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oaknational/currigraph/server"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset over a SPARQL endpoint",
	Long: `Serve loads the merged dataset and exposes it read-only in the
Fuseki shape: /{dataset}/sparql for queries, /{dataset}/data for the
graph, /$/ping and /$/stats for admin, /metrics for Prometheus.

With --watch the data roots are watched and the dataset is reloaded
on change; a reload that fails to parse keeps the previous dataset in
service. The server drains in-flight requests on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the dataset when data files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		Dataset:      cfg.Server.Dataset,
		ReadTimeout:  cfg.Server.ReadTimeout,
		QueryTimeout: cfg.Server.QueryTimeout,
	}, ds, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		rl, err := server.NewReloader(cfg.Data.Roots, 0, func(context.Context) error {
			next, err := loadDataset(cfg)
			if err != nil {
				return err
			}
			srv.SetDataset(next)
			return nil
		}, logger)
		if err != nil {
			return err
		}
		if err := rl.Start(ctx); err != nil {
			return fmt.Errorf("watch data roots: %w", err)
		}
		defer rl.Stop()
	}

	return srv.ListenAndServe(ctx)
}
