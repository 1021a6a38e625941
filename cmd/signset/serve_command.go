package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/signset/internal/catalog"
	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/metrics"
	"github.com/ayusman/signset/internal/server"
)

const defaultListen = "127.0.0.1:8080"

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run catalog and dataset over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			addr := listen
			if addr == "" {
				addr = cfg.Server.Listen
			}
			if addr == "" {
				addr = defaultListen
			}

			log, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			layout, err := dataset.New(cfg.Dataset.Root)
			if err != nil {
				return err
			}

			var cat *catalog.Catalog
			if cfg.Catalog.Enabled {
				if cat, err = catalog.New(cfg.Catalog.Path); err != nil {
					return fmt.Errorf("open catalog: %w", err)
				}
				defer cat.Close()
			}

			srv := server.New(server.Config{
				Catalog:        cat,
				Layout:         layout,
				SequenceLength: cfg.Dataset.SequenceLength,
				Metrics:        metrics.New(),
				Logger:         log,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", layout.Root(), addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default "+defaultListen+")")
	return cmd
}
