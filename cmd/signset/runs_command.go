package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/signset/internal/catalog"
	"github.com/ayusman/signset/internal/config"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recording runs from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withCatalog(cfg, func(c *catalog.Catalog) error {
				runs, err := c.Runs().List(limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					if runs == nil {
						runs = []*catalog.Run{}
					}
					return writeJSON(out, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID,
						formatTime(r.StartedAt),
						string(r.Status),
						strings.Join(r.Labels, ","),
						strconv.Itoa(r.FramesStored),
						formatDuration(r.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Status", "Labels", "Frames", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one run and its per-sequence progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withCatalog(cfg, func(c *catalog.Catalog) error {
				run, err := c.Runs().GetByID(args[0])
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				progress, err := c.Sequences().ListByRun(run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:       %s\n", run.ID)
				fmt.Fprintf(out, "Status:    %s\n", run.Status)
				if run.Error != "" {
					fmt.Fprintf(out, "Error:     %s\n", run.Error)
				}
				fmt.Fprintf(out, "Dataset:   %s (%s)\n", run.Root, run.Mode)
				fmt.Fprintf(out, "Protocol:  %d sequences x %d frames\n", run.Sequences, run.SequenceLength)
				fmt.Fprintf(out, "Started:   %s\n", formatTime(run.StartedAt))
				if run.FinishedAt != nil {
					fmt.Fprintf(out, "Finished:  %s\n", formatTime(*run.FinishedAt))
				}
				fmt.Fprintf(out, "Frames:    %d\n", run.FramesStored)

				if len(progress) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(progress))
				for _, p := range progress {
					rows = append(rows, []string{
						p.Label,
						strconv.Itoa(p.Sequence),
						fmt.Sprintf("%d/%d", p.FramesStored, run.SequenceLength),
						yesNo(p.Completed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Label", "Sequence", "Frames", "Complete"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func withCatalog(cfg *config.Config, fn func(*catalog.Catalog) error) error {
	if !cfg.Catalog.Enabled {
		return errors.New("the run catalog is disabled (catalog.enabled = false)")
	}
	c, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer c.Close()
	return fn(c)
}
