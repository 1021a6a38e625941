package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/signset/internal/dataset"
	"github.com/ayusman/signset/internal/keypoints"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var label string
	var root string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the recorded dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if root == "" {
				root = cfg.Dataset.Root
			}
			layout, err := dataset.New(root)
			if err != nil {
				return err
			}

			stats, err := layout.Inspect(label, cfg.Dataset.SequenceLength)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}
			if len(stats) == 0 {
				fmt.Fprintf(out, "No labels recorded under %s\n", layout.Root())
				return nil
			}

			headers := []string{"Label", "Sequences", "Complete", "Incomplete", "Frames"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight}
			for _, g := range keypoints.Groups {
				headers = append(headers, g.String())
				aligns = append(aligns, alignRight)
			}

			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				row := []string{
					s.Label,
					strconv.Itoa(s.Sequences),
					strconv.Itoa(s.Complete),
					strconv.Itoa(s.Incomplete),
					strconv.Itoa(s.Frames),
				}
				for _, g := range keypoints.Groups {
					row = append(row, formatPercent(s.Presence[g.String()]))
				}
				rows = append(rows, row)
			}

			fmt.Fprintf(out, "Dataset %s (sequence length %d)\n", layout.Root(), cfg.Dataset.SequenceLength)
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Only inspect this label")
	cmd.Flags().StringVar(&root, "root", "", "Dataset root directory (defaults to the configured root)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
