package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/signset/internal/app"
	"github.com/ayusman/signset/internal/config"
	"github.com/ayusman/signset/internal/recorder"
)

// datasetFlags are the protocol overrides shared by record and provision.
type datasetFlags struct {
	labels    []string
	sequences int
	length    int
	root      string
	mode      string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.labels, "label", "l", nil, "Label to record (repeatable; replaces the configured labels)")
	cmd.Flags().IntVarP(&f.sequences, "sequences", "n", 0, "Sequences per label")
	cmd.Flags().IntVar(&f.length, "length", 0, "Frames per sequence")
	cmd.Flags().StringVar(&f.root, "root", "", "Dataset root directory")
	cmd.Flags().StringVar(&f.mode, "mode", "", "overwrite or append")
}

// apply copies explicitly set flags onto cfg.
func (f *datasetFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("label") {
		cfg.Dataset.Labels = append([]string(nil), f.labels...)
	}
	if flags.Changed("sequences") {
		cfg.Dataset.Sequences = f.sequences
	}
	if flags.Changed("length") {
		cfg.Dataset.SequenceLength = f.length
	}
	if flags.Changed("root") {
		cfg.Dataset.Root = f.root
	}
	if flags.Changed("mode") {
		cfg.Dataset.Mode = f.mode
	}
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var ds datasetFlags
	var noWindow bool
	var showTray bool
	var listen string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record labeled landmark sequences from the camera",
		Long: `Record every configured label and sequence from the camera.

Each frame is run through the holistic landmark detector and stored as a
1662-value vector at <root>/<label>/<sequence>/<frame>.npy. Press q in the
preview window, choose Quit in the tray or hit Ctrl-C to stop; frames already
written are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			ds.apply(cmd, cfg)
			if noWindow {
				cfg.Capture.Window = false
			}
			if cmd.Flags().Changed("tray") {
				cfg.Capture.Tray = showTray
				if showTray {
					cfg.Capture.Window = false
				}
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if err := cfg.Normalize(); err != nil {
				return err
			}

			log, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			a, err := app.New(app.Options{Config: cfg, Logger: log})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording %d labels x %d sequences x %d frames into %s (%s)\n",
				len(cfg.Dataset.Labels), cfg.Dataset.Sequences, cfg.Dataset.SequenceLength,
				cfg.Dataset.Root, cfg.Dataset.Mode)

			summary, err := a.Record(cmd.Context())
			if errors.Is(err, recorder.ErrCancelled) {
				fmt.Fprintf(out, "Recording cancelled after %d frames; frames already written were kept.\n", summary.FramesStored)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Recorded %d frames", summary.FramesStored)
			if summary.RunID != "" {
				fmt.Fprintf(out, " (run %s)", summary.RunID)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	ds.register(cmd)
	cmd.Flags().BoolVar(&noWindow, "no-window", false, "Do not open the preview window")
	cmd.Flags().BoolVar(&showTray, "tray", false, "Show a system tray item with a Quit entry (implies --no-window)")
	cmd.Flags().StringVar(&listen, "listen", "", "Serve status, preview and events on this address while recording")
	return cmd
}

func newProvisionCommand(ctx *commandContext) *cobra.Command {
	var ds datasetFlags

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the sequence directories without recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			ds.apply(cmd, cfg)
			if err := cfg.Normalize(); err != nil {
				return err
			}

			log, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			a, err := app.New(app.Options{Config: cfg, Logger: log})
			if err != nil {
				return err
			}

			plan, err := a.Provision()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(plan))
			for _, r := range plan {
				rows = append(rows, []string{
					r.Label,
					strconv.Itoa(r.Start),
					strconv.Itoa(r.End() - 1),
					strconv.Itoa(r.Count),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provisioned %s\n", a.Layout().Root())
			fmt.Fprintln(out, renderTable(
				[]string{"Label", "First", "Last", "Sequences"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	ds.register(cmd)
	return cmd
}
