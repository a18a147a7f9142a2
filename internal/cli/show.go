package cli

import (
	"fmt"

	"github.com/pfrederiksen/tour-snoop/internal/event"
	"github.com/pfrederiksen/tour-snoop/internal/storage"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [artist...]",
		Short: "Print the saved snapshots",
		Long: `Print the listing saved for each artist by the last run.
Without arguments every artist in the cache directory is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args)
		},
	}
}

func runShow(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolveConfig(cmd, opts, nil)
	if err != nil {
		return err
	}
	if err := setupLogger(opts, cfg); err != nil {
		return err
	}

	store, err := storage.New(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	subjects := args
	if len(subjects) == 0 {
		if subjects, err = store.Subjects(); err != nil {
			return err
		}
	}

	listings := make([][]event.Event, len(subjects))
	var all []event.Event
	for i, s := range subjects {
		listing, err := store.LoadListing(s)
		if err != nil {
			return err
		}
		listings[i] = listing.Events()
		all = append(all, listings[i]...)
	}
	width := event.NameWidth(all)

	for i, s := range subjects {
		fmt.Fprintf(opts.stdout, "==> %s\n\n", s)
		for _, evt := range listings[i] {
			fmt.Fprintln(opts.stdout, event.FormatLine("", evt, width))
		}
		fmt.Fprintln(opts.stdout)
	}
	opts.exitCode = ExitSuccess
	return nil
}
