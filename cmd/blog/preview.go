package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matthewriabinin/blog/cmd/blog/internal/ui"
	"github.com/matthewriabinin/blog/internal/app"
	"github.com/matthewriabinin/blog/pkg/scheduler"
)

func newPreviewCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [path]",
		Short: "Load one page in the terminal and show its progress",
		Long: `Mounts the page that would serve path, drives its render scheduler and
shows each phase it goes through until the content has settled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			// Log lines would tear the TUI.
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

			a, err := app.New(c.cfg, app.Options{Logger: quiet})
			if err != nil {
				return err
			}

			sched := scheduler.NewScheduler()
			sched.SetLogger(quiet)
			p, pattern, err := a.Page(path, sched)
			if err != nil {
				return err
			}

			m, err := ui.RunPreview(ui.NewPreview(cmd.Context(), path, pattern, p, sched))
			if err != nil {
				return err
			}
			if m.Err() != nil {
				return m.Err()
			}
			if !m.Done() {
				return errors.New("preview cancelled")
			}
			return nil
		},
	}
}
