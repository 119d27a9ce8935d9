package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewriabinin/blog/cmd/blog/internal/ui"
	"github.com/matthewriabinin/blog/internal/app"
)

func newServeCommand(c *cli) *cobra.Command {
	var watch bool
	var exactRoot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog server",
		Long: `Starts the HTTP server. With --watch the content directory is read from
disk instead of the bundle, and open pages reload when a post changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, c, watch, exactRoot)
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "Port to listen on")
	cmd.Flags().StringP("host", "H", "", "Host to bind to")
	cmd.Flags().String("mode", "embed", "Content source: embed or http")
	cmd.Flags().String("content-url", "", "Base URL posts are fetched from in http mode")
	cmd.Flags().Duration("content-timeout", 0, "Timeout for a single post fetch, 0 for none")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the content directory and live reload pages")
	cmd.Flags().String("watch-dir", "internal/content/assets", "Content directory used with --watch")
	cmd.Flags().BoolVar(&exactRoot, "exact-root", false, "Serve 404 for unknown paths instead of the index")

	for key, flag := range map[string]string{
		"server.port":      "port",
		"server.host":      "host",
		"content.mode":     "mode",
		"content.baseURL":  "content-url",
		"content.timeout":  "content-timeout",
		"content.watchDir": "watch-dir",
	} {
		_ = c.v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}

	return cmd
}

func runServe(cmd *cobra.Command, c *cli, watch, exactRoot bool) error {
	opts := app.Options{
		Logger:    c.logger,
		Watch:     watch,
		ExactRoot: exactRoot,
	}
	if watch {
		opts.Content = os.DirFS(c.cfg.Content.WatchDir)
	}

	a, err := app.New(c.cfg, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.cfg.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Banner(ui.BannerInfo{
		Title:   a.Site().Chrome().Title,
		Addr:    displayAddr(c.cfg.Server.Host, c.cfg.Server.Port),
		Mode:    c.cfg.Content.Mode,
		Posts:   len(a.Site().Posts()),
		Routes:  len(a.Router().ExportTable().Routes),
		Watch:   watch,
		Version: version,
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		go func() {
			if err := a.WatchContent(ctx, c.cfg.Content.WatchDir); err != nil {
				c.logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func displayAddr(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, port)
}
