package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the note-taking web app",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := web.NewServer(ctx.app.Registry, ctx.app.Notes, web.Options{
				AdminPassword: ctx.cfg.AdminPassword,
				Columns:       ctx.app.Columns,
			})
			if err != nil {
				return err
			}
			if ctx.cfg.AdminPassword == "" {
				slog.Warn("No admin password set; review and show management are disabled")
			}

			httpServer := &http.Server{
				Addr:              ctx.cfg.Addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Server starting", "addr", ctx.cfg.Addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("failed to serve: %w", err)
			case <-runCtx.Done():
			}

			slog.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			return nil
		},
	}
}
