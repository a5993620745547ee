// Package app wires storage, the registry and the notes service from config.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conorfennell/shownotes/internal/config"
	"github.com/conorfennell/shownotes/internal/export"
	"github.com/conorfennell/shownotes/internal/history"
	"github.com/conorfennell/shownotes/internal/notes"
	"github.com/conorfennell/shownotes/internal/registry"
	"github.com/conorfennell/shownotes/internal/sheets"
	"github.com/conorfennell/shownotes/internal/storage"
)

// App holds the long-lived components shared by the web server and CLI commands.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Notes    *notes.Service
	Columns  export.Columns
	History  *history.Repo // nil unless history.enabled

	closers []func() error
}

// New builds the application from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Columns: export.Columns{Staff: cfg.Export.IncludeStaff},
	}

	var recorder history.Recorder = history.Nop{}
	if cfg.History.Enabled {
		repo, err := history.Open(cfg.DataDir, history.Author{
			Name:  cfg.History.AuthorName,
			Email: cfg.History.AuthorEmail,
		})
		if err != nil {
			return nil, err
		}
		recorder = repo
		a.History = repo
	}

	backend, err := a.openBackend(ctx, cfg, cfg.Backend, recorder)
	if err != nil {
		return nil, err
	}

	a.Notes = notes.NewService(backend, notes.WithLegacy(notes.Legacy{
		ShowName: cfg.Legacy.ShowName,
		Path:     cfg.LegacyPath(),
	}))
	a.Registry = registry.New(cfg.RegistryPath(), cfg.DefaultShow, a.Notes, registry.WithRecorder(recorder))

	slog.Info("Application ready", "backend", cfg.Backend, "data_dir", cfg.DataDir, "history", cfg.History.Enabled)
	return a, nil
}

// OpenBackend opens a named backend using the app's config. It is used by the sync
// command to reach a backend other than the configured one.
func (a *App) OpenBackend(ctx context.Context, name string) (notes.Backend, error) {
	return a.openBackend(ctx, a.Config, name, history.Nop{})
}

func (a *App) openBackend(ctx context.Context, cfg *config.Config, name string, recorder history.Recorder) (notes.Backend, error) {
	switch name {
	case config.BackendFile:
		return notes.NewFileBackend(cfg.NotesDir(), recorder), nil
	case config.BackendSQLite:
		db, err := storage.Open(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	case config.BackendSheets:
		creds, err := sheets.LoadCredentials(cfg.Sheets.CredentialsJSON, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		return sheets.New(ctx, creds)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// Close releases backend resources.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
