// Package sync copies note logs between storage backends, for example when moving
// a show from local files to a shared spreadsheet.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/notes"
)

// Lister is implemented by backends that can enumerate the shows they hold notes for.
type Lister interface {
	Shows(ctx context.Context) ([]string, error)
}

// Shows returns registered followed by any show src holds notes for that is not
// registered, so orphaned logs are still copied. Backends that cannot list their
// shows contribute nothing extra.
func Shows(ctx context.Context, registered []string, src notes.Backend) ([]string, error) {
	shows := append([]string(nil), registered...)
	lister, ok := src.(Lister)
	if !ok {
		return shows, nil
	}
	held, err := lister.Shows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source shows: %w", err)
	}

	known := make(map[string]bool, len(registered))
	for _, s := range registered {
		known[s] = true
	}
	for _, s := range held {
		if known[s] {
			continue
		}
		slog.Warn("Syncing notes for unregistered show", "show", s)
		known[s] = true
		shows = append(shows, s)
	}
	return shows, nil
}

// Report summarises the reconciliation of one show.
type Report struct {
	Show    string
	Copied  int
	Skipped int
	Err     error
}

// Run reconciles every show from src into dst. Notes already present in dst (by id)
// are skipped; the rest are appended in their original order. A failure on one show
// is recorded in its report and does not stop the others.
func Run(ctx context.Context, shows []string, src, dst notes.Backend) []Report {
	slog.Info("Starting sync process for all shows...", "shows", len(shows))

	reports := make([]Report, 0, len(shows))
	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			reports = append(reports, Report{Show: show, Err: err})
			continue
		}
		report := reconcileShow(ctx, show, src, dst)
		if report.Err != nil {
			slog.Error("Error syncing show", "show", show, "error", report.Err)
		}
		reports = append(reports, report)
	}

	slog.Info("Sync process complete.")
	return reports
}

func reconcileShow(ctx context.Context, show string, src, dst notes.Backend) Report {
	report := Report{Show: show}

	from, err := src.Load(ctx, show)
	if err != nil {
		report.Err = fmt.Errorf("loading source: %w", err)
		return report
	}
	to, err := dst.Load(ctx, show)
	if err != nil {
		report.Err = fmt.Errorf("loading destination: %w", err)
		return report
	}

	present := make(map[string]bool)
	for _, bucket := range to {
		for _, n := range bucket {
			present[n.ID] = true
		}
	}

	for _, key := range notes.SortedKeys(from) {
		var missing []domain.Note
		for _, n := range from[key] {
			if present[n.ID] {
				report.Skipped++
				continue
			}
			missing = append(missing, n)
		}
		if len(missing) == 0 {
			continue
		}
		if err := dst.Insert(ctx, show, key, missing...); err != nil {
			report.Err = fmt.Errorf("copying %s: %w", key, err)
			return report
		}
		report.Copied += len(missing)
	}

	slog.Info("reconciliation complete",
		"show", show,
		"copied", report.Copied,
		"skipped", report.Skipped,
	)
	return report
}
