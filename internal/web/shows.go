package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/conorfennell/shownotes/internal/domain"
)

type showRow struct {
	Name     string
	Source   domain.RoutineSource
	Created  string
	Routines int
}

type showsPage struct {
	Title   string
	Shows   []showRow
	Name    string
	Text    string
	Message string
	Error   string
}

func (s *Server) buildShows(r *http.Request) (*showsPage, error) {
	shows, err := s.registry.Shows(r.Context())
	if err != nil {
		return nil, err
	}
	page := &showsPage{Title: s.opts.Title}
	for _, sh := range shows {
		routines, err := s.registry.Catalog(r.Context(), sh.Name)
		if err != nil {
			return nil, err
		}
		page.Shows = append(page.Shows, showRow{Name: sh.Name, Source: sh.Source, Created: sh.Created, Routines: len(routines)})
	}
	return page, nil
}

// handleGetShows renders the show management page.
func (s *Server) handleGetShows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.buildShows(r)
		if err != nil {
			slog.Error("Error getting shows", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		switch r.URL.Query().Get("msg") {
		case "created":
			page.Message = "Show created."
		case "deleted":
			page.Message = "Show deleted."
		}
		s.render(w, http.StatusOK, "shows", page)
	}
}

// handlePostShow creates a show from a pasted routine list.
func (s *Server) handlePostShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PostFormValue("name")
		text := r.PostFormValue("routines")

		_, err := s.registry.Create(r.Context(), name, text)
		if err == nil {
			http.Redirect(w, r, "/admin/shows?msg=created", http.StatusSeeOther)
			return
		}

		page, buildErr := s.buildShows(r)
		if buildErr != nil {
			slog.Error("Error getting shows", "error", buildErr)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		page.Name, page.Text = name, text

		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrEmptyName):
			page.Error = "Please enter a show name."
		case errors.Is(err, domain.ErrEmptyCatalog):
			page.Error = "Please enter at least one routine."
		case errors.Is(err, domain.ErrDuplicateShow):
			page.Error = "A show with that name already exists."
		default:
			slog.Error("Error creating show", "show", name, "error", err)
			page.Error = "Error creating show, please try again: " + err.Error()
			status = http.StatusInternalServerError
		}
		s.render(w, status, "shows", page)
	}
}

// handleDeleteShow deletes a show after the name has been retyped.
func (s *Server) handleDeleteShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PostFormValue("name")
		confirm := r.PostFormValue("confirm")

		err := s.registry.Delete(r.Context(), name, confirm)
		if err == nil {
			http.Redirect(w, r, "/admin/shows?msg=deleted", http.StatusSeeOther)
			return
		}

		page, buildErr := s.buildShows(r)
		if buildErr != nil {
			slog.Error("Error getting shows", "error", buildErr)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrConfirmationMismatch):
			page.Error = "Type the show name exactly to confirm deletion."
		case errors.Is(err, domain.ErrShowNotFound):
			page.Error = "That show no longer exists."
			status = http.StatusNotFound
		default:
			slog.Error("Error deleting show", "show", name, "error", err)
			page.Error = "Error deleting show, please try again: " + err.Error()
			status = http.StatusInternalServerError
		}
		s.render(w, status, "shows", page)
	}
}
