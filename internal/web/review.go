package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/export"
	"github.com/conorfennell/shownotes/internal/review"
)

const reviewCookie = "review"

// reviewToken is the cookie value proving the shared password was entered.
func reviewToken(password string) string {
	sum := sha256.Sum256([]byte("shownotes-review:" + password))
	return hex.EncodeToString(sum[:])
}

func (s *Server) checkPassword(password string) bool {
	if s.opts.AdminPassword == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.AdminPassword)) == 1
}

func (s *Server) isReviewer(r *http.Request) bool {
	if s.opts.AdminPassword == "" {
		return false
	}
	c, err := r.Cookie(reviewCookie)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(reviewToken(s.opts.AdminPassword))) == 1
}

// requireReviewer redirects to the login form unless the review cookie is valid.
func (s *Server) requireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isReviewer(r) {
			if r.Method != http.MethodGet {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			http.Redirect(w, r, "/review/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

type loginPage struct {
	Title    string
	Next     string
	Error    string
	Disabled bool
}

// handleGetLogin renders the password form.
func (s *Server) handleGetLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "login", loginPage{
			Title:    s.opts.Title,
			Next:     safeNext(r.URL.Query().Get("next")),
			Disabled: s.opts.AdminPassword == "",
		})
	}
}

// handlePostLogin checks the shared password and sets the review cookie.
func (s *Server) handlePostLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.PostFormValue("next"))
		if !s.checkPassword(r.PostFormValue("password")) {
			slog.Warn("Rejected review login", "remote", r.RemoteAddr)
			s.render(w, http.StatusUnauthorized, "login", loginPage{
				Title:    s.opts.Title,
				Next:     next,
				Error:    "Incorrect password. Please try again.",
				Disabled: s.opts.AdminPassword == "",
			})
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     reviewCookie,
			Value:    reviewToken(s.opts.AdminPassword),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// handlePostLogout clears the review cookie.
func (s *Server) handlePostLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: reviewCookie, Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// reviewPage is the data behind the "review" and "review_list" templates.
type reviewPage struct {
	Title      string
	Show       string
	Shows      []string
	StaffNames []string
	Filter     review.Filter
	Sections   []review.Section
	Total      int
	Shown      int
	Message    string
	Error      string
}

func (s *Server) buildReview(r *http.Request, show string, f review.Filter) (*reviewPage, error) {
	ctx := r.Context()
	routines, err := s.registry.Catalog(ctx, show)
	if err != nil {
		return nil, err
	}
	names, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	page := &reviewPage{Title: s.opts.Title, Show: show, Shows: names, Filter: f}
	buckets, err := s.notes.Load(ctx, show)
	if err != nil {
		page.Error = "Error loading notes: " + err.Error()
	}
	page.StaffNames = review.StaffNames(buckets)
	page.Total = buckets.Count()
	page.Sections = review.Build(routines, buckets, f)
	page.Shown = review.Count(page.Sections)
	return page, nil
}

func filterFrom(values url.Values) review.Filter {
	return review.Filter{Staff: values.Get("staff"), Query: values.Get("q")}
}

// handleGetReview renders every note of a show, filtered and searched.
func (s *Server) handleGetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show := r.PathValue("show")
		page, err := s.buildReview(r, show, filterFrom(r.URL.Query()))
		if err != nil {
			s.renderEntryError(w, r, show, err)
			return
		}
		switch r.URL.Query().Get("msg") {
		case "deleted":
			page.Message = "Note deleted successfully!"
		case "gone":
			page.Error = "That note was already deleted."
		}
		s.render(w, http.StatusOK, "review", page)
	}
}

// handleDeleteNote deletes a note by id. HTMX requests get the re-rendered list.
func (s *Server) handleDeleteNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show := r.PathValue("show")
		key := r.PostFormValue("key")
		id := r.PostFormValue("id")
		f := review.Filter{Staff: r.PostFormValue("staff"), Query: r.PostFormValue("q")}

		msg := "deleted"
		err := s.notes.Delete(r.Context(), show, key, id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNoteNotFound):
			msg = "gone"
		default:
			slog.Error("Error deleting note", "show", show, "routine", key, "id", id, "error", err)
			http.Error(w, "Failed to delete note", http.StatusInternalServerError)
			return
		}

		if r.Header.Get("HX-Request") == "true" {
			page, err := s.buildReview(r, show, f)
			if err != nil {
				s.renderEntryError(w, r, show, err)
				return
			}
			if msg == "deleted" {
				page.Message = "Note deleted successfully!"
			} else {
				page.Error = "That note was already deleted."
			}
			s.render(w, http.StatusOK, "review_list", page)
			return
		}

		q := url.Values{"msg": {msg}}
		if f.Staff != "" {
			q.Set("staff", f.Staff)
		}
		if f.Query != "" {
			q.Set("q", f.Query)
		}
		http.Redirect(w, r, showURL(show, "review")+"?"+q.Encode(), http.StatusSeeOther)
	}
}

// handleExport streams the show's notes as a CSV download.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show := r.PathValue("show")
		ctx := r.Context()

		routines, err := s.registry.Catalog(ctx, show)
		if err != nil {
			s.renderEntryError(w, r, show, err)
			return
		}
		buckets, err := s.notes.Load(ctx, show)
		if err != nil {
			slog.Error("Error loading notes for export", "show", show, "error", err)
			http.Error(w, "Failed to load notes", http.StatusInternalServerError)
			return
		}

		cols := s.opts.Columns
		switch r.URL.Query().Get("staff") {
		case "0":
			cols.Staff = false
		case "1":
			cols.Staff = true
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(s.now())+`"`)
		if err := export.WriteCSV(w, routines, buckets, cols); err != nil {
			slog.Error("Error writing export", "show", show, "error", err)
		}
	}
}
