package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/export"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Registry is the show list the server reads and edits.
type Registry interface {
	List(ctx context.Context) ([]string, error)
	Shows(ctx context.Context) ([]domain.Show, error)
	Catalog(ctx context.Context, name string) ([]domain.Routine, error)
	Create(ctx context.Context, name, rawRoutines string) (domain.Show, error)
	Delete(ctx context.Context, name, confirmation string) error
}

// Notes is the notes store the server reads and edits.
type Notes interface {
	Load(ctx context.Context, show string) (domain.Buckets, error)
	Append(ctx context.Context, show, routineKey, staff, text string) (domain.Note, error)
	Delete(ctx context.Context, show, routineKey, id string) error
}

// Options configures the server.
type Options struct {
	// AdminPassword gates the review and show management pages. Empty disables them.
	AdminPassword string
	Columns       export.Columns
	Title         string
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	registry  Registry
	notes     Notes
	opts      Options
	router    *http.ServeMux
	templates *template.Template
	now       func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(registry Registry, notes Notes, opts Options) (*Server, error) {
	if opts.Title == "" {
		opts.Title = "Staff Show Notes"
	}

	tpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		registry:  registry,
		notes:     notes,
		opts:      opts,
		router:    http.NewServeMux(),
		templates: tpl,
		now:       time.Now,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

var templateFuncs = template.FuncMap{
	"showURL": showURL,
	"plural": func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	},
}

func showURL(show string, parts ...string) string {
	u := "/shows/" + url.PathEscape(show)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	s.router.HandleFunc("GET /{$}", s.handleIndex())

	// Note entry
	s.router.HandleFunc("GET /shows/{show}", s.handleGetEntry())
	s.router.HandleFunc("POST /shows/{show}/notes", s.handlePostNote())

	// Review, behind the shared password
	s.router.HandleFunc("GET /review/login", s.handleGetLogin())
	s.router.HandleFunc("POST /review/login", s.handlePostLogin())
	s.router.HandleFunc("POST /review/logout", s.handlePostLogout())
	s.router.Handle("GET /shows/{show}/review", s.requireReviewer(s.handleGetReview()))
	s.router.Handle("POST /shows/{show}/notes/delete", s.requireReviewer(s.handleDeleteNote()))
	s.router.Handle("GET /shows/{show}/export.csv", s.requireReviewer(s.handleExport()))

	// Show management
	s.router.Handle("GET /admin/shows", s.requireReviewer(s.handleGetShows()))
	s.router.Handle("POST /admin/shows", s.requireReviewer(s.handlePostShow()))
	s.router.Handle("POST /admin/shows/delete", s.requireReviewer(s.handleDeleteShow()))
	return nil
}

// render executes a named template, logging failures the client cannot see.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Error rendering template", "template", name, "error", err)
	}
}

// handleIndex sends visitors to the chosen show, or the first one.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if show := r.URL.Query().Get("show"); show != "" {
			http.Redirect(w, r, showURL(show), http.StatusSeeOther)
			return
		}
		names, err := s.registry.List(r.Context())
		if err != nil || len(names) == 0 {
			slog.Error("Error listing shows", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, showURL(names[0]), http.StatusSeeOther)
	}
}
