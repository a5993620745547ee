package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
)

const staffCookie = "staff"

// routineOption is one entry of the routine picker.
type routineOption struct {
	Index    int
	Label    string
	Selected bool
}

// entryPage is the data behind the "entry" template.
type entryPage struct {
	Title    string
	Show     string
	Shows    []string
	Options  []routineOption
	Index    int
	Prev     int
	Next     int
	Position int
	Total    int
	Routine  domain.Routine
	Label    string
	IsBreak  bool
	HasPrev  bool
	HasNext  bool
	Notes    []domain.Note
	Staff    string
	Draft    string
	Message  string
	Error    string
	Reviewer bool
}

// routineIndex clamps the request-scoped routine position to the catalog.
func routineIndex(i, total int) int {
	if i < 0 {
		return 0
	}
	if i >= total {
		return total - 1
	}
	return i
}

func staffFromCookie(r *http.Request) string {
	c, err := r.Cookie(staffCookie)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return v
}

// buildEntry assembles the entry page for routine index i of show.
func (s *Server) buildEntry(r *http.Request, show string, i int) (*entryPage, error) {
	ctx := r.Context()
	routines, err := s.registry.Catalog(ctx, show)
	if err != nil {
		return nil, err
	}
	if len(routines) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	names, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	i = routineIndex(i, len(routines))
	current := routines[i]
	page := &entryPage{
		Title:    s.opts.Title,
		Show:     show,
		Shows:    names,
		Index:    i,
		Prev:     i - 1,
		Next:     i + 1,
		Position: i + 1,
		Total:    len(routines),
		Routine:  current,
		Label:    catalog.DisplayLabel(current),
		IsBreak:  current.IsBreak(),
		HasPrev:  i > 0,
		HasNext:  i < len(routines)-1,
		Staff:    staffFromCookie(r),
		Reviewer: s.isReviewer(r),
	}
	for idx, rt := range routines {
		page.Options = append(page.Options, routineOption{Index: idx, Label: catalog.DisplayLabel(rt), Selected: idx == i})
	}

	if !current.IsBreak() {
		buckets, err := s.notes.Load(ctx, show)
		if err != nil {
			page.Error = "Error loading notes: " + err.Error()
		}
		page.Notes = buckets[current.Key()]
	}
	return page, nil
}

// handleGetEntry renders the note entry form for one routine.
func (s *Server) handleGetEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show := r.PathValue("show")
		i, _ := strconv.Atoi(r.URL.Query().Get("i"))

		page, err := s.buildEntry(r, show, i)
		if err != nil {
			s.renderEntryError(w, r, show, err)
			return
		}
		if r.URL.Query().Get("saved") == "1" {
			page.Message = "Note saved!"
		}
		s.render(w, http.StatusOK, "entry", page)
	}
}

// handlePostNote saves a note for the routine at the submitted index.
func (s *Server) handlePostNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		show := r.PathValue("show")
		i, _ := strconv.Atoi(r.PostFormValue("i"))
		staff := r.PostFormValue("staff")
		text := r.PostFormValue("note")

		page, err := s.buildEntry(r, show, i)
		if err != nil {
			s.renderEntryError(w, r, show, err)
			return
		}
		page.Staff = staff
		page.Draft = text

		if page.IsBreak {
			page.Error = "No notes needed for the break."
			s.render(w, http.StatusBadRequest, "entry", page)
			return
		}

		if _, err := s.notes.Append(r.Context(), show, page.Routine.Key(), staff, text); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, domain.ErrEmptyStaff):
				page.Error = "Please enter your name."
				status = http.StatusBadRequest
			case errors.Is(err, domain.ErrEmptyText):
				page.Error = "Please enter a note."
				status = http.StatusBadRequest
			default:
				slog.Error("Error saving note", "show", show, "routine", page.Routine.Key(), "error", err)
				page.Error = "Error saving note, please try again: " + err.Error()
			}
			s.render(w, status, "entry", page)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     staffCookie,
			Value:    url.QueryEscape(page.Staff),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   30 * 24 * 60 * 60,
		})
		http.Redirect(w, r, showURL(show)+"?i="+strconv.Itoa(page.Index)+"&saved=1", http.StatusSeeOther)
	}
}

func (s *Server) renderEntryError(w http.ResponseWriter, r *http.Request, show string, err error) {
	if domain.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	slog.Error("Error building entry page", "show", show, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
