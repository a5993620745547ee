package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/conorfennell/shownotes/internal/export"
	"github.com/conorfennell/shownotes/internal/notes"
	"github.com/conorfennell/shownotes/internal/registry"
)

const (
	testShow     = "Comp Show 2026"
	testPassword = "encore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	server   *Server
	registry *registry.Registry
	notes    *notes.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	svc := notes.NewService(notes.NewFileBackend(filepath.Join(dir, "notes"), nil))
	reg := registry.New(filepath.Join(dir, "shows.json"), testShow, svc)

	srv, err := NewServer(reg, svc, Options{AdminPassword: testPassword, Columns: export.DefaultColumns})
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return &fixture{server: srv, registry: reg, notes: svc}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withReviewer(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: reviewCookie, Value: reviewToken(testPassword)})
	return req
}

func TestIndexRedirectsToFirstShow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shows/Comp%20Show%202026", rec.Header().Get("Location"))

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/?show=Spring", nil))
	assert.Equal(t, "/shows/Spring", rec.Header().Get("Location"))
}

func TestEntryPage(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"first routine", "/shows/Comp%20Show%202026", http.StatusOK, "#1 - "},
		{"clamped high", "/shows/Comp%20Show%202026?i=9999", http.StatusOK, "Next &rarr;</span>"},
		{"break", "/shows/Comp%20Show%202026?i=45", http.StatusOK, "No notes needed for the break."},
		{"saved banner", "/shows/Comp%20Show%202026?saved=1", http.StatusOK, "Note saved!"},
		{"unknown show", "/shows/Nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestPostNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, postForm("/shows/Comp%20Show%202026/notes", url.Values{
		"i": {"2"}, "staff": {"Jamie"}, "note": {"Watch the spacing"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shows/Comp%20Show%202026?i=2&saved=1", rec.Header().Get("Location"))

	var staff *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == staffCookie {
			staff = c
		}
	}
	require.NotNil(t, staff)
	assert.Equal(t, "Jamie", staff.Value)

	buckets, err := f.notes.Load(ctx, testShow)
	require.NoError(t, err)
	require.Len(t, buckets["#3"], 1)
	assert.Equal(t, "Watch the spacing", buckets["#3"][0].Text)

	// The saved note shows up on the entry page.
	req := httptest.NewRequest(http.MethodGet, "/shows/Comp%20Show%202026?i=2", nil)
	req.AddCookie(staff)
	rec = f.do(t, req)
	assert.Contains(t, rec.Body.String(), "Watch the spacing")
	assert.Contains(t, rec.Body.String(), `value="Jamie"`)
}

func TestPostNoteValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing staff", url.Values{"i": {"0"}, "staff": {"  "}, "note": {"ok"}}, "Please enter your name."},
		{"missing note", url.Values{"i": {"0"}, "staff": {"Jamie"}, "note": {""}}, "Please enter a note."},
		{"break", url.Values{"i": {"45"}, "staff": {"Jamie"}, "note": {"x"}}, "No notes needed for the break."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, postForm("/shows/Comp%20Show%202026/notes", tt.form))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	buckets, err := f.notes.Load(context.Background(), testShow)
	require.NoError(t, err)
	assert.Zero(t, buckets.Count())
}

func TestReviewRequiresLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/shows/Comp%20Show%202026/review", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/review/login?next=%2Fshows%2FComp%2520Show%25202026%2Freview", rec.Header().Get("Location"))

	rec = f.do(t, postForm("/shows/Comp%20Show%202026/notes/delete", url.Values{"key": {"#1"}, "id": {"x"}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, postForm("/review/login", url.Values{"password": {"wrong"}, "next": {"/admin/shows"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect password")

	rec = f.do(t, postForm("/review/login", url.Values{"password": {testPassword}, "next": {"//evil.example"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, reviewToken(testPassword), cookies[0].Value)
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	f := newFixture(t)
	f.server.opts.AdminPassword = ""

	rec := f.do(t, postForm("/review/login", url.Values{"password": {""}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review is disabled")
}

func TestReviewAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keep, err := f.notes.Append(ctx, testShow, "#1", "Jamie", "Great energy")
	require.NoError(t, err)
	gone, err := f.notes.Append(ctx, testShow, "#2", "Alex", "Late entrance")
	require.NoError(t, err)

	rec := f.do(t, withReviewer(httptest.NewRequest(http.MethodGet, "/shows/Comp%20Show%202026/review?staff=Alex", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Late entrance")
	assert.NotContains(t, body, "Great energy")
	assert.Contains(t, body, "Showing 1 of 2 notes")

	req := withReviewer(postForm("/shows/Comp%20Show%202026/notes/delete", url.Values{"key": {"#2"}, "id": {gone.ID}}))
	req.Header.Set("HX-Request", "true")
	rec = f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Note deleted successfully!")
	assert.NotContains(t, rec.Body.String(), "<html")

	buckets, err := f.notes.Load(ctx, testShow)
	require.NoError(t, err)
	assert.Equal(t, 1, buckets.Count())
	assert.Equal(t, keep.ID, buckets["#1"][0].ID)

	// Deleting again is a soft failure.
	rec = f.do(t, withReviewer(postForm("/shows/Comp%20Show%202026/notes/delete", url.Values{"key": {"#2"}, "id": {gone.ID}})))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shows/Comp%20Show%202026/review?msg=gone", rec.Header().Get("Location"))
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	_, err := f.notes.Append(context.Background(), testShow, "#1", "Jamie", "Great energy")
	require.NoError(t, err)

	rec := f.do(t, withReviewer(httptest.NewRequest(http.MethodGet, "/shows/Comp%20Show%202026/export.csv", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="show_notes_backup_20260314_093000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Great energy")
	assert.Contains(t, rec.Body.String(), "Jamie")

	rec = f.do(t, withReviewer(httptest.NewRequest(http.MethodGet, "/shows/Comp%20Show%202026/export.csv?staff=0", nil)))
	assert.NotContains(t, rec.Body.String(), "Jamie")
}

func TestManageShows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, withReviewer(postForm("/admin/shows", url.Values{
		"name": {"Spring Recital"}, "routines": {"Opening | Everyone\nBREAK\nFinale - Seniors"},
	})))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	routines, err := f.registry.Catalog(ctx, "Spring Recital")
	require.NoError(t, err)
	require.Len(t, routines, 3)
	assert.True(t, routines[1].IsBreak())

	rec = f.do(t, withReviewer(postForm("/admin/shows", url.Values{"name": {"Spring Recital"}, "routines": {"A | B"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = f.do(t, withReviewer(postForm("/admin/shows/delete", url.Values{"name": {"Spring Recital"}, "confirm": {"spring recital"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Type the show name exactly")

	rec = f.do(t, withReviewer(postForm("/admin/shows/delete", url.Values{"name": {"Spring Recital"}, "confirm": {"Spring Recital"}})))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	names, err := f.registry.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testShow}, names)

	rec = f.do(t, withReviewer(httptest.NewRequest(http.MethodGet, "/admin/shows?msg=deleted", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Show deleted.")
}
