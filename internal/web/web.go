// Package web serves a small server-rendered HTML viewer for the song library.
//
// Routes
//
//	GET /            song list, filtered by ?q=
//	GET /songs/{id}  tab view
//
// The tab view splits every line into plain text and chord tokens. Each chord span carries the token's
// resolved fingering diagram in its title attribute, and the page closes with a chord sheet of every distinct
// token. Templates are embedded with the binary.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/server"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// Viewer implements [server.Handler] for the HTML pages.
type Viewer struct {
	library *services.Library
	tmpl    *template.Template
}

var _ server.Handler = (*Viewer)(nil)

// NewViewer parses the embedded templates.
func NewViewer(library *services.Library) (*Viewer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"deref":    derefString,
		"bpm":      formatBPM,
		"duration": formatDuration,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Viewer{library: library, tmpl: tmpl}, nil
}

func (v *Viewer) Routes() []string {
	return []string{"GET /{$}", "GET /songs/{id}"}
}

func (v *Viewer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != "" {
		v.song(w, r)
		return
	}
	v.index(w, r)
}

type indexPage struct {
	Query string
	Songs []models.Song
}

func (v *Viewer) index(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	songs, err := v.library.SearchSongs(r.Context(), q)
	if err != nil {
		v.fail(w, r, err)
		return
	}
	v.render(w, r, http.StatusOK, "index.html", indexPage{Query: q, Songs: songs})
}

// Fragment is a piece of a rendered tab line.
type Fragment struct {
	Text    string
	Chord   bool
	Found   bool
	Diagram string
}

// SheetEntry is one row of the chord sheet.
type SheetEntry struct {
	Token   string
	Found   bool
	Diagram string
}

type songPage struct {
	Song  models.Song
	Lines [][]Fragment
	Sheet []SheetEntry
}

func (v *Viewer) song(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		v.fail(w, r, fmt.Errorf("%w: invalid song id", shared.ErrInvalidInput))
		return
	}
	if id <= 0 {
		v.fail(w, r, fmt.Errorf("%w: song %d", shared.ErrNotFound, id))
		return
	}

	song, err := v.library.GetSong(r.Context(), id)
	if err != nil {
		v.fail(w, r, err)
		return
	}
	m, err := v.library.Matcher(r.Context())
	if err != nil {
		v.fail(w, r, err)
		return
	}

	v.render(w, r, http.StatusOK, "song.html", buildPage(song, m))
}

// buildPage splits song into annotated lines and its chord sheet.
func buildPage(song models.Song, m *chords.Matcher) songPage {
	page := songPage{Song: song}

	for _, line := range strings.Split(strings.ReplaceAll(song.TabContent, "\r", ""), "\n") {
		parts := chords.Split(line)
		frags := make([]Fragment, 0, len(parts))
		for _, p := range parts {
			f := Fragment{Text: p.Text, Chord: p.Chord}
			if p.Chord {
				if d, ok := m.Match(p.Text); ok {
					f.Found = true
					f.Diagram = chords.Render(d)
				}
			}
			frags = append(frags, f)
		}
		page.Lines = append(page.Lines, frags)
	}

	for _, entry := range services.BuildChordSheet(song.TabContent, m) {
		row := SheetEntry{Token: entry.Token}
		if entry.Diagram != nil {
			row.Found = true
			row.Diagram = chords.Render(*entry.Diagram)
		}
		page.Sheet = append(page.Sheet, row)
	}
	return page
}

type errorPage struct {
	Status    int
	Message   string
	RequestID string
}

func (v *Viewer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := server.StatusFor(err)
	msg := http.StatusText(status)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		msg = "Song not found"
	case status == http.StatusBadRequest:
		msg = err.Error()
	default:
		log.FromContext(r.Context()).Error("page failed", "path", r.URL.Path, "error", err)
	}
	v.render(w, r, status, "error.html", errorPage{
		Status:    status,
		Message:   msg,
		RequestID: server.RequestIDFrom(r.Context()),
	})
}

// render executes into a buffer first so a template error never leaves a half-written page.
func (v *Viewer) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).Error("template failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatBPM(b *int) string {
	if b == nil {
		return ""
	}
	return strconv.Itoa(*b) + " bpm"
}

func formatDuration(d *int) string {
	if d == nil {
		return ""
	}
	return shared.FormatDuration(*d)
}
