package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

// Searcher is the generative search seam used by POST /api/search-songs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.CandidateSong, error)
}

// API serves the JSON REST endpoints.
type API struct {
	library  *services.Library
	searcher Searcher
}

// NewAPI creates the JSON handlers. searcher may be nil, which makes search an upstream failure.
func NewAPI(library *services.Library, searcher Searcher) *API {
	return &API{library: library, searcher: searcher}
}

// Register mounts every endpoint on r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodPost, "/api/search-songs", http.HandlerFunc(a.searchSongs))

	r.Handle(http.MethodGet, "/api/songs", http.HandlerFunc(a.listSongs))
	r.Handle(http.MethodPost, "/api/songs", http.HandlerFunc(a.createSong))
	r.Handle(http.MethodGet, "/api/songs/{id}", http.HandlerFunc(a.getSong))
	r.Handle(http.MethodPut, "/api/songs/{id}", http.HandlerFunc(a.updateSong))
	r.Handle(http.MethodDelete, "/api/songs/{id}", http.HandlerFunc(a.deleteSong))

	r.Handle(http.MethodGet, "/api/chords", http.HandlerFunc(a.listChords))
	r.Handle(http.MethodGet, "/api/chords/match/{token}", http.HandlerFunc(a.matchChord))
	r.Handle(http.MethodGet, "/api/chords/{name}", http.HandlerFunc(a.getChord))

	r.Handler(apiNotFound{})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) searchSongs(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if a.searcher == nil {
		writeError(w, r, fmt.Errorf("%w: search backend not configured", shared.ErrUpstream))
		return
	}

	songs, err := a.searcher.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *API) listSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := a.library.SearchSongs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *API) getSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	song, err := a.library.GetSong(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (a *API) createSong(w http.ResponseWriter, r *http.Request) {
	var input models.CreateSong
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	song, err := a.library.CreateSong(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (a *API) updateSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var input models.UpdateSong
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	song, err := a.library.UpdateSong(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (a *API) deleteSong(w http.ResponseWriter, r *http.Request) {
	id, err := songID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.library.DeleteSong(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) listChords(w http.ResponseWriter, r *http.Request) {
	chords, err := a.library.ListChords(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chords)
}

func (a *API) getChord(w http.ResponseWriter, r *http.Request) {
	chord, err := a.library.GetChord(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chord)
}

func (a *API) matchChord(w http.ResponseWriter, r *http.Request) {
	match, err := a.library.MatchChord(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func songID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid song id %q", shared.ErrInvalidInput, raw)
	}
	// ids start at 1, so anything lower names a song that cannot exist.
	if id <= 0 {
		return 0, fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
	}
	return id, nil
}

// apiNotFound answers unknown /api paths with a JSON 404 instead of the mux's plain text page.
type apiNotFound struct{}

func (apiNotFound) Routes() []string {
	return []string{"/api/"}
}

func (apiNotFound) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody("Not found"))
}
