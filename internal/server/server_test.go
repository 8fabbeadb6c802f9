package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/repositories"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
	tu "github.com/desertthunder/tabx/internal/testing"
)

func newTestServer(t *testing.T, gen services.Generator) http.Handler {
	t.Helper()
	db := tu.NewTestDB(t)
	logger := shared.NewLogger(io.Discard)

	lib := services.NewLibrary(repositories.NewSongRepository(db), repositories.NewChordRepository(db), nil, logger)
	var searcher Searcher
	if gen != nil {
		searcher = services.NewSearchProxy(gen, 0, logger)
	}
	return New(shared.DefaultConfig().Server, NewAPI(lib, searcher), logger).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

const (
	validSong = `{"title":"Hallelujah","artist":"Leonard Cohen","tab_content":"C Am C Am\nI heard there was a secret chord","bpm":70}`
	slowSong  = `{"title":"Hallelujah","artist":"Leonard Cohen","tab_content":"C Am C Am\nI heard there was a secret chord","bpm":56}`
)

func TestSongEndpoints(t *testing.T) {
	t.Run("CreateGetListDelete", func(t *testing.T) {
		h := newTestServer(t, nil)

		rec := do(t, h, http.MethodPost, "/api/songs", validSong)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		created := decode[models.Song](t, rec)
		if created.ID == 0 || created.Title != "Hallelujah" {
			t.Fatalf("unexpected song %+v", created)
		}

		path := "/api/songs/" + itoa(created.ID)
		rec = do(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := decode[models.Song](t, rec); got.BPM == nil || *got.BPM != 70 {
			t.Errorf("expected bpm 70, got %v", got.BPM)
		}

		rec = do(t, h, http.MethodGet, "/api/songs", "")
		if songs := decode[[]models.Song](t, rec); len(songs) != 1 {
			t.Errorf("expected 1 song, got %d", len(songs))
		}

		rec = do(t, h, http.MethodDelete, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp := decode[map[string]bool](t, rec); !resp["success"] {
			t.Errorf("expected success true, got %v", resp)
		}

		if rec = do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
		if rec = do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})

	t.Run("NullOptionalFields", func(t *testing.T) {
		h := newTestServer(t, nil)
		rec := do(t, h, http.MethodPost, "/api/songs", `{"title":"T","artist":"A","tab_content":"C"}`)

		raw := decode[map[string]any](t, rec)
		for _, field := range []string{"key_signature", "bpm", "audio_url", "duration_seconds"} {
			v, ok := raw[field]
			if !ok || v != nil {
				t.Errorf("expected %s to be null, got %v (present=%v)", field, v, ok)
			}
		}
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		h := newTestServer(t, nil)

		rec := do(t, h, http.MethodPost, "/api/songs", slowSong)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for bpm 56, got %d", rec.Code)
		}
		resp := decode[services.ErrorResponse](t, rec)
		if resp.Fields["bpm"] == "" {
			t.Errorf("expected bpm field error, got %+v", resp)
		}
	})

	t.Run("MalformedBodies", func(t *testing.T) {
		h := newTestServer(t, nil)

		for _, body := range []string{`{`, `[]`, `{"title":"T","artist":"A","tab_content":"C","extra":1}`, `{"title":"T"} {}`} {
			rec := do(t, h, http.MethodPost, "/api/songs", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected 400, got %d", body, rec.Code)
			}
			if resp := decode[services.ErrorResponse](t, rec); resp.Error == "" {
				t.Errorf("body %q: expected error message", body)
			}
		}

		req := httptest.NewRequest(http.MethodPost, "/api/songs", http.NoBody)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("empty body: expected 400, got %d", rec.Code)
		}
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		h := newTestServer(t, nil)
		created := decode[models.Song](t, do(t, h, http.MethodPost, "/api/songs", `{"title":"Old","artist":"A","tab_content":"C"}`))
		path := "/api/songs/" + itoa(created.ID)

		rec := do(t, h, http.MethodPut, path, `{"title":"New"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		updated := decode[models.Song](t, rec)
		if updated.Title != "New" || updated.Artist != "A" {
			t.Errorf("unexpected update result %+v", updated)
		}

		if rec := do(t, h, http.MethodPut, "/api/songs/999", `{"title":"x"}`); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for missing song, got %d", rec.Code)
		}
		if rec := do(t, h, http.MethodPut, path, `{"bpm":500}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad bpm, got %d", rec.Code)
		}
	})

	t.Run("BadID", func(t *testing.T) {
		h := newTestServer(t, nil)
		if rec := do(t, h, http.MethodGet, "/api/songs/abc", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for non-numeric id, got %d", rec.Code)
		}
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			rec := do(t, h, method, "/api/songs/0", "")
			if rec.Code != http.StatusNotFound {
				t.Errorf("expected 404 for %s of id 0, got %d", method, rec.Code)
			}
			if resp := decode[services.ErrorResponse](t, rec); resp.Error == "" {
				t.Error("expected an error body")
			}
		}
	})

	t.Run("UnknownAPIPath", func(t *testing.T) {
		h := newTestServer(t, nil)
		rec := do(t, h, http.MethodGet, "/api/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if resp := decode[services.ErrorResponse](t, rec); resp.Error == "" {
			t.Error("expected JSON error body")
		}
	})
}

func TestChordEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("List", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/chords", "")
		chords := decode[[]models.ChordDiagram](t, rec)
		if len(chords) == 0 {
			t.Fatal("expected seeded chords")
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/chords/G", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if chord := decode[models.ChordDiagram](t, rec); chord.FretPositions != "320003" {
			t.Errorf("unexpected chord %+v", chord)
		}

		if rec := do(t, h, http.MethodGet, "/api/chords/H7", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Match", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/chords/match/Cmaj7", "")
		match := decode[services.ChordMatch](t, rec)
		if !match.Found || match.Diagram == nil || match.Diagram.ChordName != "C" {
			t.Errorf("expected Cmaj7 to resolve to C, got %+v", match)
		}

		rec = do(t, h, http.MethodGet, "/api/chords/match/Bdim", "")
		match = decode[services.ChordMatch](t, rec)
		if match.Found || match.Diagram != nil {
			t.Errorf("expected no diagram for Bdim, got %+v", match)
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("Candidates", func(t *testing.T) {
		gen := &tu.MockGenerator{Songs: []models.CandidateSong{{Title: "Wonderwall", Artist: "Oasis", TabContent: "Em7 G"}}}
		h := newTestServer(t, gen)

		rec := do(t, h, http.MethodPost, "/api/search-songs", `{"query":"oasis"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		songs := decode[[]models.CandidateSong](t, rec)
		if len(songs) != 1 || songs[0].Title != "Wonderwall" {
			t.Errorf("unexpected candidates %+v", songs)
		}

		list := decode[[]models.Song](t, do(t, h, http.MethodGet, "/api/songs", ""))
		if len(list) != 0 {
			t.Error("expected search not to persist candidates")
		}
	})

	t.Run("ZeroCandidates", func(t *testing.T) {
		h := newTestServer(t, &tu.MockGenerator{})
		rec := do(t, h, http.MethodPost, "/api/search-songs", `{"query":"nothing"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("expected empty JSON array, got %s", rec.Body.String())
		}
	})

	t.Run("Unconfigured", func(t *testing.T) {
		h := newTestServer(t, nil)
		rec := do(t, h, http.MethodPost, "/api/search-songs", `{"query":"x"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		h := newTestServer(t, &tu.MockGenerator{})
		rec := do(t, h, http.MethodPost, "/api/search-songs", `{"query":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestIDGenerated", func(t *testing.T) {
		h := newTestServer(t, nil)
		rec := do(t, h, http.MethodGet, "/health", "")
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("RequestIDPropagated", func(t *testing.T) {
		h := newTestServer(t, nil)
		id := shared.GenerateID()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Header().Get(RequestIDHeader) != id {
			t.Errorf("expected %s to be echoed, got %s", id, rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		var buf bytes.Buffer
		router.Use(RequestID(), Logging(shared.NewLogger(&buf)), Recover(shared.NewLogger(&buf)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "kaboom") {
			t.Error("expected panic to be logged")
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/only-get", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only-get", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
