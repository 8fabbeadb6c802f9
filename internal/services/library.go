package services

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tabx/internal/catalog"
	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
)

// Library composes song and chord storage with the full-text catalog and the chord matcher.
type Library struct {
	songs   SongStore
	chords  ChordStore
	catalog *catalog.Catalog
	logger  *log.Logger

	mu      sync.Mutex
	matcher *chords.Matcher
}

// NewLibrary creates a Library. cat may be nil, in which case text search falls back to a substring scan.
func NewLibrary(songs SongStore, chordStore ChordStore, cat *catalog.Catalog, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Library{songs: songs, chords: chordStore, catalog: cat, logger: logger}
}

func (l *Library) ListSongs(ctx context.Context) ([]models.Song, error) {
	return l.songs.List(ctx)
}

func (l *Library) GetSong(ctx context.Context, id int64) (models.Song, error) {
	return l.songs.Get(ctx, id)
}

// CreateSong stores a song and indexes it.
func (l *Library) CreateSong(ctx context.Context, input models.CreateSong) (models.Song, error) {
	song, err := l.songs.Create(ctx, input)
	if err != nil {
		return models.Song{}, err
	}
	l.index(song)
	return song, nil
}

// UpdateSong applies a partial update and re-indexes the song.
func (l *Library) UpdateSong(ctx context.Context, id int64, input models.UpdateSong) (models.Song, error) {
	song, err := l.songs.Update(ctx, id, input)
	if err != nil {
		return models.Song{}, err
	}
	l.index(song)
	return song, nil
}

// DeleteSong removes a song and its index entry.
func (l *Library) DeleteSong(ctx context.Context, id int64) error {
	if err := l.songs.Delete(ctx, id); err != nil {
		return err
	}
	if l.catalog != nil {
		if err := l.catalog.Remove(id); err != nil {
			l.logger.Warn("catalog remove failed", "song", id, "error", err)
		}
	}
	return nil
}

// SearchSongs returns songs matching q, best match first. A blank q lists every song.
func (l *Library) SearchSongs(ctx context.Context, q string) ([]models.Song, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return l.songs.List(ctx)
	}

	if l.catalog == nil {
		return l.scan(ctx, q)
	}

	ids, err := l.catalog.Search(q, catalog.DefaultLimit)
	if err != nil {
		l.logger.Warn("catalog search failed, scanning instead", "query", q, "error", err)
		return l.scan(ctx, q)
	}
	return l.songs.GetMany(ctx, ids)
}

// Reindex rebuilds the catalog from storage and returns the number of indexed songs.
func (l *Library) Reindex(ctx context.Context) (int, error) {
	if l.catalog == nil {
		return 0, nil
	}
	songs, err := l.songs.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := l.catalog.Rebuild(songs); err != nil {
		return 0, err
	}
	return len(songs), nil
}

func (l *Library) ListChords(ctx context.Context) ([]models.ChordDiagram, error) {
	return l.chords.List(ctx)
}

func (l *Library) GetChord(ctx context.Context, name string) (models.ChordDiagram, error) {
	return l.chords.GetByName(ctx, name)
}

// Matcher returns the chord matcher, loading the diagrams on first use.
func (l *Library) Matcher(ctx context.Context) (*chords.Matcher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.matcher != nil {
		return l.matcher, nil
	}

	diagrams, err := l.chords.List(ctx)
	if err != nil {
		return nil, err
	}
	l.matcher = chords.NewMatcher(diagrams)
	return l.matcher, nil
}

// MatchChord resolves a single token. Not finding a diagram is reported through Found, not as an error.
func (l *Library) MatchChord(ctx context.Context, token string) (ChordMatch, error) {
	m, err := l.Matcher(ctx)
	if err != nil {
		return ChordMatch{}, err
	}

	result := ChordMatch{Token: token}
	if d, ok := m.Match(token); ok {
		result.Diagram = &d
		result.Found = true
	}
	return result, nil
}

// ChordSheet resolves every distinct chord token of song in order of first appearance.
func (l *Library) ChordSheet(ctx context.Context, song models.Song) ([]ChordEntry, error) {
	m, err := l.Matcher(ctx)
	if err != nil {
		return nil, err
	}
	return BuildChordSheet(song.TabContent, m), nil
}

// BuildChordSheet resolves the distinct chord tokens of tab with m.
func BuildChordSheet(tab string, m *chords.Matcher) []ChordEntry {
	tokens := chords.Unique(tab)
	entries := make([]ChordEntry, 0, len(tokens))
	for _, tok := range tokens {
		entry := ChordEntry{Token: tok}
		if d, ok := m.Match(tok); ok {
			entry.Diagram = &d
		}
		entries = append(entries, entry)
	}
	return entries
}

func (l *Library) index(song models.Song) {
	if l.catalog == nil {
		return
	}
	if err := l.catalog.Index(song); err != nil {
		l.logger.Warn("catalog index failed", "song", song.ID, "error", err)
	}
}

func (l *Library) scan(ctx context.Context, q string) ([]models.Song, error) {
	songs, err := l.songs.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(q)
	matched := []models.Song{}
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), needle) || strings.Contains(strings.ToLower(s.Artist), needle) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
