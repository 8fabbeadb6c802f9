package ui

import (
	"context"
	"slices"
	"sync"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/services"
)

// API is the part of the REST client the TUI talks to.
type API interface {
	ListSongs(ctx context.Context, q string) ([]models.Song, error)
	CreateSong(ctx context.Context, input models.CreateSong) (models.Song, error)
	DeleteSong(ctx context.Context, id int64) error
	ListChords(ctx context.Context) ([]models.ChordDiagram, error)
	SearchSongs(ctx context.Context, query string) ([]models.CandidateSong, error)
}

var _ API = (*services.APIService)(nil)

// Session is the TUI view-model: the song list, the chord dictionary, search candidates and the last error.
//
// Operations block on the API and are safe to call from commands while the model reads snapshots.
// A failed operation records its error and leaves the data as it was. The error stays until the
// same operation succeeds or it is dismissed, so overlapping operations cannot erase it.
type Session struct {
	api API

	mu         sync.RWMutex
	songs      []models.Song
	candidates []models.CandidateSong
	matcher    *chords.Matcher
	pending    int
	failures   []failure
}

type op string

const (
	opLoadSongs  op = "load songs"
	opLoadChords op = "load chords"
	opAddSong    op = "add song"
	opDeleteSong op = "delete song"
	opSearch     op = "search"
)

type failure struct {
	op  op
	err error
}

func NewSession(api API) *Session {
	return &Session{api: api, songs: []models.Song{}, matcher: chords.NewMatcher(nil)}
}

// LoadSongs replaces the song list.
func (s *Session) LoadSongs(ctx context.Context) error {
	s.begin()
	songs, err := s.api.ListSongs(ctx, "")
	return s.end(opLoadSongs, err, func() { s.songs = songs })
}

// LoadChords replaces the chord dictionary used by the viewer.
func (s *Session) LoadChords(ctx context.Context) error {
	s.begin()
	diagrams, err := s.api.ListChords(ctx)
	return s.end(opLoadChords, err, func() { s.matcher = chords.NewMatcher(diagrams) })
}

// AddSong saves input and puts the new song at the top of the list.
func (s *Session) AddSong(ctx context.Context, input models.CreateSong) (models.Song, error) {
	s.begin()
	song, err := s.api.CreateSong(ctx, input)
	return song, s.end(opAddSong, err, func() { s.songs = append([]models.Song{song}, s.songs...) })
}

// DeleteSong removes the song remotely and from the list.
func (s *Session) DeleteSong(ctx context.Context, id int64) error {
	s.begin()
	err := s.api.DeleteSong(ctx, id)
	return s.end(opDeleteSong, err, func() {
		s.songs = slices.DeleteFunc(slices.Clone(s.songs), func(song models.Song) bool { return song.ID == id })
	})
}

// Search asks the generative backend for candidates. They are kept until the next search and never saved.
func (s *Session) Search(ctx context.Context, query string) error {
	s.begin()
	found, err := s.api.SearchSongs(ctx, query)
	return s.end(opSearch, err, func() { s.candidates = found })
}

func (s *Session) Songs() []models.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.songs)
}

func (s *Session) Candidates() []models.CandidateSong {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.candidates)
}

func (s *Session) Matcher() *chords.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher
}

// Loading reports whether any operation is still in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// Err returns the most recent failure that has not been cleared, nil when there is none.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.failures) == 0 {
		return nil
	}
	return s.failures[len(s.failures)-1].err
}

// ClearErr dismisses every recorded error.
func (s *Session) ClearErr() {
	s.mu.Lock()
	s.failures = nil
	s.mu.Unlock()
}

func (s *Session) begin() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

func (s *Session) end(o op, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	s.failures = slices.DeleteFunc(s.failures, func(f failure) bool { return f.op == o })
	if err != nil {
		s.failures = append(s.failures, failure{op: o, err: err})
		return err
	}
	apply()
	return nil
}
