// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

// NewTestDB opens an in-memory database with every migration applied. It is closed with the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// MockGenerator is a test double for [services.Generator]
type MockGenerator struct {
	mu      sync.Mutex
	Songs   []models.CandidateSong
	Err     error
	Queries []string
}

func (m *MockGenerator) Generate(ctx context.Context, query string) ([]models.CandidateSong, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.CandidateSong, len(m.Songs))
	copy(out, m.Songs)
	return out, nil
}

// Calls returns how many times Generate ran.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

type pendingFunc struct {
	delay     time.Duration
	f         func()
	cancelled bool
}

// ManualScheduler queues callbacks until the test fires them.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*pendingFunc
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &pendingFunc{delay: d, f: f}
	s.pending = append(s.pending, p)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		p.cancelled = true
	}
}

// Pending returns the number of callbacks that are neither fired nor cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pending {
		if !p.cancelled {
			n++
		}
	}
	return n
}

// LastDelay returns the delay of the most recently scheduled callback.
func (s *ManualScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return 0
	}
	return s.pending[len(s.pending)-1].delay
}

// Fire runs the oldest live callback. It reports false when nothing is pending.
func (s *ManualScheduler) Fire() bool {
	s.mu.Lock()
	var next *pendingFunc
	for len(s.pending) > 0 {
		p := s.pending[0]
		s.pending = s.pending[1:]
		if !p.cancelled {
			next = p
			break
		}
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// Captured returns every callback ever scheduled, cancelled or not, and forgets them. Calling one simulates a
// timer that fired after it was cancelled.
func (s *ManualScheduler) Captured() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := make([]func(), len(s.pending))
	for i, p := range s.pending {
		fs[i] = p.f
	}
	s.pending = nil
	return fs
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
