package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/repositories"
	"github.com/desertthunder/tabx/internal/server"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
	"github.com/desertthunder/tabx/internal/tasks"
	tu "github.com/desertthunder/tabx/internal/testing"
)

func newTestLibrary(t *testing.T) *services.Library {
	t.Helper()
	db := tu.NewTestDB(t)
	return services.NewLibrary(
		repositories.NewSongRepository(db), repositories.NewChordRepository(db), nil, shared.NewLogger(io.Discard),
	)
}

func newTestRunner(t *testing.T, library *services.Library, gen services.Generator) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		Logger:    shared.NewLogger(io.Discard),
		Output:    output,
		Library:   library,
		Generator: gen,
	}), output
}

// run executes args as a fresh tabx command line against r.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "tabx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"tabx"}, args...))
}

func decodeOutput[T any](t *testing.T, out *bytes.Buffer) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode output %q: %v", out.String(), err)
	}
	out.Reset()
	return v
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}
			gen := &tu.MockGenerator{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
				Generator:  gen,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.generator != gen {
				t.Error("expected generator to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("SetLogger ignores nil", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			before := runner.logger
			runner.SetLogger(nil)
			if runner.logger != before {
				t.Error("expected logger to be unchanged")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		names := map[string]bool{}
		for _, cmd := range runner.register() {
			if cmd == nil {
				t.Fatal("nil command registered")
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "serve", "songs", "chords", "search", "status", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("useTable is false for buffers", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil, nil)
		if runner.useTable(&cli.Command{}) {
			t.Error("expected JSON output when stdout is not a terminal")
		}
	})
}

func TestSongsCommands(t *testing.T) {
	t.Run("add, list, show, edit and delete", func(t *testing.T) {
		runner, out := newTestRunner(t, newTestLibrary(t), nil)

		err := run(t, runner, "songs", "add",
			"--title", "Wonderwall", "--artist", "Oasis", "--key", "F#m", "--bpm", "87",
			"--duration", "4:18", "--tab", `Em7 G\nToday is gonna be the day`)
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		added := decodeOutput[models.Song](t, out)
		if added.ID == 0 || added.Title != "Wonderwall" {
			t.Fatalf("unexpected song %+v", added)
		}
		if added.DurationSeconds == nil || *added.DurationSeconds != 258 {
			t.Errorf("expected 258 seconds, got %v", added.DurationSeconds)
		}
		if added.TabContent != "Em7 G\nToday is gonna be the day" {
			t.Errorf("expected escaped newline to be expanded, got %q", added.TabContent)
		}

		if err := run(t, runner, "songs", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if listed := decodeOutput[[]models.Song](t, out); len(listed) != 1 {
			t.Fatalf("expected 1 song, got %d", len(listed))
		}

		id := itoa(added.ID)
		if err := run(t, runner, "songs", "show", "--format", "markdown", id); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out.String(), "# Wonderwall") || !strings.Contains(out.String(), "## Chords") {
			t.Errorf("expected markdown export, got %q", out.String())
		}
		out.Reset()

		if err := run(t, runner, "songs", "edit", "--bpm", "90", id); err != nil {
			t.Fatalf("edit failed: %v", err)
		}
		edited := decodeOutput[models.Song](t, out)
		if edited.BPM == nil || *edited.BPM != 90 || edited.Title != "Wonderwall" {
			t.Errorf("expected only bpm to change, got %+v", edited)
		}

		if err := run(t, runner, "songs", "delete", id); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if !strings.Contains(out.String(), "Deleted song #"+id) {
			t.Errorf("unexpected delete output %q", out.String())
		}

		err = run(t, runner, "songs", "show", id)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("add reads the tab from stdin", func(t *testing.T) {
		runner, out := newTestRunner(t, newTestLibrary(t), nil)
		runner.input = strings.NewReader("G D Am\nline\n\n")

		if err := run(t, runner, "songs", "add", "-t", "Stdin", "-a", "Pipe", "--file", "-"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if song := decodeOutput[models.Song](t, out); song.TabContent != "G D Am\nline" {
			t.Errorf("unexpected tab %q", song.TabContent)
		}
	})

	t.Run("add reports field errors", func(t *testing.T) {
		runner, _ := newTestRunner(t, newTestLibrary(t), nil)

		err := run(t, runner, "songs", "add", "--artist", "Nobody", "--tab", "G", "--bpm", "300")
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		fields := shared.FieldErrors(err)
		if _, ok := fields["title"]; !ok {
			t.Errorf("expected title error, got %v", fields)
		}
		if _, ok := fields["bpm"]; !ok {
			t.Errorf("expected bpm error, got %v", fields)
		}
	})

	t.Run("argument errors", func(t *testing.T) {
		runner, _ := newTestRunner(t, newTestLibrary(t), nil)

		if err := run(t, runner, "songs", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for bad id, got %v", err)
		}
		if err := run(t, runner, "songs", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for missing id, got %v", err)
		}
		if err := run(t, runner, "songs", "edit", "1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for empty edit, got %v", err)
		}
		if err := run(t, runner, "songs", "add", "--tab", "G", "--file", "x.txt"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for --tab with --file, got %v", err)
		}
		if err := run(t, runner, "songs", "show", "--format", "pdf", "1"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown format, got %v", err)
		}
	})

	t.Run("export and import round trip", func(t *testing.T) {
		source, out := newTestRunner(t, newTestLibrary(t), nil)
		for _, title := range []string{"One", "Two"} {
			if err := run(t, source, "songs", "add", "-t", title, "-a", "Band", "--tab", "G C\nwords"); err != nil {
				t.Fatalf("add failed: %v", err)
			}
		}
		out.Reset()

		dir := filepath.Join(t.TempDir(), "export")
		if err := run(t, source, "songs", "export", "--format", "text", "-o", dir, "--json"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		result := decodeOutput[tasks.BulkExportResult](t, out)
		if result.SuccessfulExports != 2 || result.FailedExports != 0 {
			t.Fatalf("unexpected export result %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, tasks.ManifestFile))

		target, out := newTestRunner(t, newTestLibrary(t), nil)
		if err := run(t, target, "songs", "import", dir); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(out.String(), "Imported: 2/2") {
			t.Errorf("unexpected import output %q", out.String())
		}
	})

	t.Run("export selected ids", func(t *testing.T) {
		runner, out := newTestRunner(t, newTestLibrary(t), nil)
		if err := run(t, runner, "songs", "add", "-t", "Only", "-a", "Band", "--tab", "G"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		song := decodeOutput[models.Song](t, out)

		dir := t.TempDir()
		if err := run(t, runner, "songs", "export", "--id", itoa(song.ID), "-o", dir); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out.String(), "Export Complete!") || !strings.Contains(out.String(), "Exported: 1/1") {
			t.Errorf("unexpected export output %q", out.String())
		}

		if err := run(t, runner, "songs", "export", "--id", "999", "-o", dir); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown id, got %v", err)
		}
	})
}

func TestChordsCommands(t *testing.T) {
	runner, out := newTestRunner(t, newTestLibrary(t), nil)

	t.Run("list", func(t *testing.T) {
		if err := run(t, runner, "chords", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		diagrams := decodeOutput[[]models.ChordDiagram](t, out)
		found := false
		for _, d := range diagrams {
			found = found || (d.ChordName == "G" && d.FretPositions == "320003")
		}
		if !found {
			t.Error("expected seeded G chord")
		}
	})

	t.Run("show", func(t *testing.T) {
		if err := run(t, runner, "chords", "show", "G"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if d := decodeOutput[models.ChordDiagram](t, out); d.FretPositions != "320003" {
			t.Errorf("unexpected diagram %+v", d)
		}

		if err := run(t, runner, "chords", "show", "H7"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("match simplifies", func(t *testing.T) {
		if err := run(t, runner, "chords", "match", "Cmaj7"); err != nil {
			t.Fatalf("match failed: %v", err)
		}
		match := decodeOutput[services.ChordMatch](t, out)
		if !match.Found || match.Diagram.ChordName != "C" {
			t.Errorf("expected Cmaj7 to resolve to C, got %+v", match)
		}
	})

	t.Run("match without diagram is not an error", func(t *testing.T) {
		if err := run(t, runner, "chords", "match", "Bdim"); err != nil {
			t.Fatalf("match failed: %v", err)
		}
		if match := decodeOutput[services.ChordMatch](t, out); match.Found {
			t.Errorf("expected no diagram for Bdim, got %+v", match)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	candidate := models.CandidateSong{
		Title:      "Champagne Supernova",
		Artist:     "Oasis",
		TabContent: "A Asus2\nSomeday you will find me",
	}

	t.Run("prints candidates", func(t *testing.T) {
		gen := &tu.MockGenerator{Songs: []models.CandidateSong{candidate}}
		runner, out := newTestRunner(t, newTestLibrary(t), gen)

		if err := run(t, runner, "search", "oasis ballads"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		got := decodeOutput[[]models.CandidateSong](t, out)
		if len(got) != 1 || got[0].Title != "Champagne Supernova" {
			t.Errorf("unexpected candidates %+v", got)
		}
		if gen.Calls() != 1 {
			t.Errorf("expected 1 generator call, got %d", gen.Calls())
		}
	})

	t.Run("saves a candidate", func(t *testing.T) {
		gen := &tu.MockGenerator{Songs: []models.CandidateSong{candidate}}
		library := newTestLibrary(t)
		runner, out := newTestRunner(t, library, gen)

		if err := run(t, runner, "search", "--save", "1", "oasis"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		saved := decodeOutput[models.Song](t, out)
		if saved.ID == 0 || saved.Artist != "Oasis" {
			t.Errorf("unexpected saved song %+v", saved)
		}

		songs, err := library.ListSongs(context.Background())
		if err != nil || len(songs) != 1 {
			t.Errorf("expected the candidate in the library, got %d songs (%v)", len(songs), err)
		}
	})

	t.Run("save out of range", func(t *testing.T) {
		gen := &tu.MockGenerator{Songs: []models.CandidateSong{candidate}}
		runner, _ := newTestRunner(t, newTestLibrary(t), gen)

		if err := run(t, runner, "search", "--save", "5", "oasis"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("without a backend", func(t *testing.T) {
		runner, _ := newTestRunner(t, newTestLibrary(t), nil)
		runner.config.Search.APIKey = ""

		if err := run(t, runner, "search", "anything"); !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		runner, _ := newTestRunner(t, newTestLibrary(t), &tu.MockGenerator{})

		if err := run(t, runner, "search", "   "); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	library := newTestLibrary(t)
	srv := httptest.NewServer(
		server.New(shared.DefaultConfig().Server, server.NewAPI(library, nil), shared.NewLogger(io.Discard)).Handler(),
	)
	defer srv.Close()

	t.Run("reachable", func(t *testing.T) {
		runner, out := newTestRunner(t, library, nil)
		if err := run(t, runner, "status", "--url", srv.URL); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out.String(), "server is up at "+srv.URL) {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()

		runner, _ := newTestRunner(t, library, nil)
		if err := run(t, runner, "status", "--url", closed.URL); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestAcquireLock(t *testing.T) {
	t.Run("second holder is refused", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tabx.db")

		unlock, err := acquireLock(dbPath)
		if err != nil {
			t.Fatalf("first lock failed: %v", err)
		}

		if _, err := acquireLock(dbPath); !errors.Is(err, shared.ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}

		unlock()
		again, err := acquireLock(dbPath)
		if err != nil {
			t.Fatalf("expected lock after release, got %v", err)
		}
		again()
	})

	t.Run("in-memory databases are not locked", func(t *testing.T) {
		for range 2 {
			unlock, err := acquireLock(":memory:")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer unlock()
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	t.Chdir(t.TempDir())

	runner, out := newTestRunner(t, nil, nil)
	if err := run(t, runner, "setup", "database", "--config", "tabx.toml"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, "tabx.toml")
	tu.AssertFileExists(t, "tabx.db")
	if !strings.Contains(out.String(), "Database ready at ./tabx.db") {
		t.Errorf("unexpected output %q", out.String())
	}

	// Running again keeps the file and finds nothing to migrate.
	out.Reset()
	if err := run(t, runner, "setup", "database", "--config", "tabx.toml"); err != nil {
		t.Fatalf("second setup failed: %v", err)
	}

	out.Reset()
	if err := run(t, runner, "setup", "rollback"); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if !strings.Contains(out.String(), "Rolled back to schema v1") {
		t.Errorf("unexpected rollback output %q", out.String())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "4:18", want: 258},
		{in: "0:59", want: 59},
		{in: "245", want: 245},
		{in: " 90 ", want: 90},
		{in: "4:60", wantErr: true},
		{in: "four", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseDuration(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	bpm := 120
	out := songTable([]models.Song{{ID: 3, Title: "Creep", Artist: "Radiohead", BPM: &bpm}})

	for _, want := range []string{"ID", "Title", "Creep", "Radiohead", "120", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q:\n%s", want, out)
		}
	}

	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty table without headers")
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
