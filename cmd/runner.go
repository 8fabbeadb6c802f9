package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/catalog"
	"github.com/desertthunder/tabx/internal/repositories"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	library    *services.Library
	generator  services.Generator
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader

	// Library skips opening the configured database when set.
	Library *services.Library
	// Generator overrides the configured search backend.
	Generator services.Generator
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		library:    opts.Library,
		generator:  opts.Generator,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, songsCommand, chordsCommand, searchCommand, statusCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openLibrary returns the injected library or opens the configured database and catalog.
// The returned func releases whatever was opened.
func (r *Runner) openLibrary(ctx context.Context) (*services.Library, func(), error) {
	if r.library != nil {
		return r.library, func() {}, nil
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}

	cat, err := catalog.Open(r.config.Search.IndexPath)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	library := services.NewLibrary(
		repositories.NewSongRepository(db), repositories.NewChordRepository(db), cat, r.logger,
	)

	if r.config.Search.IndexPath == "" {
		if n, err := library.Reindex(ctx); err != nil {
			r.logger.Warn("failed to build search index", "error", err)
		} else {
			r.logger.Debug("search index built", "songs", n)
		}
	}

	return library, func() {
		if err := cat.Close(); err != nil {
			r.logger.Warn("failed to close search index", "error", err)
		}
		db.Close()
	}, nil
}

// openDatabase opens the configured database and brings its schema up to date.
func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		r.logger.Info("applied migrations", "count", applied, "path", r.config.Database.Path)
	}
	return db, nil
}

// searchProxy builds the generative search proxy from config unless a generator was injected.
func (r *Runner) searchProxy() *services.SearchProxy {
	gen := r.generator
	if gen == nil && r.config.Search.APIKey != "" {
		gen = services.NewOpenAIGenerator(services.GeneratorConfig{
			APIKey:         r.config.Search.APIKey,
			BaseURL:        r.config.Search.BaseURL,
			Model:          r.config.Search.Model,
			TimeoutSeconds: r.config.Search.TimeoutSeconds,
		})
	}
	if gen == nil {
		r.logger.Warn("search api key not set, generated search is disabled")
	}
	return services.NewSearchProxy(gen, r.config.Search.RatePerMinute, r.logger)
}

// useTable reports whether list output should be a table: stdout is a terminal and --json was not passed.
func (r *Runner) useTable(cmd *cli.Command) bool {
	if cmd.Bool("json") {
		return false
	}
	f, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
