package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

// Library is the part of services.Library the jobs need.
type Library interface {
	ListSongs(ctx context.Context) ([]models.Song, error)
	CreateSong(ctx context.Context, input models.CreateSong) (models.Song, error)
	Matcher(ctx context.Context) (*chords.Matcher, error)
}

// Engine runs export and import jobs against a [Library].
type Engine struct {
	library Library
	logger  *log.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(library Library, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Engine{library: library, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
