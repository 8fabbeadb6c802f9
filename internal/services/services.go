package services

import (
	"context"

	"github.com/desertthunder/tabx/internal/models"
)

// Generator produces candidate songs for a search phrase.
type Generator interface {
	Generate(ctx context.Context, query string) ([]models.CandidateSong, error)
}

// SongStore is the persistence contract the [Library] needs for songs.
type SongStore interface {
	List(ctx context.Context) ([]models.Song, error)
	Get(ctx context.Context, id int64) (models.Song, error)
	GetMany(ctx context.Context, ids []int64) ([]models.Song, error)
	Create(ctx context.Context, input models.CreateSong) (models.Song, error)
	Update(ctx context.Context, id int64, input models.UpdateSong) (models.Song, error)
	Delete(ctx context.Context, id int64) error
}

// ChordStore is the read-only contract the [Library] needs for chord diagrams.
type ChordStore interface {
	List(ctx context.Context) ([]models.ChordDiagram, error)
	GetByName(ctx context.Context, name string) (models.ChordDiagram, error)
}

// ChordEntry pairs a chord token from a tab with its diagram, when one exists.
type ChordEntry struct {
	Token   string               `json:"token"`
	Diagram *models.ChordDiagram `json:"diagram"`
}

// ChordMatch is the result of resolving a single token.
type ChordMatch struct {
	Token   string               `json:"token"`
	Diagram *models.ChordDiagram `json:"diagram"`
	Found   bool                 `json:"found"`
}
