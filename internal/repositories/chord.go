package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const chordColumns = `id, chord_name, fret_positions, finger_positions, created_at, updated_at`

// ChordRepository reads the seeded [models.ChordDiagram] rows.
type ChordRepository struct {
	db *sql.DB
}

// NewChordRepository creates a new ChordRepository with the given database connection
func NewChordRepository(db *sql.DB) *ChordRepository {
	return &ChordRepository{db: db}
}

// List returns every diagram ordered by chord name.
func (r *ChordRepository) List(ctx context.Context) ([]models.ChordDiagram, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+chordColumns+` FROM chord_diagrams ORDER BY chord_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chord diagrams: %w", err)
	}
	defer rows.Close()

	chords := []models.ChordDiagram{}
	for rows.Next() {
		chord, err := scanChord(rows)
		if err != nil {
			return nil, err
		}
		chords = append(chords, chord)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chords, nil
}

// GetByName retrieves a diagram by name. chord_name is declared COLLATE NOCASE, so "am" finds "Am".
func (r *ChordRepository) GetByName(ctx context.Context, name string) (models.ChordDiagram, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+chordColumns+` FROM chord_diagrams WHERE chord_name = ?`, name)

	chord, err := scanChord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChordDiagram{}, fmt.Errorf("%w: chord %q", shared.ErrNotFound, name)
	}
	return chord, err
}

func scanChord(s scanner) (models.ChordDiagram, error) {
	var (
		chord   models.ChordDiagram
		fingers sql.NullString
	)

	err := s.Scan(&chord.ID, &chord.ChordName, &chord.FretPositions, &fingers, &chord.CreatedAt, &chord.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChordDiagram{}, err
	}
	if err != nil {
		return models.ChordDiagram{}, fmt.Errorf("failed to scan chord diagram: %w", err)
	}

	chord.FingerPositions = stringPtr(fingers)
	return chord, nil
}
