package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const songColumns = `id, title, artist, key_signature, bpm, tab_content, audio_url, duration_seconds, created_at, updated_at`

// SongRepository persists [models.Song] rows.
type SongRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// List returns every song, newest first.
func (r *SongRepository) List(ctx context.Context) ([]models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id int64) (models.Song, error) {
	return getSong(ctx, r.db, id)
}

// GetMany retrieves songs by ID in the order requested. IDs that do not exist are skipped.
func (r *SongRepository) GetMany(ctx context.Context, ids []int64) ([]models.Song, error) {
	if len(ids) == 0 {
		return []models.Song{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + songColumns + ` FROM songs WHERE id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Song, len(ids))
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		byID[song.ID] = song
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	songs := make([]models.Song, 0, len(byID))
	for _, id := range ids {
		if song, ok := byID[id]; ok {
			songs = append(songs, song)
			delete(byID, id)
		}
	}
	return songs, nil
}

// Create validates input, inserts a song and returns the stored row.
func (r *SongRepository) Create(ctx context.Context, input models.CreateSong) (models.Song, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return models.Song{}, err
	}

	var song models.Song
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := r.now()
		query := `
			INSERT INTO songs (title, artist, key_signature, bpm, tab_content, audio_url, duration_seconds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			input.Title,
			input.Artist,
			nullString(input.KeySignature),
			nullInt(input.BPM),
			input.TabContent,
			nullString(input.AudioURL),
			nullInt(input.DurationSeconds),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert song: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted id: %w", err)
		}

		song, err = getSong(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Song{}, err
	}
	return song, nil
}

// Update applies the supplied fields of input to song id and returns the stored row.
// updated_at is bumped even when no field is supplied.
func (r *SongRepository) Update(ctx context.Context, id int64, input models.UpdateSong) (models.Song, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return models.Song{}, err
	}

	sets, args := updateAssignments(input)
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	var song models.Song
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := getSong(ctx, tx, id); err != nil {
			return err
		}

		query := `UPDATE songs SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update song: %w", err)
		}

		var err error
		song, err = getSong(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Song{}, err
	}
	return song, nil
}

// Delete permanently removes a song.
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete song: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
		}
		return nil
	})
}

// updateAssignments builds the SET clauses for the supplied fields only.
func updateAssignments(input models.UpdateSong) ([]string, []any) {
	var (
		sets []string
		args []any
	)

	if input.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *input.Title)
	}
	if input.Artist != nil {
		sets = append(sets, "artist = ?")
		args = append(args, *input.Artist)
	}
	if input.KeySignature != nil {
		sets = append(sets, "key_signature = ?")
		args = append(args, clearable(*input.KeySignature))
	}
	if input.BPM != nil {
		sets = append(sets, "bpm = ?")
		args = append(args, *input.BPM)
	}
	if input.TabContent != nil {
		sets = append(sets, "tab_content = ?")
		args = append(args, *input.TabContent)
	}
	if input.AudioURL != nil {
		sets = append(sets, "audio_url = ?")
		args = append(args, clearable(*input.AudioURL))
	}
	if input.DurationSeconds != nil {
		sets = append(sets, "duration_seconds = ?")
		args = append(args, *input.DurationSeconds)
	}
	return sets, args
}

// clearable maps an empty string to NULL.
func clearable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func getSong(ctx context.Context, q queryer, id int64) (models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`

	song, err := scanSong(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
	}
	return song, err
}

// scanSong scans a single row into a [models.Song]. [sql.ErrNoRows] is returned unwrapped.
func scanSong(s scanner) (models.Song, error) {
	var (
		song     models.Song
		key      sql.NullString
		bpm      sql.NullInt64
		audioURL sql.NullString
		duration sql.NullInt64
	)

	err := s.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&key,
		&bpm,
		&song.TabContent,
		&audioURL,
		&duration,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, err
	}
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to scan song: %w", err)
	}

	song.KeySignature = stringPtr(key)
	song.BPM = intPtr(bpm)
	song.AudioURL = stringPtr(audioURL)
	song.DurationSeconds = intPtr(duration)
	return song, nil
}
