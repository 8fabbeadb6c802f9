package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/formatter"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

const (
	ManifestFile = "export_manifest.json"
	ListingFile  = "songs.csv"

	defaultWorkers = 4
	maxWorkers     = 10
)

// BulkExportOpts contains configuration for bulk song exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: text)
	OutputDir  string           // Base output directory (default: tabx_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	IDs        []int64          // Songs to export; empty exports the whole library
}

// SongExportResult is the outcome for one song.
type SongExportResult struct {
	SongID  int64  `json:"song_id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkExportResult summarises a [Engine.BulkExport] run. It is also the manifest written beside the exports.
type BulkExportResult struct {
	Format            formatter.Format   `json:"format"`
	ExportedAt        time.Time          `json:"exported_at"`
	OutputDirectory   string             `json:"output_directory"`
	TotalSongs        int                `json:"total_songs"`
	SuccessfulExports int                `json:"successful_exports"`
	FailedExports     int                `json:"failed_exports"`
	Results           []SongExportResult `json:"results"`
	ListingPath       string             `json:"listing_path"`
	ManifestPath      string             `json:"-"`
}

// BulkExport exports songs concurrently with a worker pool, then writes a CSV listing and a manifest.
//
// A failed song is recorded in the result and does not stop the run. Cancelling ctx stops handing out work;
// songs already rendered are still reported.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if _, err := formatter.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tabx_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), maxWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = defaultWorkers
	}

	songs, err := e.selectSongs(ctx, opts.IDs)
	if err != nil {
		return nil, err
	}
	e.sendProgress(prog, loadSongsUpdate(len(songs)))

	matcher, err := e.library.Matcher(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		OutputDirectory: opts.OutputDir,
		TotalSongs:      len(songs),
		Results:         make([]SongExportResult, 0, len(songs)),
	}

	jobs := make(chan models.Song)
	results := make(chan SongExportResult, len(songs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, matcher, opts)
	}

	go func() {
		defer close(jobs)
		for _, song := range songs {
			select {
			case <-ctx.Done():
				return
			case jobs <- song:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(songs), res))
		} else {
			result.FailedExports++
			e.logger.Warn("export failed", "song", res.SongID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(songs), res))
		}
	}
	slices.SortFunc(result.Results, func(a, b SongExportResult) int { return cmp.Compare(a.SongID, b.SongID) })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	if err := writeListing(result, songs); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// selectSongs returns the whole library, or the requested songs in the library's order.
func (e *Engine) selectSongs(ctx context.Context, ids []int64) ([]models.Song, error) {
	songs, err := e.library.ListSongs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return songs, nil
	}

	selected := make([]models.Song, 0, len(ids))
	for _, s := range songs {
		if slices.Contains(ids, s.ID) {
			selected = append(selected, s)
		}
	}
	if len(selected) < len(ids) {
		for _, id := range ids {
			if !slices.ContainsFunc(selected, func(s models.Song) bool { return s.ID == id }) {
				return nil, fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
			}
		}
	}
	return selected, nil
}

func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Song,
	results chan<- SongExportResult,
	m *chords.Matcher,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for song := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportSong(song, m, opts)
	}
}

func exportSong(song models.Song, m *chords.Matcher, opts BulkExportOpts) SongExportResult {
	res := SongExportResult{SongID: song.ID, Title: song.Title, Artist: song.Artist}

	export := formatter.SongExport{Song: song, Chords: services.BuildChordSheet(song.TabContent, m)}
	path, err := formatter.WriteFile(export, opts.Format, opts.OutputDir)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.File = path
	res.Success = true
	return res
}

func writeListing(result *BulkExportResult, songs []models.Song) error {
	path := filepath.Join(result.OutputDirectory, ListingFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if err := formatter.WriteCSV(f, songs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close listing: %w", err)
	}
	result.ListingPath = path
	return nil
}
