package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/formatter"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
	"github.com/desertthunder/tabx/internal/tasks"
)

// SongsList prints the library, or the songs matching --query.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	var songs []models.Song
	if q := strings.TrimSpace(cmd.String("query")); q != "" {
		songs, err = library.SearchSongs(ctx, q)
	} else {
		songs, err = library.ListSongs(ctx)
	}
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("csv"):
		return formatter.WriteCSV(r.output, songs)
	case r.useTable(cmd):
		if len(songs) == 0 {
			return r.writePlain("No songs found\n")
		}
		return r.writePlain("%s\n", songTable(songs))
	default:
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}
}

// SongsShow renders one song with its chord sheet in the requested format.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	song, err := library.GetSong(ctx, id)
	if err != nil {
		return err
	}
	sheet, err := library.ChordSheet(ctx, song)
	if err != nil {
		return err
	}

	return formatter.Write(r.output, formatter.SongExport{Song: song, Chords: sheet}, format)
}

// SongsAdd creates a song from flags. The tab comes from --tab, --file or stdin with --file -.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	input := models.CreateSong{
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
	}

	tab, _, err := r.readTab(cmd)
	if err != nil {
		return err
	}
	input.TabContent = tab

	if cmd.IsSet("key") {
		input.KeySignature = models.Ptr(cmd.String("key"))
	}
	if cmd.IsSet("bpm") {
		input.BPM = models.Ptr(int(cmd.Int("bpm")))
	}
	if cmd.IsSet("audio-url") {
		input.AudioURL = models.Ptr(cmd.String("audio-url"))
	}
	if cmd.IsSet("duration") {
		secs, err := parseDuration(cmd.String("duration"))
		if err != nil {
			return err
		}
		input.DurationSeconds = &secs
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	song, err := library.CreateSong(ctx, input)
	if err != nil {
		return err
	}

	r.logger.Info("song added", "id", song.ID, "title", song.Title)
	if cmd.Bool("json") || !r.useTable(cmd) {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Added #%d %s - %s\n", song.ID, song.Title, song.Artist)
}

// SongsEdit applies only the flags that were given.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	var update models.UpdateSong
	if cmd.IsSet("title") {
		update.Title = models.Ptr(cmd.String("title"))
	}
	if cmd.IsSet("artist") {
		update.Artist = models.Ptr(cmd.String("artist"))
	}
	if cmd.IsSet("key") {
		update.KeySignature = models.Ptr(cmd.String("key"))
	}
	if cmd.IsSet("bpm") {
		update.BPM = models.Ptr(int(cmd.Int("bpm")))
	}
	if cmd.IsSet("audio-url") {
		update.AudioURL = models.Ptr(cmd.String("audio-url"))
	}
	if cmd.IsSet("duration") {
		secs, err := parseDuration(cmd.String("duration"))
		if err != nil {
			return err
		}
		update.DurationSeconds = &secs
	}
	if tab, ok, err := r.readTab(cmd); err != nil {
		return err
	} else if ok {
		update.TabContent = &tab
	}

	if update.Empty() {
		return fmt.Errorf("%w: give at least one field to change", shared.ErrMissingArgument)
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	song, err := library.UpdateSong(ctx, id, update)
	if err != nil {
		return err
	}

	r.logger.Info("song updated", "id", song.ID)
	if cmd.Bool("json") || !r.useTable(cmd) {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Updated #%d %s - %s\n", song.ID, song.Title, song.Artist)
}

func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := library.DeleteSong(ctx, id); err != nil {
		return err
	}
	r.logger.Info("song deleted", "id", id)
	return r.writePlain("✓ Deleted song #%d\n", id)
}

// SongsExport writes songs to a directory through the bulk export worker pool.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var ids []int64
	for _, raw := range cmd.StringSlice("id") {
		for part := range strings.SplitSeq(raw, ",") {
			id, err := parseID(part)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	quiet := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.LoadSongs, tasks.WriteManifest:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportSongs:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	engine := tasks.NewEngine(library, r.logger)
	result, err := engine.BulkExport(ctx, progressCh, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		IDs:        ids,
	})
	close(progressCh)
	<-printed

	if err != nil {
		return err
	}

	if quiet {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d (%s)\n", result.SuccessfulExports, result.TotalSongs, result.Format)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.FailedExports > 0 {
		r.writePlainln("Failed to export %d songs:", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - #%d %s - %s: %s\n", res.SongID, res.Artist, res.Title, res.Error)
			}
		}
	}
	return nil
}

// SongsImport creates songs from the tab files in a directory.
func (r *Runner) SongsImport(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: directory", shared.ErrMissingArgument)
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	quiet := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			if quiet {
				continue
			}
			if update.Phase == tasks.ScanFiles {
				r.writePlain("🔍 %s\n", update.Message)
			} else {
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	engine := tasks.NewEngine(library, r.logger)
	result, err := engine.ImportDir(ctx, progressCh, dir)
	close(progressCh)
	<-printed

	if err != nil {
		return err
	}

	if quiet {
		failed := make([]map[string]string, 0, len(result.Failed))
		for _, f := range result.Failed {
			failed = append(failed, map[string]string{"path": f.Path, "error": f.Err.Error()})
		}
		return r.writeJSON(map[string]any{
			"total":    result.Total,
			"imported": result.Imported,
			"failed":   failed,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Imported: %d/%d\n", len(result.Imported), result.Total)
	for _, f := range result.Failed {
		r.writePlain("  - %s: %v\n", f.Path, f.Err)
	}
	return nil
}

// readTab returns the tab from --tab or --file and whether either was given.
func (r *Runner) readTab(cmd *cli.Command) (string, bool, error) {
	if cmd.IsSet("tab") && cmd.IsSet("file") {
		return "", false, fmt.Errorf("%w: cannot specify both --tab and --file", shared.ErrInvalidArgument)
	}
	if cmd.IsSet("tab") {
		return strings.ReplaceAll(cmd.String("tab"), `\n`, "\n"), true, nil
	}
	if !cmd.IsSet("file") {
		return "", false, nil
	}

	var (
		data []byte
		err  error
	)
	if path := cmd.String("file"); path == "-" {
		data, err = io.ReadAll(r.input)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read tab: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), true, nil
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: song id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// parseDuration accepts whole seconds or m:ss.
func parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if secs, ok := tasks.ParseLength(raw); ok {
		return secs, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q, want seconds or m:ss", shared.ErrInvalidArgument, raw)
	}
	return secs, nil
}
