package tasks

import (
	"fmt"

	"github.com/desertthunder/tabx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadSongs Phase = iota
	ExportSongs
	WriteManifest
	ScanFiles
	ImportFiles
)

func (p Phase) String() string {
	switch p {
	case LoadSongs:
		return "load_songs"
	case ExportSongs:
		return "export_songs"
	case WriteManifest:
		return "write_manifest"
	case ScanFiles:
		return "scan_files"
	case ImportFiles:
		return "import_files"
	default:
		return ""
	}
}

func loadSongsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d songs", count),
	}
}

func exportCompletedUpdate(step, total int, res SongExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, res.Artist, res.Title),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res SongExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %s", step, total, res.Artist, res.Title, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: "Wrote " + path,
	}
}

func scanFilesUpdate(dir string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tab files in %s", count, dir),
	}
}

func importedUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, song.Artist, song.Title),
		Data:    song,
	}
}

func importFailedUpdate(step, total int, path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, path, err),
	}
}
