package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
)

// UnknownArtist is used when neither the file nor its audio sibling names an artist.
const UnknownArtist = "Unknown Artist"

// audioExts are checked in order for a sibling audio file.
var audioExts = []string{".mp3", ".m4a", ".flac", ".ogg"}

// ImportFailure records a file that could not be imported.
type ImportFailure struct {
	Path string
	Err  error
}

// ImportResult summarises an [Engine.ImportDir] run.
type ImportResult struct {
	Total    int
	Imported []models.Song
	Failed   []ImportFailure
}

// ImportDir creates a song for every *.txt file directly inside dir, in file name order.
//
// Files are parsed with [ParseTabFile]. Per-file failures are collected and the run continues.
func (e *Engine) ImportDir(ctx context.Context, prog chan<- ProgressUpdate, dir string) (*ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	e.sendProgress(prog, scanFilesUpdate(dir, len(paths)))

	result := &ImportResult{Total: len(paths), Imported: []models.Song{}}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import interrupted: %w", err)
		}

		song, err := e.importFile(ctx, path)
		if err != nil {
			e.logger.Warn("import failed", "path", path, "error", err)
			result.Failed = append(result.Failed, ImportFailure{Path: path, Err: err})
			e.sendProgress(prog, importFailedUpdate(i+1, len(paths), path, err))
			continue
		}
		result.Imported = append(result.Imported, song)
		e.sendProgress(prog, importedUpdate(i+1, len(paths), song))
	}
	return result, nil
}

func (e *Engine) importFile(ctx context.Context, path string) (models.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to read file: %w", err)
	}

	input := ParseTabFile(filepath.Base(path), string(data))
	if input.Artist == "" {
		if title, artist, ok := audioTags(path); ok {
			if title != "" {
				input.Title = title
			}
			input.Artist = artist
		}
	}
	if input.Artist == "" {
		input.Artist = UnknownArtist
	}
	return e.library.CreateSong(ctx, input)
}

// ParseTabFile reads a tab file.
//
// A first line of the form "Title - Artist" sets both names, and an optional second line such as
// "Key: Am | BPM: 120 | Length: 3:45" fills in the metadata. This is the layout of the text export, so
// exported files import back unchanged. Without a header the whole file is the tab and the title is the
// file name; Artist is left empty.
func ParseTabFile(name, content string) models.CreateSong {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	input := models.CreateSong{Title: strings.TrimSuffix(name, filepath.Ext(name)), TabContent: content}

	lines := strings.Split(content, "\n")
	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first == len(lines) {
		return input
	}

	title, artist, ok := splitHeader(lines[first])
	if !ok {
		return input
	}
	input.Title, input.Artist = title, artist

	rest := lines[first+1:]
	if len(rest) > 0 && parseMeta(rest[0], &input) {
		rest = rest[1:]
	}
	input.TabContent = strings.Trim(strings.Join(rest, "\n"), "\n")
	return input
}

// splitHeader accepts "Title - Artist" only when neither side looks like tab notation.
func splitHeader(line string) (string, string, bool) {
	title, artist, ok := strings.Cut(line, " - ")
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if !ok || title == "" || artist == "" {
		return "", "", false
	}
	if strings.Contains(line, "|") || (len(chords.Extract(line)) > 0 && !hasWord(line)) {
		return "", "", false
	}
	return title, artist, true
}

// hasWord reports whether line has a word that is not a chord token.
func hasWord(line string) bool {
	for _, f := range chords.Split(line) {
		if !f.Chord && strings.ContainsFunc(f.Text, func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }) {
			return true
		}
	}
	return false
}

// parseMeta fills input from a metadata line. input is untouched unless the whole line parses.
func parseMeta(line string, input *models.CreateSong) bool {
	parsed := *input
	found := false
	for part := range strings.SplitSeq(line, "|") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return false
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "key":
			parsed.KeySignature = models.Ptr(value)
		case "bpm":
			bpm, err := strconv.Atoi(value)
			if err != nil {
				return false
			}
			parsed.BPM = models.Ptr(bpm)
		case "length":
			secs, ok := ParseLength(value)
			if !ok {
				return false
			}
			parsed.DurationSeconds = models.Ptr(secs)
		default:
			return false
		}
		found = true
	}
	if found {
		*input = parsed
	}
	return found
}

// ParseLength parses an m:ss length into seconds.
func ParseLength(s string) (int, bool) {
	m, sec, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	mins, err1 := strconv.Atoi(m)
	secs, err2 := strconv.Atoi(sec)
	if err1 != nil || err2 != nil || mins < 0 || secs < 0 || secs > 59 {
		return 0, false
	}
	return mins*60 + secs, true
}

// audioTags reads title and artist from the first audio file sharing the tab's base name.
func audioTags(tabPath string) (string, string, bool) {
	base := strings.TrimSuffix(tabPath, filepath.Ext(tabPath))
	for _, ext := range audioExts {
		f, err := os.Open(base + ext)
		if err != nil {
			continue
		}
		m, err := tag.ReadFrom(f)
		f.Close()
		if err != nil {
			continue
		}

		artist := m.Artist()
		if albumArtist := m.AlbumArtist(); artist == "" && albumArtist != "" {
			artist = albumArtist
		}
		if artist == "" {
			continue
		}
		return strings.TrimSpace(m.Title()), strings.TrimSpace(artist), true
	}
	return "", "", false
}
