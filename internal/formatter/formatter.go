// package formatter renders songs for export: plain text, Markdown with a chord sheet, JSON, and a CSV listing
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/services"
	"github.com/desertthunder/tabx/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists the single-song formats in the order help text shows them.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON}

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt", "":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, s)
}

// Ext returns the file extension, dot included.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// SongExport is a song with its resolved chord sheet.
type SongExport struct {
	Song   models.Song          `json:"song"`
	Chords []services.ChordEntry `json:"chords"`
}

// Export renders e in the given format.
func Export(e SongExport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(e), nil
	case FormatMarkdown:
		return ExportToMarkdown(e), nil
	case FormatJSON:
		return ExportToJSON(e)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
}

// ExportToText writes a short header followed by the tab as-is.
func ExportToText(e SongExport) []byte {
	var buf bytes.Buffer
	s := e.Song

	fmt.Fprintf(&buf, "%s - %s\n", s.Title, s.Artist)
	if meta := metaLine(s, " | "); meta != "" {
		buf.WriteString(meta)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.TrimRight(s.TabContent, "\n"))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// ExportToMarkdown renders the tab in a code block followed by a diagram for every distinct chord.
func ExportToMarkdown(e SongExport) []byte {
	var buf bytes.Buffer
	s := e.Song

	fmt.Fprintf(&buf, "# %s\n\n", s.Title)
	fmt.Fprintf(&buf, "**Artist**: %s\n", s.Artist)
	if s.KeySignature != nil {
		fmt.Fprintf(&buf, "**Key**: %s\n", *s.KeySignature)
	}
	if s.BPM != nil {
		fmt.Fprintf(&buf, "**Tempo**: %d bpm\n", *s.BPM)
	}
	if s.DurationSeconds != nil {
		fmt.Fprintf(&buf, "**Length**: %s\n", shared.FormatDuration(*s.DurationSeconds))
	}
	if s.AudioURL != nil {
		fmt.Fprintf(&buf, "**Audio**: <%s>\n", *s.AudioURL)
	}

	buf.WriteString("\n## Tab\n\n```\n")
	buf.WriteString(strings.TrimRight(s.TabContent, "\n"))
	buf.WriteString("\n```\n")

	if len(e.Chords) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("\n## Chords\n\n")
	var missing []string
	for _, c := range e.Chords {
		if c.Diagram == nil {
			missing = append(missing, c.Token)
			continue
		}
		buf.WriteString("```\n")
		buf.WriteString(chords.Render(*c.Diagram))
		buf.WriteString("```\n\n")
	}
	if len(missing) > 0 {
		fmt.Fprintf(&buf, "No diagram available for: %s\n", strings.Join(missing, ", "))
	}
	return buf.Bytes()
}

// ExportToJSON encodes the song and its chord sheet, indented.
func ExportToJSON(e SongExport) ([]byte, error) {
	if e.Chords == nil {
		e.Chords = []services.ChordEntry{}
	}
	data, err := shared.MarshalJSON(e, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteCSV writes one row per song with columns: ID, Title, Artist, Key, BPM, Duration, Audio URL.
func WriteCSV(w io.Writer, songs []models.Song) error {
	writer := csv.NewWriter(w)

	headers := []string{"ID", "Title", "Artist", "Key", "BPM", "Duration", "Audio URL"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range songs {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			s.Title,
			s.Artist,
			optString(s.KeySignature),
			optInt(s.BPM),
			optInt(s.DurationSeconds),
			optString(s.AudioURL),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// Write renders e to w.
func Write(w io.Writer, e SongExport, format Format) error {
	data, err := Export(e, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteFile exports e into dir and returns the file path.
//
// The file name is derived from the artist and title, see [Filename].
func WriteFile(e SongExport, format Format, dir string) (string, error) {
	data, err := Export(e, format)
	if err != nil {
		return "", err
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	path := filepath.Join(dir, Filename(e.Song, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Filename builds "<id>-<artist>-<title><ext>" from an ASCII slug of the names.
func Filename(s models.Song, format Format) string {
	parts := []string{strconv.FormatInt(s.ID, 10)}
	for _, p := range []string{Slug(s.Artist), Slug(s.Title)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-") + format.Ext()
}

// Slug lowercases s, strips accents and collapses everything that is not a letter or digit into single dashes.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func metaLine(s models.Song, sep string) string {
	var parts []string
	if s.KeySignature != nil {
		parts = append(parts, "Key: "+*s.KeySignature)
	}
	if s.BPM != nil {
		parts = append(parts, fmt.Sprintf("BPM: %d", *s.BPM))
	}
	if s.DurationSeconds != nil {
		parts = append(parts, "Length: "+shared.FormatDuration(*s.DurationSeconds))
	}
	return strings.Join(parts, sep)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
