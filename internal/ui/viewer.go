package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/tabx/internal/autoscroll"
	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/models"
)

const diagramUnavailable = "Chord diagram not available"

// viewer is the reader pane for one song.
type viewer struct {
	song   models.Song
	lines  []string
	scroll *autoscroll.Controller

	// focus indexes the chords of focusLine; -1 when no chord is focused.
	focus     int
	focusLine int
}

func newViewer(song models.Song, sched autoscroll.Scheduler) *viewer {
	lines := chords.Lines(song.TabContent)
	return &viewer{
		song:   song,
		lines:  lines,
		scroll: autoscroll.New(len(lines), autoscroll.WithScheduler(sched)),
		focus:  -1,
	}
}

// cycleChord moves the focus to the next chord of the current line, wrapping around. Focus starts over when
// the cursor has moved to another line since the last cycle.
func (v *viewer) cycleChord() {
	idx := v.scroll.Index()
	if idx >= len(v.lines) {
		v.focus = -1
		return
	}
	tokens := chords.Extract(v.lines[idx])
	if len(tokens) == 0 {
		v.focus = -1
		return
	}
	if v.focusLine != idx || v.focus < 0 {
		v.focus, v.focusLine = 0, idx
		return
	}
	v.focus = (v.focus + 1) % len(tokens)
}

// focusedChord returns the focused token, if it is still on the current line.
func (v *viewer) focusedChord() (string, bool) {
	idx := v.scroll.Index()
	if v.focus < 0 || v.focusLine != idx || idx >= len(v.lines) {
		return "", false
	}
	tokens := chords.Extract(v.lines[idx])
	if v.focus >= len(tokens) {
		return "", false
	}
	return tokens[v.focus], true
}

// diagram renders the focused chord's fingering, or the unavailable notice.
func (v *viewer) diagram(m *chords.Matcher) string {
	tok, ok := v.focusedChord()
	if !ok {
		return ""
	}
	d, found := m.Match(tok)
	if !found {
		return styles.warn.Render(fmt.Sprintf("%s: %s", tok, diagramUnavailable))
	}
	return styles.diagram.Render(strings.TrimRight(chords.Render(d), "\n"))
}

func (v *viewer) status() string {
	state := "⏸ paused"
	if v.scroll.Running() {
		state = "▶ scrolling"
	}
	pos := 0
	if len(v.lines) > 0 {
		pos = v.scroll.Index() + 1
	}
	return fmt.Sprintf("%s • %.1fs/line • line %d/%d", state, v.scroll.Interval().Seconds(), pos, len(v.lines))
}

// render draws a window of lines that keeps the cursor in the upper third.
func (v *viewer) render(height int, m *chords.Matcher) string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("%s · %s", v.song.Title, v.song.Artist)))
	b.WriteByte('\n')
	b.WriteString(styles.dim.Render(v.status()))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(styles.dim.Render("This tab is empty."))
		return b.String()
	}

	diagram := v.diagram(m)
	rows := max(height-8-blockHeight(diagram), 3)
	idx := v.scroll.Index()
	start := max(0, min(idx-rows/3, len(v.lines)-rows))
	end := min(len(v.lines), start+rows)

	for i := start; i < end; i++ {
		focus := -1
		if i == idx && v.focusLine == idx {
			focus = v.focus
		}
		if i == idx {
			b.WriteString(styles.current.Render("▶ "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(highlight(v.lines[i], focus))
		b.WriteByte('\n')
	}

	if diagram != "" {
		b.WriteByte('\n')
		b.WriteString(diagram)
		b.WriteByte('\n')
	}
	return b.String()
}

// highlight colours chord tokens in line. The chord at position focus, counted among chords only, gets the
// focus style.
func highlight(line string, focus int) string {
	var b strings.Builder
	n := 0
	for _, f := range chords.Split(line) {
		switch {
		case !f.Chord:
			b.WriteString(f.Text)
		case n == focus:
			b.WriteString(styles.focus.Render(f.Text))
			n++
		default:
			b.WriteString(styles.chord.Render(f.Text))
			n++
		}
	}
	return b.String()
}

// blockHeight is the number of rows s occupies below the tab, separator included.
func blockHeight(s string) int {
	if s == "" {
		return 0
	}
	return lipgloss.Height(s) + 1
}
