package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

var (
	_ list.Item = songItem{}
	_ list.Item = candidateItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title + " " + i.song.Artist }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	return describe(i.song.Artist, i.song.KeySignature, i.song.BPM, i.song.DurationSeconds)
}

// candidateItem wraps [models.CandidateSong] to implement [list.Item].
type candidateItem struct {
	song models.CandidateSong
}

func (i candidateItem) FilterValue() string { return i.song.Title }
func (i candidateItem) Title() string       { return i.song.Title }
func (i candidateItem) Description() string {
	return describe(i.song.Artist, i.song.KeySignature, i.song.BPM, i.song.DurationSeconds)
}

func describe(artist string, key *string, bpm, duration *int) string {
	parts := []string{artist}
	if key != nil {
		parts = append(parts, "Key "+*key)
	}
	if bpm != nil {
		parts = append(parts, fmt.Sprintf("%d bpm", *bpm))
	}
	if duration != nil {
		parts = append(parts, shared.FormatDuration(*duration))
	}
	return strings.Join(parts, " • ")
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}

func candidateItems(songs []models.CandidateSong) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = candidateItem{song: s}
	}
	return items
}
