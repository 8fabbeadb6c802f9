// package models defines the data model for the tab library
package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/tabx/internal/shared"
)

const (
	MinBPM             = 60
	MaxBPM             = 200
	MaxKeySignatureLen = 16
)

// Song is a stored song with its tab content.
type Song struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	KeySignature    *string   `json:"key_signature"`
	BPM             *int      `json:"bpm"`
	TabContent      string    `json:"tab_content"`
	AudioURL        *string   `json:"audio_url"`
	DurationSeconds *int      `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChordDiagram is a stored fingering for a named chord.
//
// FretPositions holds six characters from low E to high e, each a digit or "x" for a muted string.
type ChordDiagram struct {
	ID              int64     `json:"id"`
	ChordName       string    `json:"chord_name"`
	FretPositions   string    `json:"fret_positions"`
	FingerPositions *string   `json:"finger_positions"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateSong is the payload for creating a song.
type CreateSong struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	KeySignature    *string `json:"key_signature,omitempty"`
	BPM             *int    `json:"bpm,omitempty"`
	TabContent      string  `json:"tab_content"`
	AudioURL        *string `json:"audio_url,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}

// UpdateSong is a partial update; nil fields are left unchanged.
type UpdateSong struct {
	Title           *string `json:"title,omitempty"`
	Artist          *string `json:"artist,omitempty"`
	KeySignature    *string `json:"key_signature,omitempty"`
	BPM             *int    `json:"bpm,omitempty"`
	TabContent      *string `json:"tab_content,omitempty"`
	AudioURL        *string `json:"audio_url,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}

// CandidateSong is a generated song proposal. It is never persisted until a user saves it.
type CandidateSong struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	KeySignature    *string `json:"key_signature,omitempty"`
	BPM             *int    `json:"bpm,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	TabContent      string  `json:"tab_content"`
}

// Validate checks the required fields and the declared constraints of the optional ones.
func (c CreateSong) Validate() error {
	v := shared.NewValidationError()
	requireText(v, "title", c.Title)
	requireText(v, "artist", c.Artist)
	requireText(v, "tab_content", c.TabContent)
	validateOptional(v, c.KeySignature, c.BPM, c.AudioURL, c.DurationSeconds)
	return v.Err()
}

// Normalize trims surrounding whitespace from the single-line fields and turns blank optionals into nil.
func (c CreateSong) Normalize() CreateSong {
	c.Title = strings.TrimSpace(c.Title)
	c.Artist = strings.TrimSpace(c.Artist)
	c.KeySignature = blankToNil(c.KeySignature)
	c.AudioURL = blankToNil(c.AudioURL)
	return c
}

// Validate checks only the fields that were supplied.
func (u UpdateSong) Validate() error {
	v := shared.NewValidationError()
	if u.Title != nil {
		requireText(v, "title", *u.Title)
	}
	if u.Artist != nil {
		requireText(v, "artist", *u.Artist)
	}
	if u.TabContent != nil {
		requireText(v, "tab_content", *u.TabContent)
	}
	validateOptional(v, u.KeySignature, u.BPM, u.AudioURL, u.DurationSeconds)
	return v.Err()
}

// Empty reports whether the update carries no fields.
func (u UpdateSong) Empty() bool {
	return u.Title == nil && u.Artist == nil && u.KeySignature == nil && u.BPM == nil &&
		u.TabContent == nil && u.AudioURL == nil && u.DurationSeconds == nil
}

// Normalize trims the single-line fields that were supplied. A blank key signature or audio URL clears it.
func (u UpdateSong) Normalize() UpdateSong {
	u.Title = trimPtr(u.Title)
	u.Artist = trimPtr(u.Artist)
	u.KeySignature = trimPtr(u.KeySignature)
	u.AudioURL = trimPtr(u.AudioURL)
	return u
}

// ToCreate converts a candidate into a create payload for an explicit save.
func (c CandidateSong) ToCreate() CreateSong {
	return CreateSong{
		Title:           c.Title,
		Artist:          c.Artist,
		KeySignature:    c.KeySignature,
		BPM:             c.BPM,
		TabContent:      c.TabContent,
		DurationSeconds: c.DurationSeconds,
	}
}

// ValidBPM reports whether bpm is inside the accepted tempo range.
func ValidBPM(bpm int) bool {
	return bpm >= MinBPM && bpm <= MaxBPM
}

// ValidURL reports whether raw is an absolute http(s) URL.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func requireText(v *shared.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func validateOptional(v *shared.ValidationError, key *string, bpm *int, audioURL *string, duration *int) {
	if key != nil && len(*key) > MaxKeySignatureLen {
		v.Add("key_signature", "must be at most 16 characters")
	}
	if bpm != nil && !ValidBPM(*bpm) {
		v.Add("bpm", "must be between 60 and 200")
	}
	if audioURL != nil && *audioURL != "" && !ValidURL(*audioURL) {
		v.Add("audio_url", "must be a valid http(s) URL")
	}
	if duration != nil && *duration <= 0 {
		v.Add("duration_seconds", "must be a positive integer")
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

// Ptr returns a pointer to v. Handy for optional fields in literals.
func Ptr[T any](v T) *T {
	return &v
}
