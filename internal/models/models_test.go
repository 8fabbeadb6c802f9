package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/tabx/internal/shared"
)

func TestCreateSongValidate(t *testing.T) {
	valid := CreateSong{Title: "Wonderwall", Artist: "Oasis", TabContent: "Em7 G Dsus4 A7sus4"}

	t.Run("Valid", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name  string
		edit  func(c *CreateSong)
		field string
	}{
		{"MissingTitle", func(c *CreateSong) { c.Title = "   " }, "title"},
		{"MissingArtist", func(c *CreateSong) { c.Artist = "" }, "artist"},
		{"MissingTab", func(c *CreateSong) { c.TabContent = "\n" }, "tab_content"},
		{"BPMTooLow", func(c *CreateSong) { c.BPM = Ptr(59) }, "bpm"},
		{"BPMTooHigh", func(c *CreateSong) { c.BPM = Ptr(201) }, "bpm"},
		{"ZeroDuration", func(c *CreateSong) { c.DurationSeconds = Ptr(0) }, "duration_seconds"},
		{"BadURL", func(c *CreateSong) { c.AudioURL = Ptr("ftp://example.com/a.mp3") }, "audio_url"},
		{"LongKey", func(c *CreateSong) { c.KeySignature = Ptr("C sharp minor dorian") }, "key_signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.edit(&c)

			err := c.Validate()
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if _, ok := shared.FieldErrors(err)[tt.field]; !ok {
				t.Errorf("expected field error for %s, got %v", tt.field, shared.FieldErrors(err))
			}
		})
	}

	t.Run("BPMBounds", func(t *testing.T) {
		for _, bpm := range []int{60, 200} {
			c := valid
			c.BPM = Ptr(bpm)
			if err := c.Validate(); err != nil {
				t.Errorf("bpm %d: expected no error, got %v", bpm, err)
			}
		}
	})
}

func TestUpdateSongValidate(t *testing.T) {
	t.Run("EmptyIsValid", func(t *testing.T) {
		u := UpdateSong{}
		if err := u.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !u.Empty() {
			t.Error("expected update to be empty")
		}
	})

	t.Run("SuppliedBlankTitle", func(t *testing.T) {
		u := UpdateSong{Title: Ptr("")}
		if err := u.Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("SuppliedBPM", func(t *testing.T) {
		u := UpdateSong{BPM: Ptr(120)}
		if err := u.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if u.Empty() {
			t.Error("expected update to be non-empty")
		}
	})
}

func TestNormalize(t *testing.T) {
	c := CreateSong{Title: "  Hurt ", Artist: " Johnny Cash", KeySignature: Ptr("  "), AudioURL: Ptr(" https://example.com/a.mp3 ")}
	n := c.Normalize()

	if n.Title != "Hurt" || n.Artist != "Johnny Cash" {
		t.Errorf("expected trimmed title and artist, got %q %q", n.Title, n.Artist)
	}
	if n.KeySignature != nil {
		t.Errorf("expected blank key to become nil, got %q", *n.KeySignature)
	}
	if n.AudioURL == nil || *n.AudioURL != "https://example.com/a.mp3" {
		t.Errorf("unexpected audio url %v", n.AudioURL)
	}
}

func TestCandidateToCreate(t *testing.T) {
	c := CandidateSong{Title: "Zombie", Artist: "The Cranberries", BPM: Ptr(84), TabContent: "Em C G D"}
	create := c.ToCreate()

	if err := create.Validate(); err != nil {
		t.Fatalf("expected candidate to convert to a valid create, got %v", err)
	}
	if create.AudioURL != nil {
		t.Error("candidates carry no audio url")
	}
}
