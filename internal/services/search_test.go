package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
	tu "github.com/desertthunder/tabx/internal/testing"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func TestSearchProxy(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroCandidatesIsSuccess", func(t *testing.T) {
		gen := &tu.MockGenerator{}
		songs, err := NewSearchProxy(gen, 0, quietLogger()).Search(ctx, "obscure")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if songs == nil || len(songs) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", songs)
		}
	})

	t.Run("UnconfiguredBackend", func(t *testing.T) {
		_, err := NewSearchProxy(nil, 0, quietLogger()).Search(ctx, "anything")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}

		gen := NewOpenAIGenerator(GeneratorConfig{})
		_, err = NewSearchProxy(gen, 0, quietLogger()).Search(ctx, "anything")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream from keyless generator, got %v", err)
		}
	})

	t.Run("GeneratorErrorPassesThrough", func(t *testing.T) {
		gen := &tu.MockGenerator{Err: shared.ErrUpstream}
		_, err := NewSearchProxy(gen, 0, quietLogger()).Search(ctx, "q")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		gen := &tu.MockGenerator{}
		_, err := NewSearchProxy(gen, 0, quietLogger()).Search(ctx, "   ")
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if gen.Calls() != 0 {
			t.Error("expected generator not to be called")
		}
	})

	t.Run("LongQuery", func(t *testing.T) {
		_, err := NewSearchProxy(&tu.MockGenerator{}, 0, quietLogger()).Search(ctx, strings.Repeat("a", MaxQueryLength+1))
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("TrimsQuery", func(t *testing.T) {
		gen := &tu.MockGenerator{}
		NewSearchProxy(gen, 0, quietLogger()).Search(ctx, "  hello  ")
		if len(gen.Queries) != 1 || gen.Queries[0] != "hello" {
			t.Errorf("expected trimmed query, got %q", gen.Queries)
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		gen := &tu.MockGenerator{}
		proxy := NewSearchProxy(gen, 2, quietLogger())

		for i := range 2 {
			if _, err := proxy.Search(ctx, "q"); err != nil {
				t.Fatalf("request %d: unexpected error %v", i, err)
			}
		}
		if _, err := proxy.Search(ctx, "q"); !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if gen.Calls() != 2 {
			t.Errorf("expected 2 generator calls, got %d", gen.Calls())
		}
	})
}

func TestNormalizeCandidates(t *testing.T) {
	in := []models.CandidateSong{
		{
			Title:           "  Cafe\u0301 ",
			Artist:          " Someone ",
			KeySignature:    models.Ptr(" Em "),
			BPM:             models.Ptr(300),
			DurationSeconds: models.Ptr(0),
			TabContent:      "Em C\n\n",
		},
		{Title: "", Artist: "No Title", TabContent: "C"},
		{Title: "Ok", Artist: "Fine", KeySignature: models.Ptr("   "), BPM: models.Ptr(120), TabContent: "G"},
	}

	out := NormalizeCandidates(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}

	first := out[0]
	if first.Title != "Caf\u00e9" {
		t.Errorf("expected NFC composed title, got %q", first.Title)
	}
	if first.Artist != "Someone" || first.TabContent != "Em C" {
		t.Errorf("expected trimmed fields, got %q %q", first.Artist, first.TabContent)
	}
	if first.KeySignature == nil || *first.KeySignature != "Em" {
		t.Errorf("expected key Em, got %v", first.KeySignature)
	}
	if first.BPM != nil || first.DurationSeconds != nil {
		t.Error("expected invalid bpm and duration to be dropped")
	}

	second := out[1]
	if second.KeySignature != nil {
		t.Error("expected blank key to be dropped")
	}
	if second.BPM == nil || *second.BPM != 120 {
		t.Errorf("expected bpm 120 kept, got %v", second.BPM)
	}

	for _, c := range out {
		if err := c.ToCreate().Validate(); err != nil {
			t.Errorf("expected normalized candidate to be saveable: %v", err)
		}
	}
}
