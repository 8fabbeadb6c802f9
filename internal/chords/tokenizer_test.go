package chords

import (
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"ChordsBeforeLyrics", "C F G C I was walking", []string{"C", "F", "G", "C"}},
		{"Qualities", "Cmaj7  Am7  Dsus4  Gadd9  Bdim  Eaug", []string{"Cmaj7", "Am7", "Dsus4", "Gadd9", "Bdim", "Eaug"}},
		{"Flats", "Bb Eb Abm", []string{"Bb", "Eb", "Abm"}},
		{"Sharps", "F# C#m G#7", []string{"F#", "C#m", "G#7"}},
		{"SlashChord", "D/F# G", []string{"D", "F#", "G"}},
		{"LongestSuffix", "Amin7 Dmaj", []string{"Amin7", "Dmaj"}},
		{"Trailing digit", "E7 A9", []string{"E7", "A9"}},
		{"LyricsOnly", "Amazing grace, how sweet the sound", []string{}},
		{"WordsStartingWithRoots", "Bed Dance Give Each", []string{}},
		{"Empty", "", []string{}},
		{"TabStaff", "e|-----0---3---|", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}

	t.Run("OrderAndDuplicates", func(t *testing.T) {
		got := Extract("G D G D Em")
		want := []string{"G", "D", "G", "D", "Em"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestSplit(t *testing.T) {
	t.Run("Fragments", func(t *testing.T) {
		got := Split("Am  walking C")
		want := []Fragment{
			{Text: "Am", Chord: true},
			{Text: "  walking "},
			{Text: "C", Chord: true},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("NoChords", func(t *testing.T) {
		got := Split("just lyrics")
		if len(got) != 1 || got[0].Chord || got[0].Text != "just lyrics" {
			t.Errorf("unexpected fragments %+v", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := Split(""); len(got) != 0 {
			t.Errorf("expected no fragments, got %+v", got)
		}
	})
}

func TestSplitAgreesWithExtract(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.StringMatching(`[A-Gabdgijmnsu#_0-9 /|-]{0,40}`).Draw(t, "line")

		var joined strings.Builder
		var chords []string
		for _, f := range Split(line) {
			joined.WriteString(f.Text)
			if f.Chord {
				chords = append(chords, f.Text)
			}
		}

		if joined.String() != line {
			t.Fatalf("fragments joined to %q, want %q", joined.String(), line)
		}

		want := Extract(line)
		if len(chords) != len(want) {
			t.Fatalf("split found %d chords, extract found %d", len(chords), len(want))
		}
		for i := range want {
			if chords[i] != want[i] {
				t.Fatalf("chord %d: split %q, extract %q", i, chords[i], want[i])
			}
		}
	})
}

func TestLines(t *testing.T) {
	tab := "C   G\r\nHello there\n\n   \ne|---0---|\n"
	want := []string{"C   G", "Hello there", "e|---0---|"}

	if got := Lines(tab); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
	if got := Lines(""); len(got) != 0 {
		t.Errorf("expected no lines, got %q", got)
	}
}

func TestUnique(t *testing.T) {
	tab := "G D Em C\nla la\nG D C"
	want := []string{"G", "D", "Em", "C"}

	if got := Unique(tab); !reflect.DeepEqual(got, want) {
		t.Errorf("Unique() = %q, want %q", got, want)
	}
}
