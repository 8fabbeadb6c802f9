package chords

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const (
	Strings   = 6
	FretCount = 4
	Muted     = -1
)

// ParseFrets converts fret positions such as "x32010" into six fret numbers, low E first. Muted strings are -1.
func ParseFrets(positions string) ([]int, error) {
	if len(positions) != Strings {
		return nil, fmt.Errorf("%w: fret positions %q must have %d characters", shared.ErrInvalidInput, positions, Strings)
	}

	frets := make([]int, Strings)
	for i, c := range positions {
		switch {
		case c == 'x' || c == 'X':
			frets[i] = Muted
		case c >= '0' && c <= '9':
			frets[i] = int(c - '0')
		default:
			return nil, fmt.Errorf("%w: invalid fret %q at string %d", shared.ErrInvalidInput, c, i+1)
		}
	}
	return frets, nil
}

// baseFret picks the first fret shown so that every fretted note fits in the grid.
func baseFret(frets []int) int {
	lo, hi := 0, 0
	for _, f := range frets {
		if f <= 0 {
			continue
		}
		if lo == 0 || f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	if hi <= FretCount {
		return 1
	}
	return lo
}

// Render draws a text fret grid for d:
//
//	C
//	x     o   o
//	===========
//	| | | | ● |
//	| | ● | | |
//	| ● | | | |
//	| | | | | |
//
// Positions that cannot be parsed are printed as-is under the name.
func Render(d models.ChordDiagram) string {
	var b strings.Builder
	b.WriteString(d.ChordName)
	b.WriteByte('\n')

	frets, err := ParseFrets(d.FretPositions)
	if err != nil {
		b.WriteString(d.FretPositions)
		b.WriteByte('\n')
		return b.String()
	}

	markers := make([]string, Strings)
	for i, f := range frets {
		switch f {
		case Muted:
			markers[i] = "x"
		case 0:
			markers[i] = "o"
		default:
			markers[i] = " "
		}
	}
	b.WriteString(strings.TrimRight(strings.Join(markers, " "), " "))
	b.WriteByte('\n')

	base := baseFret(frets)
	width := Strings*2 - 1
	if base == 1 {
		b.WriteString(strings.Repeat("=", width))
	} else {
		fmt.Fprintf(&b, "%s %dfr", strings.Repeat("-", width), base)
	}
	b.WriteByte('\n')

	row := make([]string, Strings)
	for r := range FretCount {
		fret := base + r
		for i, f := range frets {
			if f == fret {
				row[i] = "●"
			} else {
				row[i] = "|"
			}
		}
		b.WriteString(strings.Join(row, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
