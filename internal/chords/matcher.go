package chords

import (
	"regexp"
	"strings"

	"github.com/desertthunder/tabx/internal/models"
)

var (
	majorSuffix = regexp.MustCompile(`(?i)maj7?`)
	minorSuffix = regexp.MustCompile(`(?i)min`)
)

// enharmonics are tried in order; only the first spelling present in a token is rewritten.
var enharmonics = [][2]string{
	{"bb", "a#"},
	{"db", "c#"},
	{"eb", "d#"},
	{"gb", "f#"},
	{"ab", "g#"},
}

// Matcher resolves chord tokens against a fixed set of diagrams.
type Matcher struct {
	byName map[string]models.ChordDiagram
	names  []string
}

// NewMatcher indexes diagrams by lower-cased name. When two diagrams share a name the first one wins.
func NewMatcher(diagrams []models.ChordDiagram) *Matcher {
	m := &Matcher{byName: make(map[string]models.ChordDiagram, len(diagrams))}
	for _, d := range diagrams {
		key := strings.ToLower(d.ChordName)
		if _, ok := m.byName[key]; ok {
			continue
		}
		m.byName[key] = d
		m.names = append(m.names, d.ChordName)
	}
	return m
}

// Match resolves token in order:
//  1. exact, case-insensitive
//  2. with the first maj/maj7 removed and the first min shortened to m
//  3. with "_alt" appended, unless the token already has it
//  4. with the first flat spelling from [enharmonics] found in the token respelled as its sharp
func (m *Matcher) Match(token string) (models.ChordDiagram, bool) {
	if token == "" {
		return models.ChordDiagram{}, false
	}
	if d, ok := m.lookup(token); ok {
		return d, true
	}

	clean := replaceFirst(majorSuffix, token, "")
	clean = replaceFirst(minorSuffix, clean, "m")
	if d, ok := m.lookup(clean); ok {
		return d, true
	}

	if !strings.Contains(token, "_alt") {
		if d, ok := m.lookup(token + "_alt"); ok {
			return d, true
		}
	}

	lower := strings.ToLower(token)
	for _, sub := range enharmonics {
		if !strings.Contains(lower, sub[0]) {
			continue
		}
		if d, ok := m.lookup(strings.Replace(lower, sub[0], sub[1], 1)); ok {
			return d, true
		}
	}
	return models.ChordDiagram{}, false
}

// Len returns the number of distinct diagram names.
func (m *Matcher) Len() int {
	return len(m.names)
}

// Names returns the indexed chord names in their original order and casing.
func (m *Matcher) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *Matcher) lookup(name string) (models.ChordDiagram, bool) {
	d, ok := m.byName[strings.ToLower(name)]
	return d, ok
}

// Match is a one-shot helper for callers that do not keep a [Matcher] around.
func Match(token string, diagrams []models.ChordDiagram) (models.ChordDiagram, bool) {
	return NewMatcher(diagrams).Match(token)
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
