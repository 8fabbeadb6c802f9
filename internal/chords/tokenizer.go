package chords

import (
	"regexp"
	"strings"
)

// qualities lists chord suffixes longest first so that leftmost-first matching prefers maj7 over maj.
const qualities = `maj7|maj|min7|min|m7|m|dim7|dim|aug|sus2|sus4|sus|add9|add|_alt`

// Pattern matches a single chord token.
//
// A sharp is a non-word character, so a trailing \b can never follow it. The first branch handles sharp
// roots and accepts a non-boundary (\B) right after the '#' when nothing else follows.
var Pattern = regexp.MustCompile(
	`\b[A-G](?:#(?:(?:` + qualities + `)[0-9]?\b|[0-9]\b|\B)|b?(?:` + qualities + `)?[0-9]?\b)`,
)

// Fragment is a piece of a line. Chord fragments hold exactly one token.
type Fragment struct {
	Text  string
	Chord bool
}

// Extract returns the chord tokens of line from left to right. Duplicates are kept.
func Extract(line string) []string {
	tokens := Pattern.FindAllString(line, -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// Split cuts line into alternating text and chord fragments. Joining every fragment's Text reproduces line.
func Split(line string) []Fragment {
	var frags []Fragment
	last := 0
	for _, loc := range Pattern.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			frags = append(frags, Fragment{Text: line[last:loc[0]]})
		}
		frags = append(frags, Fragment{Text: line[loc[0]:loc[1]], Chord: true})
		last = loc[1]
	}
	if last < len(line) {
		frags = append(frags, Fragment{Text: line[last:]})
	}
	return frags
}

// Lines returns the non-blank lines of a tab. Carriage returns are stripped.
func Lines(tab string) []string {
	var lines []string
	for line := range strings.SplitSeq(tab, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Unique returns the distinct tokens of every line of tab in order of first appearance.
func Unique(tab string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range Lines(tab) {
		for _, tok := range Extract(line) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
