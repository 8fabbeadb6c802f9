// Package chords finds chord tokens in tab text and resolves them to fingering diagrams.
//
// Tokenizing is regex based. [Pattern] recognizes a root note A-G, an optional sharp or flat, an optional
// quality (maj7, min, m7, dim, aug, sus4, add9, _alt, ...) and an optional trailing digit. Tokens must sit on
// word boundaries so lyrics such as "Amazing" or "Bed" never yield chords.
//
// [Extract] returns the tokens of a line and [Split] returns the same line cut into text and chord
// fragments, which the viewers use for highlighting.
//
// Matching is a short fallback chain (exact, simplified quality, "_alt" fingering, one enharmonic respelling)
// implemented by [Matcher]. A token without a diagram is a normal outcome and is reported as not found.
package chords
