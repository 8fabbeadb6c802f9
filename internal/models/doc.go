// Package models defines the domain entities shared by the tabx server, client and viewers.
//
// The package contains three categories of types:
//
// 1. Persistent entities, owned by the repositories:
//   - [Song] : a song with multi-line tab content and optional metadata
//   - [ChordDiagram] : seeded, read-only fingering reference data
//
// 2. Write payloads, validated before they reach the store:
//   - [CreateSong] : all writable fields, title/artist/tab_content required
//   - [UpdateSong] : the same fields, every one optional, only supplied fields change
//
// 3. Transient values:
//   - [CandidateSong] : an unpersisted proposal from the generative search backend
//
// Validation failures are returned as *shared.ValidationError so callers can report every field at once.
package models
