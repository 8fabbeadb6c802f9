// Package services holds the application logic between the HTTP layer and storage, plus the clients for
// remote HTTP APIs.
//
// # Library
//
// [Library] is the single entry point for song and chord operations. It composes the song and chord
// repositories, keeps the full-text catalog in sync with every write and resolves chord tokens with a
// cached [chords.Matcher] built from the seeded diagrams.
//
// # Generative search
//
// [SearchProxy] validates a search phrase, enforces a local request rate and asks a [Generator] for
// candidate songs. [OpenAIGenerator] is the production generator: it calls an OpenAI-compatible chat
// completions endpoint with a strict JSON schema and authenticates with a static bearer token through
// [oauth2.Transport]. Candidates are never persisted by the proxy.
//
// # API client
//
// [APIService] is a typed client for the REST API used by the CLI and the terminal viewer.
//
// # Error Handling
//
// Services wrap sentinel errors from the shared package:
//   - [shared.ErrValidation] : rejected input, usually a [*shared.ValidationError] with field messages
//   - [shared.ErrNotFound] : unknown song or chord
//   - [shared.ErrUpstream] : the generator failed or answered with something unusable
//   - [shared.ErrRateLimited] : too many search requests
//   - [shared.ErrTransport] : the API client could not reach the server
//
// Zero candidates from a healthy generator is a successful, empty result and never an error.
package services
