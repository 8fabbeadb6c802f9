// Package server provides HTTP routing, middleware and the JSON API of the tabx service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses [http.ServeMux]
// internally, so routes are registered as method plus path patterns ("GET /api/songs/{id}") and any other
// method on a known path receives 405.
//
// [Middleware] wraps handlers in reverse order (last added executes first). [New] installs, outermost first:
//   - [RequestID], which reuses or generates X-Request-ID
//   - [Logging], which puts a request-scoped logger in the context
//   - [Recover], which turns panics into a 500 JSON body
//
// # API
//
// [API] exposes the song library, the chord dictionary and the generative search proxy:
//
//	GET    /health
//	POST   /api/search-songs
//	GET    /api/songs[?q=]
//	POST   /api/songs
//	GET    /api/songs/{id}
//	PUT    /api/songs/{id}
//	DELETE /api/songs/{id}
//	GET    /api/chords
//	GET    /api/chords/{name}
//	GET    /api/chords/match/{token}
//
// Errors are JSON objects with an "error" message and, for validation failures, a "fields" map.
// [StatusFor] holds the error to status mapping.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers such as the HTML viewer to register multiple routes within the implementation.
package server
