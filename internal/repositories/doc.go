// Package repositories implements SQLite persistence for the tab library.
//
// Key Implementations:
//   - [SongRepository] : song CRUD, newest first, with transactional writes
//   - [ChordRepository] : read-only access to the seeded chord diagrams
//
// Every mutation runs inside a single transaction: validation happens before the transaction opens, and the
// written row is read back through the same transaction so callers never observe a partial write.
// Missing rows are reported by wrapping [shared.ErrNotFound].
package repositories
