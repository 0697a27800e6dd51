// Package sources provides the record stores the viewer reads from.
//
// A Store serves three kinds of data for an event: scouting documents grouped
// into collections, static files (match schedule, team list) and the API
// credentials used by authentication. Four backends implement it:
//
//   - FileStore: JSON files on disk, <root>/<event>/<collection>.json
//   - PostgresStore: PostgreSQL through a pgx connection pool
//   - SQLiteStore: an embedded SQLite database
//   - MemoryStore: in-process maps, for tests and demos
//
// NewStore picks the backend from the storage configuration. Connectivity
// failures are wrapped with aggregate.ErrSourceUnavailable so callers can
// tell an unreachable store apart from bad data.
package sources
