// Package sqlite provides a SQLite-based implementation of the metadata store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements two store interfaces through a single database connection:
//
//   - DocumentStore: uploaded document metadata
//   - UsageStore: usage analytics events
//
// # Schema
//
// The schema is managed through numbered .up.sql migrations embedded from the
// migrations/ directory. Each migration records its version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-kb/data/metadata.db
//
// # Timestamps
//
// Times are stored as fixed-width UTC RFC 3339 text so range filters and
// per-day grouping work on plain string comparison.
package sqlite
