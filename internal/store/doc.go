// Package store persists business cards in a single relational table.
//
// Two backends share one database/sql code path: SQLite through
// modernc.org/sqlite (the default, a file under the data directory) and
// PostgreSQL through a pgx connection pool wrapped with stdlib.OpenDBFromPool.
// Queries are written with "?" placeholders and rebound for the active
// dialect. The schema is embedded, created on first open, and guarded by a
// schema_version row.
//
// The store enforces name uniqueness with an index and exposes InsertUnique,
// which checks and inserts inside one transaction. Column names used as
// selectors or update targets are checked against a fixed whitelist before
// they reach SQL text.
package store
