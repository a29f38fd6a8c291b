// Package storage persists generation records.
//
// Two backends implement Store: MemoryStore, for tests and ephemeral
// deployments, and SQLiteStore. SQLiteStore works with either the pure Go
// modernc.org/sqlite driver ("sqlite") or the cgo mattn/go-sqlite3 driver
// ("sqlite3"). Open selects the backend from config.StorageConfig.
package storage
