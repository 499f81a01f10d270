// Package sqlite implements the driven storage ports on SQLite via
// modernc.org/sqlite. The metadata database holds the manifest, the
// content store and the row quarantine; curated tables live in a
// separate database so transform workers can hold independent
// handles.
package sqlite
