// Package sqlite implements the raw document store on SQLite. It holds
// ingested documents and their connections; indexed data lives in the
// vector index store and is never touched here.
package sqlite
