// Package history records key movements to the database.
//
// The log is append-only and strictly observational: the in-memory registry
// stays the single source of truth for slot state. The database connection
// is optional; without one the recorder is a no-op and the application runs
// unchanged.
package history
