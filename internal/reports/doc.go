// Package reports persists completed analyses to a SQLite history
// database so results survive daemon restarts.
package reports
