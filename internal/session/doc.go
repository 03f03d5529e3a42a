// Package session holds the single-flight editing session shared by the
// wizard stages, its SQLite persistence, and the lock that keeps one live
// editing session per data directory.
package session
