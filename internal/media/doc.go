// Package media defines the entities exchanged with the studio backend.
//
// Videos, jobs, clips, and safety reports mirror the backend wire format
// (uppercase string enums, millisecond trim fields). The package also owns
// trim-window validation so the edit history and the wizard guards agree on
// what a legal clip window is.
//
// Treat this package as the single source of truth for entity semantics; when
// the backend adds states or fields, extend the enums and parse helpers here.
package media
