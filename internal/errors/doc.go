// Package errors provides structured, coded errors for the Weft engine.
//
// Each error carries a stable code (e.g. "E101"), a category naming the
// originating subsystem, and optionally a detail paragraph and a fix
// suggestion. Codes are stable across releases so they can be searched
// for and suppressed deliberately.
package errors
