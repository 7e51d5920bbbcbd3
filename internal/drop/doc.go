// Package drop implements the session and file lifecycle core of the
// LAN file drop: short-lived code-addressed sessions, the files placed
// in them, at-most-once delivery, and inactivity-based reclamation.
// All metadata lives in process memory; payload bytes live in an
// injected storage.Store.
package drop
