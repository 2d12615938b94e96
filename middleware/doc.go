// Package middleware exposes an HTTP middleware adapter that resolves bearer
// session ids through [sessions.Manager.Read].
//
// [Guard] reads the Authorization header, resolves the session, and injects
// the live record into the request context. Resolving a session through the
// guard refreshes its idle TTL like any other read.
//
// # What this package must NOT do
//
//   - Access Redis directly (the manager handles I/O).
//   - Make authorization decisions beyond live/not-live.
package middleware
