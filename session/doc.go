// Package session provides Redis-backed session persistence for the CRM
// authentication hot paths: record storage with TTL expiry, a per-principal
// insertion-ordered index, and atomic cap enforcement.
//
// # Key layout
//
// Records live under "session:<sessionID>" with a native Redis TTL. The
// per-principal index is a sorted set under "user_sessions:<principalID>",
// scored by admit order, so the head of the set is always the oldest session.
// Both prefixes are part of the wire contract and must not change; operators
// inspect them directly.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] model. It
// does NOT generate session identifiers, validate caller input, or emit
// metrics and audit events — those responsibilities belong to the Manager.
//
// # What this package must NOT do
//
//   - Import the root sessions package (no upward imports).
//   - Run its own expiry sweep; expiry is delegated to Redis TTLs plus lazy
//     cleanup of dangling index entries.
//   - Retry failed Redis commands; retry policy belongs to the client.
package session
