// Package sessions provides the session and token lifecycle core of the CRM
// backend: a TTL-backed, per-principal-bounded session store in front of a
// shared Redis cache, with sliding-window refresh on read, single and
// cascading invalidation, and store-wide statistics.
//
// The package is designed for concurrent server workloads: Manager methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sessions is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (SessionData, Stats, MetricsSnapshot). Redis persistence
// lives in the session subpackage; identifier generation lives under
// internal/ and is never exported.
//
// The authentication flow that calls this package owns credentials, password
// hashing, and token issuance. The Manager receives a principal id and a
// claims snapshot, returns an opaque session id, and never inspects
// credentials or mints tokens.
//
// # What this package must NOT do
//
//   - Expose Redis clients or encoding details in its public API.
//   - Run background expiry sweeps; expiry belongs to the cache's native TTL
//     plus lazy index cleanup.
//   - Retry failed cache operations; errors propagate to the caller.
//
// # Performance contract
//
// Read is the hot path: one Redis GET plus one SET for the TTL refresh, no
// index writes on a miss. Admit is one Lua round trip covering record write,
// index registration, and cap enforcement.
package sessions
