// Package prometheus renders session metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [sessions.Manager] and exposes an
// [http.Handler] that renders all counters and histograms. Counter names are
// prefixed crmsessions_*_total; the single histogram is
// crmsessions_read_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate manager state.
package prometheus
