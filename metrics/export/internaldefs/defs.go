package internaldefs

import (
	sessions "github.com/crmkit/sessions"
)

// CounterDef binds one registry counter to its exported name and help text.
type CounterDef struct {
	ID   sessions.MetricID
	Name string
	Help string
}

// HistogramDef binds one registry histogram to its exported name and help text.
type HistogramDef struct {
	ID   sessions.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in registry order.
var CounterDefs = []CounterDef{
	{ID: sessions.MetricSessionAdmitted, Name: "crmsessions_admitted_total", Help: "Admitted sessions."},
	{ID: sessions.MetricSessionEvicted, Name: "crmsessions_evicted_total", Help: "Sessions evicted by per-principal cap enforcement."},
	{ID: sessions.MetricSessionReadHit, Name: "crmsessions_read_hit_total", Help: "Reads that resolved a live session."},
	{ID: sessions.MetricSessionReadMiss, Name: "crmsessions_read_miss_total", Help: "Reads of expired or unknown sessions."},
	{ID: sessions.MetricSessionInvalidated, Name: "crmsessions_invalidated_total", Help: "Single-session invalidations."},
	{ID: sessions.MetricCascadeInvalidated, Name: "crmsessions_logout_all_total", Help: "Logout-everywhere operations."},
	{ID: sessions.MetricExtensionMerged, Name: "crmsessions_extension_merged_total", Help: "Extension-bag merges."},
	{ID: sessions.MetricStatsComputed, Name: "crmsessions_stats_computed_total", Help: "Statistics snapshots."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: sessions.MetricReadLatency, Name: "crmsessions_read_latency_seconds", Help: "Read hot-path latency histogram."},
}

// HistogramBounds are the Prometheus le labels, matching the registry's
// bucket boundaries.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are OTel-safe instrument name suffixes for the bounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a snapshot bucket slice to the fixed bucket count,
// tolerating short or missing slices.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exporters emit.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
