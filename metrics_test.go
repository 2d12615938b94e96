package sessions

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricSessionAdmitted)
	m.Add(MetricSessionEvicted, 3)
	m.Observe(MetricReadLatency, time.Millisecond)

	if m.Value(MetricSessionAdmitted) != 0 {
		t.Fatal("disabled registry must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsCountersAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricSessionAdmitted)
	m.Inc(MetricSessionAdmitted)
	m.Add(MetricSessionEvicted, 4)

	if got := m.Value(MetricSessionAdmitted); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	snap := m.Snapshot()
	if snap.Counters[MetricSessionEvicted] != 4 {
		t.Fatalf("expected 4 evictions in snapshot, got %d", snap.Counters[MetricSessionEvicted])
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricSessionAdmitted)
	m.Observe(MetricReadLatency, time.Second)
	if m.Value(MetricSessionAdmitted) != 0 {
		t.Fatal("nil registry must read zero")
	}
	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil registry must report disabled")
	}
}

func TestLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		2 * time.Millisecond,   // bucket 0
		8 * time.Millisecond,   // bucket 1
		40 * time.Millisecond,  // bucket 3
		800 * time.Millisecond, // bucket 7
	}
	for _, d := range samples {
		m.Observe(MetricReadLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricReadLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, want := range map[int]uint64{0: 1, 1: 1, 3: 1, 7: 1} {
		if buckets[i] != want {
			t.Fatalf("bucket %d = %d, want %d", i, buckets[i], want)
		}
	}

	// Non-latency ids never land in the histogram.
	m.Observe(MetricSessionAdmitted, time.Second)
	if got := m.Snapshot().Histograms[MetricReadLatency]; got[0] != 1 {
		t.Fatalf("unexpected histogram mutation: %v", got)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 1000
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricSessionReadHit)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricSessionReadHit); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
