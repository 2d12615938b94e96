package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crmkit/sessions/session"
)

// Manager is the caller-facing session lifecycle surface. It validates input,
// generates opaque session identifiers, snapshots claims into records, and
// delegates persistence to the session [session.Store].
//
// A Manager is constructed once at process start through [Builder.Build] with
// its Redis client and configuration injected, and passed by reference to the
// authentication flow. There is deliberately no package-level singleton.
type Manager struct {
	config  Config
	store   *session.Store
	metrics *Metrics
	audit   *auditDispatcher
	newID   func() (string, error)
}

// Admit creates a session for principalID from the given claims snapshot and
// returns the new opaque session id. The record is written with the full TTL,
// the id is registered in the principal's index, and the per-principal cap is
// enforced atomically: older sessions beyond the cap are evicted, never the
// one just created.
//
// On a cache failure the whole operation fails with no partial index state
// left behind.
func (m *Manager) Admit(ctx context.Context, principalID string, data SessionData) (string, error) {
	if m == nil || m.store == nil {
		return "", ErrManagerNotReady
	}
	if principalID == "" {
		return "", ErrPrincipalRequired
	}
	if data.Email == "" || data.RoleID == "" {
		return "", ErrSessionDataInvalid
	}

	sessionID, err := m.newID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	now := time.Now().Unix()
	rec := &session.Record{
		SessionID:      sessionID,
		PrincipalID:    principalID,
		Email:          data.Email,
		RoleID:         data.RoleID,
		Capabilities:   cloneStrings(data.Capabilities),
		CreatedAt:      now,
		LastActivityAt: now,
		Device:         cloneDevice(data.Device),
		Extension:      cloneExtension(data.Extension),
	}

	evicted, err := m.store.Save(ctx, rec)
	if err != nil {
		m.emitAudit(ctx, AuditEvent{
			EventType:   auditEventAdmitFailure,
			PrincipalID: principalID,
			Error:       err.Error(),
		})
		return "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	m.metrics.Inc(MetricSessionAdmitted)
	m.metrics.Add(MetricSessionEvicted, uint64(len(evicted)))

	for _, evictedID := range evicted {
		m.emitAudit(ctx, AuditEvent{
			EventType:   auditEventSessionEvicted,
			PrincipalID: principalID,
			SessionID:   evictedID,
			Success:     true,
		})
	}
	m.emitAudit(ctx, AuditEvent{
		EventType:   auditEventSessionAdmitted,
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          deviceIP(rec.Device),
		Success:     true,
	})

	return sessionID, nil
}

// Read resolves a session by id. On a hit the record's LastActivityAt is
// bumped and its TTL reset to the full configured duration; the refreshed
// record is returned with found=true. An expired or unknown id returns
// found=false and a nil error — absence is a normal outcome, not a failure.
func (m *Manager) Read(ctx context.Context, sessionID string) (*session.Record, bool, error) {
	if m == nil || m.store == nil {
		return nil, false, ErrManagerNotReady
	}

	start := time.Now()
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			m.metrics.Inc(MetricSessionReadMiss)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrSessionOperationFailed, err)
	}

	m.metrics.Inc(MetricSessionReadHit)
	m.metrics.Observe(MetricReadLatency, time.Since(start))
	return rec, true, nil
}

// Invalidate removes a single session. Unknown or already expired ids are a
// no-op, never an error; invalidation is idempotent.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	if m == nil || m.store == nil {
		return ErrManagerNotReady
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionInvalidationFailed, err)
	}

	m.metrics.Inc(MetricSessionInvalidated)
	m.emitAudit(ctx, AuditEvent{
		EventType: auditEventSessionInvalidated,
		SessionID: sessionID,
		Success:   true,
	})
	return nil
}

// InvalidateAllForPrincipal removes every session belonging to principalID
// and returns how many were removed. This is the "log out everywhere"
// operation used after password changes and forced de-authentication.
func (m *Manager) InvalidateAllForPrincipal(ctx context.Context, principalID string) (int, error) {
	if m == nil || m.store == nil {
		return 0, ErrManagerNotReady
	}
	if principalID == "" {
		return 0, ErrPrincipalRequired
	}

	removed, err := m.store.DeleteAllForPrincipal(ctx, principalID)
	if err != nil {
		return removed, fmt.Errorf("%w: %v", ErrSessionInvalidationFailed, err)
	}

	m.metrics.Inc(MetricCascadeInvalidated)
	m.emitAudit(ctx, AuditEvent{
		EventType:   auditEventLogoutAll,
		PrincipalID: principalID,
		Success:     true,
		Metadata:    map[string]string{"removed": strconv.Itoa(removed)},
	})
	return removed, nil
}

// UpdateExtensionData shallow-merges patch into the session's extension bag
// and resets the TTL, mirroring Read's refresh semantics. A missing session
// is a silent no-op, matching Invalidate's idempotence.
func (m *Manager) UpdateExtensionData(ctx context.Context, sessionID string, patch map[string]interface{}) error {
	if m == nil || m.store == nil {
		return ErrManagerNotReady
	}

	if err := m.store.MergeExtension(ctx, sessionID, patch); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionOperationFailed, err)
	}

	m.metrics.Inc(MetricExtensionMerged)
	return nil
}

// ListForPrincipal returns the principal's live sessions, oldest first. Ids
// that no longer resolve are skipped and lazily pruned from the index.
func (m *Manager) ListForPrincipal(ctx context.Context, principalID string) ([]*session.Record, error) {
	if m == nil || m.store == nil {
		return nil, ErrManagerNotReady
	}
	if principalID == "" {
		return nil, ErrPrincipalRequired
	}

	records, err := m.store.ListForPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionOperationFailed, err)
	}
	return records, nil
}

// Stats computes a point-in-time snapshot of store-wide metrics. No
// synchronization is attempted against concurrent admits or invalidations;
// the numbers are eventually consistent.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	if m == nil || m.store == nil {
		return Stats{}, ErrManagerNotReady
	}

	total, err := m.store.KeyspaceSize(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrSessionOperationFailed, err)
	}

	principals, tracked, err := m.store.ScanIndexes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrSessionOperationFailed, err)
	}

	stats := Stats{
		TotalSessions:      total,
		DistinctPrincipals: principals,
	}
	if principals > 0 {
		stats.AverageSessionsPerPrincipal = float64(tracked) / float64(principals)
	}

	m.metrics.Inc(MetricStatsComputed)
	return stats, nil
}

// Ping returns a point-in-time cache availability check and latency.
func (m *Manager) Ping(ctx context.Context) (time.Duration, error) {
	if m == nil || m.store == nil {
		return 0, ErrManagerNotReady
	}
	return m.store.Ping(ctx)
}

// MetricsSnapshot copies the current metric registry state.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close stops the audit dispatcher after draining buffered events. The
// Manager must not be used afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

func (m *Manager) emitAudit(ctx context.Context, event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	m.audit.Emit(ctx, event)
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneDevice(in *session.DeviceContext) *session.DeviceContext {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func cloneExtension(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func deviceIP(d *session.DeviceContext) string {
	if d == nil {
		return ""
	}
	return d.IP
}
