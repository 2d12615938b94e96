package sessions

import (
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crmkit/sessions/internal"
	"github.com/crmkit/sessions/session"
)

// Builder assembles a [Manager] from a configuration, a Redis client, and
// optional observability hooks. Construction is allocation-only; no I/O
// happens until the first Manager call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client used for all persistence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the sink receiving lifecycle events. Ignored unless
// audit is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuditEnabled toggles the async audit dispatcher.
func (b *Builder) WithAuditEnabled(enabled bool) *Builder {
	b.config.Audit.Enabled = enabled
	return b
}

// WithMetricsEnabled toggles the metric registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the read-latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready [Manager]. A Builder
// is single-use.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	store := session.NewStore(
		b.redis,
		b.config.Session.RedisPrefix,
		b.config.Session.IndexPrefix,
		b.config.Session.TTL,
		b.config.Session.MaxSessionsPerPrincipal,
		b.config.Session.MaxRecordSize,
	)

	m := &Manager{
		config:  b.config,
		store:   store,
		metrics: NewMetrics(b.config.Metrics),
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
		newID:   idGenerator(b.config.Session.IDStrategy),
	}

	b.built = true
	return m, nil
}

func idGenerator(strategy IDStrategyType) func() (string, error) {
	switch strategy {
	case IDUUID:
		return func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}
	default:
		return func() (string, error) {
			sid, err := internal.NewSessionID()
			if err != nil {
				return "", err
			}
			return sid.String(), nil
		}
	}
}
