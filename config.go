package sessions

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by the sessions APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// IDStrategyType selects how opaque session identifiers are generated.
type IDStrategyType int

const (
	// IDRandom generates 128-bit crypto/rand identifiers (base64url). Default.
	IDRandom IDStrategyType = iota
	// IDUUID generates RFC 4122 v4 identifiers.
	IDUUID
)

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime, the per-principal cap, and the
// Redis key namespaces.
type SessionConfig struct {
	// TTL is the full session lifetime. Every successful read resets the
	// remaining lifetime to this value (sliding window).
	TTL time.Duration
	// MaxSessionsPerPrincipal caps concurrent sessions per principal; admits
	// beyond the cap evict the oldest sessions by admit order. 0 disables
	// the cap.
	MaxSessionsPerPrincipal int
	// RedisPrefix is the record key namespace ("session" by default). Part of
	// the wire contract with cache inspection tooling.
	RedisPrefix string
	// IndexPrefix is the per-principal index namespace ("user_sessions" by
	// default). Part of the wire contract.
	IndexPrefix string
	// MaxRecordSize caps the encoded record size in bytes. 0 disables.
	MaxRecordSize int
	IDStrategy    IDStrategyType
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the lock-free metric registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the reference policy: 24h TTL, 5 sessions per
// principal, the session:/user_sessions: namespaces, audit and metrics off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:                     24 * time.Hour,
			MaxSessionsPerPrincipal: 5,
			RedisPrefix:             "session",
			IndexPrefix:             "user_sessions",
			MaxRecordSize:           8192,
			IDStrategy:              IDRandom,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(c Config) Config {
	// Value semantics: no reference fields today, kept as a seam so WithConfig
	// stays copy-safe if one is added.
	return c
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be at least one second")
	}
	if c.Session.MaxSessionsPerPrincipal < 0 {
		return errors.New("Session MaxSessionsPerPrincipal must be >= 0")
	}
	if c.Session.MaxRecordSize < 0 {
		return errors.New("Session MaxRecordSize must be >= 0")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix is required")
	}
	if c.Session.IndexPrefix == "" {
		return errors.New("Session IndexPrefix is required")
	}
	if strings.Contains(c.Session.RedisPrefix, ":") || strings.Contains(c.Session.IndexPrefix, ":") {
		return errors.New("Session key prefixes must not contain ':'")
	}
	if c.Session.RedisPrefix == c.Session.IndexPrefix {
		return errors.New("Session RedisPrefix and IndexPrefix must differ")
	}
	switch c.Session.IDStrategy {
	case IDRandom, IDUUID:
	default:
		return errors.New("Session IDStrategy is invalid")
	}

	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
