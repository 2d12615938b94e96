package sessions

import (
	"testing"
	"time"
)

func TestDefaultConfigMatchesReferencePolicy(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("expected 24h TTL, got %v", cfg.Session.TTL)
	}
	if cfg.Session.MaxSessionsPerPrincipal != 5 {
		t.Fatalf("expected cap 5, got %d", cfg.Session.MaxSessionsPerPrincipal)
	}
	if cfg.Session.RedisPrefix != "session" || cfg.Session.IndexPrefix != "user_sessions" {
		t.Fatalf("key namespaces are part of the wire contract, got %q/%q",
			cfg.Session.RedisPrefix, cfg.Session.IndexPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"sub-second ttl", func(c *Config) { c.Session.TTL = 500 * time.Millisecond }},
		{"negative cap", func(c *Config) { c.Session.MaxSessionsPerPrincipal = -1 }},
		{"negative record size", func(c *Config) { c.Session.MaxRecordSize = -1 }},
		{"empty record prefix", func(c *Config) { c.Session.RedisPrefix = "" }},
		{"empty index prefix", func(c *Config) { c.Session.IndexPrefix = "" }},
		{"colon in prefix", func(c *Config) { c.Session.RedisPrefix = "ses:sion" }},
		{"identical prefixes", func(c *Config) { c.Session.IndexPrefix = c.Session.RedisPrefix }},
		{"unknown id strategy", func(c *Config) { c.Session.IDStrategy = IDStrategyType(99) }},
		{"audit enabled without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestZeroCapDisablesEnforcement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.MaxSessionsPerPrincipal = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("cap 0 must be valid (unlimited): %v", err)
	}
}
