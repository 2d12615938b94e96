//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"
	"time"

	sessions "github.com/crmkit/sessions"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				// Flush the test DB to avoid state leaking between runs.
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	return modes
}

// TestLifecycleAcrossBackends runs the full session lifecycle against every
// available Redis backend: admit, read, merge, list, cap eviction, single and
// cascade invalidation.
func TestLifecycleAcrossBackends(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			manager, err := sessions.New().
				WithConfig(sessions.DefaultConfig()).
				WithRedis(rdb).
				Build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			defer manager.Close()

			ctx := context.Background()

			sid, err := manager.Admit(ctx, "compat-u1", sessions.SessionData{
				Email:  "compat@example.com",
				RoleID: "member",
			})
			if err != nil {
				t.Fatalf("admit: %v", err)
			}

			rec, found, err := manager.Read(ctx, sid)
			if err != nil || !found {
				t.Fatalf("read: found=%v err=%v", found, err)
			}
			if rec.PrincipalID != "compat-u1" {
				t.Fatalf("unexpected principal %q", rec.PrincipalID)
			}

			if err := manager.UpdateExtensionData(ctx, sid, map[string]interface{}{"theme": "dark"}); err != nil {
				t.Fatalf("merge: %v", err)
			}
			rec, _, err = manager.Read(ctx, sid)
			if err != nil {
				t.Fatalf("re-read: %v", err)
			}
			if rec.Extension["theme"] != "dark" {
				t.Fatalf("expected merged extension, got %+v", rec.Extension)
			}

			// Exceed the default cap of 5 and confirm the oldest goes first.
			for i := 0; i < 5; i++ {
				if _, err := manager.Admit(ctx, "compat-u1", sessions.SessionData{
					Email:  "compat@example.com",
					RoleID: "member",
				}); err != nil {
					t.Fatalf("admit %d: %v", i, err)
				}
			}
			if _, found, err := manager.Read(ctx, sid); err != nil || found {
				t.Fatalf("expected first session evicted: found=%v err=%v", found, err)
			}

			live, err := manager.ListForPrincipal(ctx, "compat-u1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(live) != 5 {
				t.Fatalf("expected 5 live sessions, got %d", len(live))
			}

			if err := manager.Invalidate(ctx, live[0].SessionID); err != nil {
				t.Fatalf("invalidate: %v", err)
			}

			removed, err := manager.InvalidateAllForPrincipal(ctx, "compat-u1")
			if err != nil {
				t.Fatalf("cascade: %v", err)
			}
			if removed != 4 {
				t.Fatalf("expected 4 removed, got %d", removed)
			}
		})
	}
}
