//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/crmkit/sessions/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*session.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, "session", "user_sessions", time.Hour, 5, 8192)

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeRecord(principalID, sessionID string) *session.Record {
	now := time.Now().Unix()

	return &session.Record{
		SessionID:      sessionID,
		PrincipalID:    principalID,
		Email:          principalID + "@example.com",
		RoleID:         "member",
		Capabilities:   []string{"crm.read"},
		CreatedAt:      now,
		LastActivityAt: now,
	}
}
