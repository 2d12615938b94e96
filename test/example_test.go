package test

import (
	"context"

	sessions "github.com/crmkit/sessions"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates manager construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	manager, _ := sessions.New().
		WithConfig(sessions.DefaultConfig()).
		WithRedis(rdb).
		WithMetricsEnabled(true).
		Build()
	_ = manager
}

// ExampleManager_Admit shows a typical admit call after credential verification.
func ExampleManager_Admit() {
	var manager *sessions.Manager
	_, err := manager.Admit(context.Background(), "user-42", sessions.SessionData{
		Email:  "alice@example.com",
		RoleID: "member",
	})
	if err != nil {
		_ = err
	}
}

// ExampleManager_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleManager_MetricsSnapshot() {
	var manager *sessions.Manager
	snapshot := manager.MetricsSnapshot()
	_ = snapshot
}
