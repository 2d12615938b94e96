package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sessions "github.com/crmkit/sessions"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newGuardTest(t *testing.T) (*sessions.Manager, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	manager, err := sessions.New().
		WithConfig(sessions.DefaultConfig()).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	return manager, func() {
		manager.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func TestGuardRejectsMissingAndMalformedHeader(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()

	handler := Guard(manager)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"", "Bearer ", "Token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestGuardRejectsUnknownSession(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()

	handler := Guard(manager)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer no-such-session")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardInjectsRecordForLiveSession(t *testing.T) {
	manager, done := newGuardTest(t)
	defer done()

	sid, err := manager.Admit(context.Background(), "u1", sessions.SessionData{
		Email:  "u1@example.com",
		RoleID: "member",
	})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	var sawPrincipal string
	handler := Guard(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := RecordFromContext(r.Context())
		if !ok {
			t.Fatal("expected record in context")
		}
		sawPrincipal = rec.PrincipalID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sid)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sawPrincipal != "u1" {
		t.Fatalf("expected principal u1, got %q", sawPrincipal)
	}
}

func TestGuardNilManagerRejects(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
