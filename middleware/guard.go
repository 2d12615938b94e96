package middleware

import (
	"context"
	"net/http"
	"strings"

	sessions "github.com/crmkit/sessions"
	"github.com/crmkit/sessions/session"
)

type recordContextKey struct{}

// RecordFromContext returns the session record injected by [Guard].
func RecordFromContext(ctx context.Context) (*session.Record, bool) {
	rec, ok := ctx.Value(recordContextKey{}).(*session.Record)
	return rec, ok
}

// Guard rejects requests whose bearer token does not resolve to a live
// session. On success the record is available via [RecordFromContext].
func Guard(manager *sessions.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sid, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rec, found, err := manager.Read(r.Context(), sid)
			if err != nil || !found {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), recordContextKey{}, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
