package sessions

import "github.com/crmkit/sessions/session"

// SessionData is the claims snapshot supplied by the authentication flow when
// admitting a session. Email and RoleID are required; everything else is
// optional. The snapshot is copied into the stored record and never re-synced
// from the user source of truth while the session lives.
type SessionData struct {
	Email        string
	RoleID       string
	Capabilities []string
	Device       *session.DeviceContext
	Extension    map[string]interface{}
}

// Stats is a point-in-time, eventually-consistent snapshot of the store.
//
// TotalSessions is drawn from the cache's keyspace size and can include
// non-session keys when the cache is shared; it is an approximation, not an
// exact count.
type Stats struct {
	TotalSessions               int64
	DistinctPrincipals          int
	AverageSessionsPerPrincipal float64
}
