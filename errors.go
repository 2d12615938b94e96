package sessions

import "errors"

var (
	// ErrManagerNotReady is returned when a Manager is used before Build.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrPrincipalRequired is returned when an operation needs a principal id.
	ErrPrincipalRequired = errors.New("principal id required")
	// ErrSessionDataInvalid is returned when an admit payload is missing the
	// minimum claims snapshot.
	ErrSessionDataInvalid = errors.New("session data must include email and role id")
	// ErrSessionCreationFailed wraps cache failures during admit.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed wraps cache failures during invalidation.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrSessionOperationFailed wraps cache failures on reads, extension
	// merges, listings, and statistics.
	ErrSessionOperationFailed = errors.New("session operation failed")
)
