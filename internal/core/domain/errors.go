package domain

import "errors"

// Domain errors represent the failure taxonomy of the sync engine.
// Adapters map transport-level failures onto these so the core can
// classify without knowing the remote protocol.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// During synchronisation it is treated as a deletion.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a write supplied a stale version
	// token. It triggers the force-write retry and is never surfaced
	// raw to the user.
	ErrVersionConflict = errors.New("version conflict")

	// ErrTokenExpired indicates a change token is no longer valid.
	// The entire local inventory must be rebuilt from a fresh scan.
	ErrTokenExpired = errors.New("change token expired")

	// ErrPermissionDenied indicates the operation is not allowed.
	// Fatal for that operation; never retried.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTransient indicates a retryable network-level failure.
	ErrTransient = errors.New("transient remote failure")

	// ErrRateLimited indicates the remote store throttled the call.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformed indicates an unexpected shape from the remote
	// store. The affected record is logged and skipped, never the
	// whole batch.
	ErrMalformed = errors.New("malformed remote data")

	// ErrShutdown indicates the engine is stopping.
	ErrShutdown = errors.New("engine shutting down")
)

// IsRetryable reports whether an error is worth a bounded retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
