package engine

import "errors"

// Error kinds returned by a run. These are sentinels, not types: callers
// compare with errors.Is, and wrapping (fmt.Errorf("...: %w", ErrX)) is
// expected to carry extra context without losing the kind.
var (
	// ErrInsufficientTeams is returned before host partitioning when fewer
	// than three host-capable teams are available.
	ErrInsufficientTeams = errors.New("insufficient teams: need at least 3 host-capable teams")

	// ErrKitchenUnavailable is returned when the mandatory guest-kitchen
	// pass cannot find a feasible guest kitchen for a team that needs one.
	ErrKitchenUnavailable = errors.New("no feasible guest kitchen available")

	// ErrOracleFailure is returned when the route oracle cannot produce
	// any distance, not even the haversine fallback. Should not occur.
	ErrOracleFailure = errors.New("distance oracle exhausted all fallbacks")

	// ErrPersistenceFailure is returned when the assignment transaction
	// rolls back.
	ErrPersistenceFailure = errors.New("assignment persistence failed")

	// ErrCancelled is returned when cooperative cancellation is observed
	// at a phase boundary.
	ErrCancelled = errors.New("run cancelled")

	// ErrInvariantViolation is returned when the route validation pass
	// finds a broken invariant. No partial persistence follows.
	ErrInvariantViolation = errors.New("internal invariant violation")
)
