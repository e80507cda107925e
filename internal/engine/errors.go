package engine

import "errors"

// Sentinel errors shared by the tree, likes and karma packages. Handlers map
// these to HTTP statuses; everything else is treated as an internal error.
var (
	// ErrNotFound means the referenced post, comment or like target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an insert collided with an existing identity.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyLiked means the actor already holds a live like on the target.
	ErrAlreadyLiked = errors.New("already liked")

	// ErrNotLiked means there is no live like to remove.
	ErrNotLiked = errors.New("not liked")

	// ErrInvariantViolation means a tree mutation would break the interval
	// invariants. It indicates a defect in the indexer and always aborts the
	// enclosing transaction.
	ErrInvariantViolation = errors.New("interval invariant violation")
)
