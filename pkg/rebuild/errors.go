package rebuild

import "errors"

// Sentinel failure causes. Per-operation errors recorded in Studio.Errors
// wrap one of these when the failure is structural rather than geometric,
// so callers can distinguish "your input is gone" from "the kernel said no".
var (
	// ErrMissingDependency marks an operation whose input operation
	// produced no usable result this rebuild: it failed, is suppressed,
	// or does not exist.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrEmptySelection marks a dress-up whose topology references all
	// went stale: nothing resolved against the current geometry.
	ErrEmptySelection = errors.New("empty selection")

	// ErrProfileNotFound marks a sweep whose sketch contains no usable
	// closed profile.
	ErrProfileNotFound = errors.New("no closed profile")
)
