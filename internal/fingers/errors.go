package fingers

import "errors"

var (
	// ErrPoseSetShape indicates open/close tables that do not form a
	// finger-by-joint grid.
	ErrPoseSetShape = errors.New("fingers: malformed pose set")

	// ErrMissingFingerCollider indicates a finger chain without its
	// fingertip contact detector. This is an authoring error.
	ErrMissingFingerCollider = errors.New("fingers: finger has no contact detector")

	// ErrJointCount indicates a chain whose joint count differs from the
	// hand's joints-per-finger setting or the pose set.
	ErrJointCount = errors.New("fingers: joint count mismatch")

	// ErrInvalidStep indicates an interpolation step outside (0, 1].
	ErrInvalidStep = errors.New("fingers: interpolation step must be in (0, 1]")
)
