package grasp

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidate indicates a grab attempt with nothing to grab.
	ErrNoCandidate = errors.New("grasp: no grab candidate")

	// ErrAlreadyHolding indicates a grab attempt by a hand that holds something.
	ErrAlreadyHolding = errors.New("grasp: hand already holds an object")

	// ErrFitFailure indicates the palm sweep did not find the candidate.
	ErrFitFailure = errors.New("grasp: palm sweep missed the candidate")

	// ErrJointCreate indicates the backend refused to create the grasp joint.
	ErrJointCreate = errors.New("grasp: joint creation failed")

	// ErrSideTaken indicates a grabbable already held on the given side.
	ErrSideTaken = errors.New("grasp: grabbable already held on this side")

	// ErrUnknownGrabbable indicates an id or body that is not registered.
	ErrUnknownGrabbable = errors.New("grasp: unknown grabbable")
)

// FitError reports a failed palm fit with the attempt's context.
type FitError struct {
	Hand      HandID
	Grabbable GrabbableID
	Hits      int
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%v: hand %d, grabbable %d (%d other hits)", ErrFitFailure, e.Hand, e.Grabbable, e.Hits)
}

func (e *FitError) Unwrap() error {
	return ErrFitFailure
}
