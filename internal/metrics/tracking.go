package metrics

import (
	"math"

	"github.com/san-kum/graspsim/internal/session"
)

// TrackingError is the mean distance between each hand body and its target.
type TrackingError struct {
	name    string
	sum     float64
	max     float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{
		name: "tracking_error",
	}
}

func (t *TrackingError) Name() string {
	return t.name
}

func (t *TrackingError) Observe(s session.Sample) {
	for _, h := range s.Hands {
		t.sum += h.TrackingError
		t.max = math.Max(t.max, h.TrackingError)
		t.samples++
	}
}

func (t *TrackingError) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

// Max is the worst tracking error seen.
func (t *TrackingError) Max() float64 {
	return t.max
}

func (t *TrackingError) Reset() {
	t.sum = 0
	t.max = 0
	t.samples = 0
}
