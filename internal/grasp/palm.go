package grasp

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/spatial"
)

// Palm is the sweep geometry used to seat an object against the hand.
// Offset places the palm in the hand body's frame; the sweep starts
// BackOffset behind the palm and sweeps SweepDistance along its forward axis.
type Palm struct {
	Offset        spatial.Pose
	Radius        float64
	BackOffset    float64
	SweepDistance float64
}

// Frame returns the palm pose in world space for a hand at pose hand.
func (p Palm) Frame(hand spatial.Pose) spatial.Pose {
	return hand.Compose(p.Offset)
}

// FitResult is the outcome of a palm sweep.
type FitResult struct {
	Palm   mgl64.Vec3
	Hit    physics.Hit
	Hits   int
	Offset mgl64.Vec3
}

// Sweep casts the palm sphere against mask and picks the hit on target,
// ignoring nearer hits on other bodies. Offset is the translation to apply
// to the target body.
func (p Palm) Sweep(q physics.Query, hand spatial.Pose, target physics.BodyID, mask physics.Category) (FitResult, bool) {
	frame := p.Frame(hand)
	fwd := frame.Forward()
	origin := frame.Position.Sub(fwd.Mul(p.BackOffset))

	hits := q.SphereCastAll(origin, fwd, p.Radius, p.SweepDistance, mask)
	res := FitResult{Palm: frame.Position, Hits: len(hits)}
	for _, h := range hits {
		if h.Body != target {
			continue
		}
		res.Hit = h
		res.Offset = h.Point.Sub(frame.Position)
		return res, true
	}
	return res, false
}
