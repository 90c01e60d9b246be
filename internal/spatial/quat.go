package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const angleEpsilon = 1e-9

// ShortestArc flips q onto the hemisphere with a non-negative scalar part.
// q and -q encode the same orientation, but only this one walks the short
// way round.
func ShortestArc(q mgl64.Quat) mgl64.Quat {
	if q.W < 0 {
		return mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	return q
}

// Relative returns the rotation taking from onto to, on the short arc.
func Relative(from, to mgl64.Quat) mgl64.Quat {
	return ShortestArc(to.Mul(from.Inverse()).Normalize())
}

// AngleAxis decomposes a unit quaternion into an angle in radians within
// [0, 2π) and a unit axis. The identity yields angle 0 and the +X axis.
func AngleAxis(q mgl64.Quat) (float64, mgl64.Vec3) {
	q = q.Normalize()
	w := mgl64.Clamp(q.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < angleEpsilon {
		return 0, mgl64.Vec3{1, 0, 0}
	}
	return angle, q.V.Mul(1 / s)
}

// Angle returns the short-arc angle in radians between two orientations.
func Angle(a, b mgl64.Quat) float64 {
	angle, _ := AngleAxis(Relative(a, b))
	return angle
}

// RotateTowards rotates from toward to by at most maxRadians, taking the
// short arc. It returns to exactly when the remaining angle fits the cap.
func RotateTowards(from, to mgl64.Quat, maxRadians float64) mgl64.Quat {
	angle := Angle(from, to)
	if angle <= maxRadians || angle < angleEpsilon {
		return to
	}
	return Slerp(from, to, maxRadians/angle)
}

// Slerp interpolates on the short arc. mgl64.QuatSlerp does not flip
// hemispheres, so the target is negated first when needed.
func Slerp(from, to mgl64.Quat, t float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return mgl64.QuatSlerp(from, to, mgl64.Clamp(t, 0, 1)).Normalize()
}

// ScaleComponents multiplies a and b component-wise.
func ScaleComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
