package control

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/spatial"
)

// Spring is the frequency/damping pair shaping the angular response.
// With damping 1 the system is critically damped and frequency is roughly
// the inverse of the time to reach 95% of the target.
type Spring struct {
	Frequency float64 `yaml:"frequency"`
	Damping   float64 `yaml:"damping"`
}

type Gains struct {
	RotationStrength float64
	// VelocityStrength scales the linear correction horizon: the position
	// error is closed over tick/VelocityStrength seconds.
	VelocityStrength float64
	// MaxAngularStep caps, in degrees, how far the intermediate target
	// orientation leads the current one on a single tick. Zero disables it.
	MaxAngularStep float64
	// SnapEpsilon is the position error under which only velocity is
	// cancelled. Zero disables it.
	SnapEpsilon float64
}

// Output is the result of one controller evaluation.
type Output struct {
	Force      mgl64.Vec3
	Torque     mgl64.Vec3
	TargetRot  mgl64.Quat
	Correction mgl64.Quat
	PosError   float64
}

type PosePD struct {
	Gains
	tick float64
}

func NewPosePD(gains Gains, tickDuration float64) *PosePD {
	return &PosePD{Gains: gains, tick: tickDuration}
}

func (c *PosePD) TickDuration() float64 { return c.tick }

// Coefficients returns the proportional and derivative gains for a spring.
func (c *PosePD) Coefficients(s Spring) (kp, kd float64) {
	f := 6 * s.Frequency
	kp = f * f * 0.25 * c.RotationStrength
	kd = 4.5 * s.Frequency * s.Damping
	return kp, kd
}

// Compute evaluates the controller for body toward target.
func (c *PosePD) Compute(body physics.BodyState, target spatial.Pose, spring Spring) Output {
	out := Output{TargetRot: body.Rotation, Correction: mgl64.QuatIdent()}

	delta := target.Position.Sub(body.Position)
	out.PosError = delta.Len()
	if body.Mass > 0 && c.VelocityStrength > 0 {
		horizon := c.tick / c.VelocityStrength
		if c.SnapEpsilon > 0 && out.PosError < c.SnapEpsilon {
			out.Force = body.Velocity.Mul(-body.Mass)
		} else {
			out.Force = delta.Sub(body.Velocity.Mul(horizon)).Mul(body.Mass / horizon)
		}
	}

	targetRot := target.Rotation
	if c.MaxAngularStep > 0 {
		targetRot = spatial.RotateTowards(body.Rotation, targetRot, mgl64.DegToRad(c.MaxAngularStep))
	}
	out.TargetRot = targetRot
	out.Correction = spatial.Relative(body.Rotation, targetRot)

	kp, kd := c.Coefficients(spring)
	angle, axis := spatial.AngleAxis(out.Correction)
	desired := axis.Mul(kp * angle).Sub(body.AngularVelocity.Mul(kd))

	principal := body.Rotation.Mul(body.InertiaRotation).Normalize()
	local := principal.Inverse().Rotate(desired)
	out.Torque = principal.Rotate(spatial.ScaleComponents(body.InertiaTensor, local))
	return out
}

// Apply hands the output to the backend: the force as an impulse, the
// torque as a continuous torque over the next step.
func (c *PosePD) Apply(dyn physics.Dynamics, id physics.BodyID, out Output) {
	dyn.AddForce(id, out.Force, physics.ForceModeImpulse)
	dyn.AddTorque(id, out.Torque, physics.ForceModeForce)
}

// Drive computes and applies the controller for one body. It reports false
// when the backend does not know the body.
func (c *PosePD) Drive(dyn physics.Dynamics, id physics.BodyID, target spatial.Pose, spring Spring) (Output, bool) {
	body, ok := dyn.Body(id)
	if !ok {
		return Output{}, false
	}
	out := c.Compute(body, target, spring)
	c.Apply(dyn, id, out)
	return out, true
}

// GetParams returns tunable parameters for live adjustment
func (c *PosePD) GetParams() map[string]float64 {
	return map[string]float64{
		"rotation_strength": c.RotationStrength,
		"velocity_strength": c.VelocityStrength,
		"max_angular_step":  c.MaxAngularStep,
		"snap_epsilon":      c.SnapEpsilon,
	}
}

// SetParam adjusts a controller parameter
func (c *PosePD) SetParam(name string, value float64) error {
	switch name {
	case "rotation_strength":
		c.RotationStrength = value
	case "velocity_strength":
		c.VelocityStrength = value
	case "max_angular_step":
		c.MaxAngularStep = value
	case "snap_epsilon":
		c.SnapEpsilon = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
