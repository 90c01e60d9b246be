package fingers

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
	"github.com/san-kum/graspsim/internal/spatial"
)

// Driver owns a hand's finger chains and their interpolation parameters.
type Driver struct {
	poses   *PoseSet
	chains  []*Chain
	step    float64
	params  []float64
	contact []bool
}

// NewDriver validates the chains against the pose set and resets every
// finger to open. A chain without a tip detector fails with
// ErrMissingFingerCollider.
func NewDriver(poses *PoseSet, chains []*Chain, step float64) (*Driver, error) {
	if step <= 0 || step > 1 || math.IsNaN(step) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	if len(chains) > poses.Fingers() {
		return nil, fmt.Errorf("%w: %d chains, pose set has %d fingers", ErrJointCount, len(chains), poses.Fingers())
	}
	for i, c := range chains {
		if c.Tip == nil || c.Tip.Radius <= 0 {
			return nil, fmt.Errorf("%w: finger %d (%s)", ErrMissingFingerCollider, i, c.Name)
		}
		if len(c.Joints) != poses.JointsPerFinger() {
			return nil, fmt.Errorf("%w: finger %d (%s) has %d joints, expected %d",
				ErrJointCount, i, c.Name, len(c.Joints), poses.JointsPerFinger())
		}
	}

	d := &Driver{
		poses:   poses,
		chains:  chains,
		step:    step,
		params:  make([]float64, len(chains)),
		contact: make([]bool, len(chains)),
	}
	d.Open()
	return d, nil
}

func (d *Driver) Fingers() int { return len(d.chains) }

func (d *Driver) Chain(f int) *Chain { return d.chains[f] }

func (d *Driver) Step() float64 { return d.step }

// Param returns finger f's interpolation parameter, 0 open and 1 closed.
func (d *Driver) Param(f int) float64 { return d.params[f] }

// Params returns a copy of every finger's parameter.
func (d *Driver) Params() []float64 {
	out := make([]float64, len(d.params))
	copy(out, d.params)
	return out
}

// Touching reports whether finger f stopped on contact during the last sweep.
func (d *Driver) Touching(f int) bool { return d.contact[f] }

// SetInterpolation poses every joint of finger f at parameter t.
func (d *Driver) SetInterpolation(f int, t float64) {
	t = mgl64.Clamp(t, 0, 1)
	c := d.chains[f]
	for j := range c.Joints {
		p, _ := d.poses.Lookup(f, j)
		c.Joints[j].Rotation = spatial.Slerp(p.Open, p.Close, t)
	}
	d.params[f] = t
}

// Open resets every finger to the open pose at once.
func (d *Driver) Open() {
	for f := range d.chains {
		d.SetInterpolation(f, 0)
		d.contact[f] = false
	}
}

// Sweep returns a closing sequence. Each resume advances every finger that
// is still moving by one step, then tests its tip against mask; a touching
// finger holds its parameter. handPose supplies the hand body's current
// pose on every resume.
func (d *Driver) Sweep(query physics.Query, mask physics.Category, handPose func() spatial.Pose) *Sweep {
	return &Sweep{
		driver:   d,
		query:    query,
		mask:     mask,
		handPose: handPose,
		steps:    make([]int, len(d.chains)),
		active:   make([]bool, len(d.chains)),
	}
}

// Sweep is the closing state machine. It implements sched.Sequence.
type Sweep struct {
	driver   *Driver
	query    physics.Query
	mask     physics.Category
	handPose func() spatial.Pose
	steps    []int
	active   []bool
	started  bool
}

func (s *Sweep) Resume(uint64) sched.Wait {
	d := s.driver
	if !s.started {
		for f := range s.active {
			s.active[f] = true
			d.contact[f] = false
		}
		s.started = true
	}

	hand := s.handPose()
	moving := false
	for f := range s.active {
		if !s.active[f] {
			continue
		}
		t := math.Min(1, float64(s.steps[f])*d.step)
		d.SetInterpolation(f, t)

		tip := d.chains[f].Tip
		if s.query.CheckSphere(d.chains[f].TipPosition(hand), tip.Radius, s.mask) {
			d.contact[f] = true
			s.active[f] = false
			continue
		}
		if t >= 1 {
			s.active[f] = false
			continue
		}
		s.steps[f]++
		moving = true
	}

	if !moving {
		return sched.Done()
	}
	return sched.Next()
}

// Done reports whether every finger has stopped.
func (s *Sweep) Done() bool {
	if !s.started {
		return false
	}
	for _, a := range s.active {
		if a {
			return false
		}
	}
	return true
}
