// Package fingers poses a hand's finger chains between an authored open and
// closed pose and closes them over several ticks until each fingertip
// touches something grabbable.
package fingers

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/spatial"
)

// Joint is one link of a finger. Offset places the joint in its parent's
// frame; Rotation is the local rotation the driver writes.
type Joint struct {
	Offset   mgl64.Vec3
	Rotation mgl64.Quat
}

// Tip is the fingertip contact detector, expressed in the last joint's frame.
type Tip struct {
	Offset mgl64.Vec3
	Radius float64
}

// Chain is a finger rooted in the hand body's frame.
type Chain struct {
	Name   string
	Root   spatial.Pose
	Joints []Joint
	Tip    *Tip
}

// Frames returns every joint's pose in the hand frame, root to tip.
func (c *Chain) Frames() []spatial.Pose {
	frames := make([]spatial.Pose, len(c.Joints))
	frame := c.Root
	for i, j := range c.Joints {
		frame = frame.Compose(spatial.Pose{Position: j.Offset, Rotation: j.Rotation})
		frames[i] = frame
	}
	return frames
}

// TipPosition returns the contact detector centre in world space for a hand
// at pose hand.
func (c *Chain) TipPosition(hand spatial.Pose) mgl64.Vec3 {
	last := c.Root
	if frames := c.Frames(); len(frames) > 0 {
		last = frames[len(frames)-1]
	}
	var off mgl64.Vec3
	if c.Tip != nil {
		off = c.Tip.Offset
	}
	return hand.Compose(last).Transform(off)
}

// StraightChain builds a finger of n joints laid out along the root's +Y
// axis, each link long, with a tip detector of the given radius. Passing a
// non-positive radius leaves the detector off.
func StraightChain(name string, root spatial.Pose, n int, link, tipRadius float64) *Chain {
	c := &Chain{Name: name, Root: root, Joints: make([]Joint, n)}
	for i := range c.Joints {
		off := mgl64.Vec3{0, link, 0}
		if i == 0 {
			off = mgl64.Vec3{}
		}
		c.Joints[i] = Joint{Offset: off, Rotation: mgl64.QuatIdent()}
	}
	if tipRadius > 0 {
		c.Tip = &Tip{Offset: mgl64.Vec3{0, link, 0}, Radius: tipRadius}
	}
	return c
}
