package grasp

import "github.com/san-kum/graspsim/internal/physics"

type HandID int

type GrabbableID int

// NoGrabbable is the empty grabbable reference.
const NoGrabbable GrabbableID = -1

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Categories names the collision categories the grasp layer assigns. A
// grabbable moves between the four grabbable categories as hands take and
// release it.
type Categories struct {
	Grabbable physics.Category
	HeldLeft  physics.Category
	HeldRight physics.Category
	HeldBoth  physics.Category
	Hand      physics.Category
}

func DefaultCategories() Categories {
	return Categories{
		Grabbable: 1 << 1,
		HeldLeft:  1 << 2,
		HeldRight: 1 << 3,
		HeldBoth:  1 << 4,
		Hand:      1 << 5,
	}
}

// For returns the category of a grabbable with the given holders.
func (c Categories) For(left, right bool) physics.Category {
	switch {
	case left && right:
		return c.HeldBoth
	case left:
		return c.HeldLeft
	case right:
		return c.HeldRight
	default:
		return c.Grabbable
	}
}

// Candidates is the mask a hand on side accepts candidates from: free
// grabbables and those held only by the opposite hand.
func (c Categories) Candidates(side Side) physics.Category {
	if side == Left {
		return c.Grabbable | c.HeldRight
	}
	return c.Grabbable | c.HeldLeft
}

// AnyGrabbable is the union of every grabbable category.
func (c Categories) AnyGrabbable() physics.Category {
	return c.Grabbable | c.HeldLeft | c.HeldRight | c.HeldBoth
}

// Selectable is the ray mask of the distance selector: everything but hands
// and held objects, so those neither get selected nor block the ray.
func (c Categories) Selectable() physics.Category {
	return ^(c.Hand | c.HeldLeft | c.HeldRight | c.HeldBoth)
}
