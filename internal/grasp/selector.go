package grasp

import (
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/spatial"
)

// Selector points a ray from the aim pose and highlights the free grabbable
// it lands on, so an empty hand can take objects out of reach.
type Selector struct {
	query    physics.Query
	registry *Registry
	owner    OutlineOwner
	rng      float64
	selected GrabbableID
}

func NewSelector(query physics.Query, registry *Registry, owner OutlineOwner, rng float64) *Selector {
	return &Selector{
		query:    query,
		registry: registry,
		owner:    owner,
		rng:      rng,
		selected: NoGrabbable,
	}
}

func (s *Selector) Range() float64 { return s.rng }

func (s *Selector) Selected() (GrabbableID, bool) {
	return s.selected, s.selected != NoGrabbable
}

// Update casts from aim along its forward axis when active and moves the
// highlight to whatever free grabbable it hits first. Hands and held
// objects neither get selected nor block the ray.
func (s *Selector) Update(aim spatial.Pose, active bool) {
	next := NoGrabbable
	if active {
		hit, ok := s.query.Raycast(aim.Position, aim.Forward(), s.rng, s.registry.Categories().Selectable())
		if ok {
			if g, found := s.registry.ByBody(hit.Body); found && !g.IsGrabbed() {
				next = g.ID
			}
		}
	}
	s.set(next)
}

// Clear drops the selection and its highlight.
func (s *Selector) Clear() { s.set(NoGrabbable) }

func (s *Selector) set(next GrabbableID) {
	if next == s.selected {
		return
	}
	if s.selected != NoGrabbable {
		s.registry.SetOutline(s.selected, s.owner, false)
	}
	if next != NoGrabbable {
		s.registry.SetOutline(next, s.owner, true)
	}
	s.selected = next
}
