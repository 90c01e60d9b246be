package grasp

import "github.com/san-kum/graspsim/internal/physics"

type overlap struct {
	collider  physics.ColliderID
	grabbable GrabbableID
}

// CandidateSet is the insertion-ordered set of grabbable colliders inside a
// hand's trigger volume. One grabbable may appear through several of its
// colliders.
type CandidateSet struct {
	entries []overlap
}

// Enter records collider of grabbable g. Repeated enters are ignored.
func (s *CandidateSet) Enter(collider physics.ColliderID, g GrabbableID) {
	for _, e := range s.entries {
		if e.collider == collider {
			return
		}
	}
	s.entries = append(s.entries, overlap{collider: collider, grabbable: g})
}

// Exit forgets collider, keeping the order of the rest.
func (s *CandidateSet) Exit(collider physics.ColliderID) {
	for i, e := range s.entries {
		if e.collider == collider {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Best returns the earliest entered grabbable admit accepts.
func (s *CandidateSet) Best(admit func(GrabbableID) bool) (GrabbableID, bool) {
	for _, e := range s.entries {
		if admit(e.grabbable) {
			return e.grabbable, true
		}
	}
	return NoGrabbable, false
}

// Contains reports whether any collider of g is inside the volume.
func (s *CandidateSet) Contains(g GrabbableID) bool {
	for _, e := range s.entries {
		if e.grabbable == g {
			return true
		}
	}
	return false
}

func (s *CandidateSet) Len() int { return len(s.entries) }

func (s *CandidateSet) Clear() { s.entries = s.entries[:0] }
