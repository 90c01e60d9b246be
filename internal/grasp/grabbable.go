package grasp

import (
	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/physics"
)

// holder is one slot of the held-by relation.
type holder struct {
	hand HandID
	side Side
}

// holders is the held-by relation of a grabbable. Capacity two, one hand
// per side, so GrabbedCount can never exceed two.
type holders struct {
	slots [2]holder
	n     int
}

func (h *holders) add(hand HandID, side Side) error {
	for i := 0; i < h.n; i++ {
		if h.slots[i].side == side {
			return ErrSideTaken
		}
	}
	h.slots[h.n] = holder{hand: hand, side: side}
	h.n++
	return nil
}

func (h *holders) remove(hand HandID) bool {
	for i := 0; i < h.n; i++ {
		if h.slots[i].hand == hand {
			h.slots[i] = h.slots[h.n-1]
			h.slots[h.n-1] = holder{}
			h.n--
			return true
		}
	}
	return false
}

func (h *holders) has(hand HandID) bool {
	for i := 0; i < h.n; i++ {
		if h.slots[i].hand == hand {
			return true
		}
	}
	return false
}

func (h *holders) side(s Side) bool {
	for i := 0; i < h.n; i++ {
		if h.slots[i].side == s {
			return true
		}
	}
	return false
}

// OutlineOwner is whoever lights an outline: a hand or a distance selector.
type OutlineOwner int

// Grabbable is a registered dynamic body hands can pick up.
type Grabbable struct {
	ID     GrabbableID
	Name   string
	Body   physics.BodyID
	Spring control.Spring

	held holders
	lit  []OutlineOwner
}

func (g *Grabbable) GrabbedLeft() bool  { return g.held.side(Left) }
func (g *Grabbable) GrabbedRight() bool { return g.held.side(Right) }
func (g *Grabbable) GrabbedCount() int  { return g.held.n }
func (g *Grabbable) IsGrabbed() bool    { return g.held.n > 0 }

// HeldBy reports whether hand currently holds g.
func (g *Grabbable) HeldBy(hand HandID) bool { return g.held.has(hand) }

// OutlineVisible reports whether any owner lights g's outline.
func (g *Grabbable) OutlineVisible() bool { return len(g.lit) > 0 }

// LitBy reports whether owner lights g's outline.
func (g *Grabbable) LitBy(owner OutlineOwner) bool {
	for _, o := range g.lit {
		if o == owner {
			return true
		}
	}
	return false
}

// setLit adds or removes owner and reports whether visibility changed.
func (g *Grabbable) setLit(owner OutlineOwner, on bool) bool {
	was := g.OutlineVisible()
	idx := -1
	for i, o := range g.lit {
		if o == owner {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		g.lit = append(g.lit, owner)
	case !on && idx >= 0:
		g.lit = append(g.lit[:idx], g.lit[idx+1:]...)
	}
	return was != g.OutlineVisible()
}
