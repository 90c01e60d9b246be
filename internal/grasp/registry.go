package grasp

import (
	"fmt"

	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/physics"
)

// Highlighter is the visual layer showing or hiding a grabbable's outline.
type Highlighter interface {
	SetOutline(id GrabbableID, visible bool)
}

// HighlighterFunc adapts a function to [Highlighter].
type HighlighterFunc func(id GrabbableID, visible bool)

func (f HighlighterFunc) SetOutline(id GrabbableID, visible bool) { f(id, visible) }

// Registry is the arena of grabbables, keyed by stable ids and by body.
type Registry struct {
	dyn         physics.Dynamics
	categories  Categories
	highlighter Highlighter
	grabbables  []*Grabbable
	byBody      map[physics.BodyID]GrabbableID
}

func NewRegistry(dyn physics.Dynamics, categories Categories, highlighter Highlighter) *Registry {
	return &Registry{
		dyn:         dyn,
		categories:  categories,
		highlighter: highlighter,
		byBody:      make(map[physics.BodyID]GrabbableID),
	}
}

func (r *Registry) Categories() Categories { return r.categories }

// Add registers body as grabbable, puts it in the free category and hides
// its outline.
func (r *Registry) Add(name string, body physics.BodyID, spring control.Spring) (GrabbableID, error) {
	if _, ok := r.dyn.Body(body); !ok {
		return NoGrabbable, fmt.Errorf("%w: body %d", ErrUnknownGrabbable, body)
	}
	if _, dup := r.byBody[body]; dup {
		return NoGrabbable, fmt.Errorf("grasp: body %d registered twice", body)
	}
	id := GrabbableID(len(r.grabbables))
	r.grabbables = append(r.grabbables, &Grabbable{ID: id, Name: name, Body: body, Spring: spring})
	r.byBody[body] = id
	r.dyn.SetCategory(body, r.categories.Grabbable)
	if r.highlighter != nil {
		r.highlighter.SetOutline(id, false)
	}
	return id, nil
}

func (r *Registry) Get(id GrabbableID) (*Grabbable, bool) {
	if id < 0 || int(id) >= len(r.grabbables) {
		return nil, false
	}
	return r.grabbables[id], true
}

func (r *Registry) ByBody(body physics.BodyID) (*Grabbable, bool) {
	id, ok := r.byBody[body]
	if !ok {
		return nil, false
	}
	return r.grabbables[id], true
}

func (r *Registry) All() []*Grabbable {
	out := make([]*Grabbable, len(r.grabbables))
	copy(out, r.grabbables)
	return out
}

// Category returns the category g currently belongs to.
func (r *Registry) Category(g *Grabbable) physics.Category {
	return r.categories.For(g.GrabbedLeft(), g.GrabbedRight())
}

func (r *Registry) hold(g *Grabbable, hand HandID, side Side) error {
	if err := g.held.add(hand, side); err != nil {
		return err
	}
	r.dyn.SetCategory(g.Body, r.Category(g))
	return nil
}

func (r *Registry) release(g *Grabbable, hand HandID) bool {
	if !g.held.remove(hand) {
		return false
	}
	r.dyn.SetCategory(g.Body, r.Category(g))
	return true
}

// SetOutline lights or clears owner's outline on id, notifying the
// highlighter when overall visibility flips.
func (r *Registry) SetOutline(id GrabbableID, owner OutlineOwner, on bool) {
	g, ok := r.Get(id)
	if !ok {
		return
	}
	if g.setLit(owner, on) && r.highlighter != nil {
		r.highlighter.SetOutline(id, g.OutlineVisible())
	}
}
