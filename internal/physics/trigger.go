package physics

import "github.com/go-gl/mathgl/mgl64"

// TriggerEvent reports a collider entering or leaving a trigger volume.
type TriggerEvent struct {
	Trigger  TriggerID
	Collider ColliderID
	Body     BodyID
	Enter    bool
}

type trigger struct {
	owner    BodyID
	offset   mgl64.Vec3
	radius   float64
	listener func(TriggerEvent)
	inside   map[ColliderID]bool
}

// AddTrigger attaches a spherical trigger volume to owner. The listener is
// called after each step for every collider entering or leaving it, in
// collider order. The owner's own colliders are never reported.
func (w *World) AddTrigger(owner BodyID, offset mgl64.Vec3, radius float64, listener func(TriggerEvent)) TriggerID {
	id := TriggerID(len(w.triggers))
	w.triggers = append(w.triggers, &trigger{
		owner:    owner,
		offset:   offset,
		radius:   radius,
		listener: listener,
		inside:   make(map[ColliderID]bool),
	})
	return id
}

func (w *World) updateTriggers() {
	for tid, tr := range w.triggers {
		owner := w.get(tr.owner)
		if owner == nil {
			continue
		}
		center := owner.state.Position.Add(owner.state.Rotation.Rotate(tr.offset))

		for i, c := range w.colliders {
			if c.body == tr.owner {
				continue
			}
			cid := ColliderID(i)
			overlap := w.colliderCenter(c).Sub(center).Len() < c.radius+tr.radius
			was := tr.inside[cid]
			if overlap == was {
				continue
			}
			if overlap {
				tr.inside[cid] = true
			} else {
				delete(tr.inside, cid)
			}
			if tr.listener != nil {
				tr.listener(TriggerEvent{Trigger: TriggerID(tid), Collider: cid, Body: c.body, Enter: overlap})
			}
		}
	}
}
