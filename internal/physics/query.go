package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// sweep intersects a sphere of radius r moving from origin along dir (unit)
// with collider c. Initially overlapping colliders hit at distance 0.
func (w *World) sweep(origin, dir mgl64.Vec3, r, maxDistance float64, id ColliderID) (Hit, bool) {
	c := w.colliders[id]
	center := w.colliderCenter(c)
	R := c.radius + r

	m := origin.Sub(center)
	cval := m.Dot(m) - R*R
	if cval <= 0 {
		n := m
		if n.Len() < 1e-12 {
			n = dir.Mul(-1)
		}
		n = n.Normalize()
		return Hit{Point: center.Add(n.Mul(c.radius)), Normal: n, Body: c.body, Collider: id}, true
	}

	b := m.Dot(dir)
	if b > 0 {
		return Hit{}, false
	}
	disc := b*b - cval
	if disc < 0 {
		return Hit{}, false
	}
	t := -b - math.Sqrt(disc)
	if t > maxDistance {
		return Hit{}, false
	}
	swept := origin.Add(dir.Mul(t))
	n := swept.Sub(center).Normalize()
	return Hit{
		Point:    center.Add(n.Mul(c.radius)),
		Normal:   n,
		Distance: t,
		Body:     c.body,
		Collider: id,
	}, true
}

func (w *World) SphereCastAll(origin, direction mgl64.Vec3, radius, maxDistance float64, mask Category) []Hit {
	if direction.Len() == 0 {
		return nil
	}
	dir := direction.Normalize()

	var hits []Hit
	for i, c := range w.colliders {
		if !w.bodies[c.body].state.Category.Matches(mask) {
			continue
		}
		if h, ok := w.sweep(origin, dir, radius, maxDistance, ColliderID(i)); ok {
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64, mask Category) (Hit, bool) {
	hits := w.SphereCastAll(origin, direction, 0, maxDistance, mask)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

func (w *World) CheckSphere(center mgl64.Vec3, radius float64, mask Category) bool {
	for _, c := range w.colliders {
		if !w.bodies[c.body].state.Category.Matches(mask) {
			continue
		}
		d := w.colliderCenter(c).Sub(center).Len()
		if d < c.radius+radius {
			return true
		}
	}
	return false
}
