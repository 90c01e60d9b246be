package scenario

import (
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/session"
	"github.com/san-kum/graspsim/internal/spatial"
)

type track struct {
	input      grasp.Input
	from, to   spatial.Pose
	start, end uint64
}

func (t *track) at(tick uint64) spatial.Pose {
	if tick >= t.end || t.end == t.start {
		return t.to
	}
	k := float64(tick-t.start) / float64(t.end-t.start)
	return spatial.NewPose(
		t.from.Position.Add(t.to.Position.Sub(t.from.Position).Mul(k)),
		spatial.Slerp(t.from.Rotation, t.to.Rotation, k),
	)
}

// Player replays a scenario timeline as session input. It implements
// session.Source; frames must be requested in tick order.
type Player struct {
	events []Event
	next   int
	tracks []*track
	sides  map[string]int
	bodies map[string]physics.BodyID
}

func NewPlayer(events []Event, starts []spatial.Pose, sides map[string]int, bodies map[string]physics.BodyID) *Player {
	p := &Player{
		events: events,
		sides:  sides,
		bodies: bodies,
		tracks: make([]*track, len(starts)),
	}
	for i, s := range starts {
		p.tracks[i] = &track{input: grasp.Input{Target: s, Aim: s}, from: s, to: s}
	}
	return p
}

var modes = map[string]physics.ForceMode{
	"":                physics.ForceModeImpulse,
	"impulse":         physics.ForceModeImpulse,
	"force":           physics.ForceModeForce,
	"velocity_change": physics.ForceModeVelocityChange,
}

func (p *Player) Frame(tick uint64) session.Frame {
	var frame session.Frame
	for p.next < len(p.events) && uint64(p.events[p.next].At) <= tick {
		ev := p.events[p.next]
		p.next++
		if ev.Push != "" {
			if body, ok := p.bodies[ev.Push]; ok {
				frame.Pushes = append(frame.Pushes, session.Push{Body: body, Force: vec(ev.Force), Mode: modes[ev.Mode]})
			}
		}
		i, ok := p.sides[ev.Hand]
		if !ok {
			continue
		}
		t := p.tracks[i]
		if ev.Target != nil || ev.Euler != nil {
			cur := t.at(tick)
			to := cur
			if ev.Target != nil {
				to.Position = vec(*ev.Target)
			}
			if ev.Euler != nil {
				to.Rotation = euler(*ev.Euler)
			}
			t.from, t.to = cur, to
			t.start, t.end = tick, tick+uint64(ev.Over)
		}
		if ev.Grip != nil {
			t.input.Grip = *ev.Grip
		}
		if ev.Pointer != nil {
			t.input.Pointer = *ev.Pointer
		}
	}

	frame.Inputs = make([]*grasp.Input, len(p.tracks))
	for i, t := range p.tracks {
		in := t.input
		in.Target = t.at(tick)
		in.Aim = in.Target
		frame.Inputs[i] = &in
	}
	return frame
}

// Done reports whether every event has been played.
func (p *Player) Done() bool { return p.next >= len(p.events) }
