package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/config"
	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/fingers"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/integrators"
	"github.com/san-kum/graspsim/internal/metrics"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/session"
	"github.com/san-kum/graspsim/internal/spatial"
)

const handRadius = 0.04

func ParseSide(s string) (grasp.Side, error) {
	switch s {
	case "left":
		return grasp.Left, nil
	case "right":
		return grasp.Right, nil
	default:
		return grasp.Left, fmt.Errorf("unknown hand side %q", s)
	}
}

func vec(v [3]float64) mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }

func euler(deg [3]float64) mgl64.Quat {
	return mgl64.AnglesToQuat(mgl64.DegToRad(deg[0]), mgl64.DegToRad(deg[1]), mgl64.DegToRad(deg[2]), mgl64.XYZ)
}

// Categories maps configured layer bits to grasp categories.
func Categories(l config.LayerConfig) grasp.Categories {
	return grasp.Categories{
		Grabbable: 1 << l.Grabbable,
		HeldLeft:  1 << l.HeldLeft,
		HeldRight: 1 << l.HeldRight,
		HeldBoth:  1 << l.HeldBoth,
		Hand:      1 << l.Hand,
	}
}

// FingerChains lays out one straight chain per finger of poses across the
// palm, curling toward the palm's forward axis.
func FingerChains(fc config.FingerConfig, poses *fingers.PoseSet) []*fingers.Chain {
	n := poses.Fingers()
	chains := make([]*fingers.Chain, n)
	spacing := 2.5 * fc.TipRadius
	for f := range chains {
		x := (float64(f) - float64(n-1)/2) * spacing
		root := spatial.NewPose(mgl64.Vec3{x, 0, 0.01}, mgl64.QuatIdent())
		chains[f] = fingers.StraightChain(fmt.Sprintf("finger%d", f), root, poses.JointsPerFinger(), fc.Link, fc.TipRadius)
	}
	return chains
}

func LoadPoses(fc config.FingerConfig) (*fingers.PoseSet, error) {
	if fc.Asset != "" {
		return fingers.LoadPoseSet(fc.Asset)
	}
	return fingers.CurlPoseSet(fc.Count, fc.JointsPerFinger, fc.CloseAngle)
}

// HandConfig builds the grasp tuning for one hand from cfg.
func HandConfig(cfg *config.Config, side grasp.Side, poses *fingers.PoseSet) grasp.HandConfig {
	h := cfg.Hand
	return grasp.HandConfig{
		Side: side,
		Palm: grasp.Palm{
			Offset:        spatial.NewPose(vec(h.PalmOffset), mgl64.QuatIdent()),
			Radius:        h.PalmRadius,
			BackOffset:    h.SweepBackOffset,
			SweepDistance: h.SweepDistance,
		},
		Gains: control.Gains{
			RotationStrength: h.RotationStrength,
			VelocityStrength: h.VelocityStrength,
			MaxAngularStep:   h.MaxAngularStep,
			SnapEpsilon:      h.SnapEpsilon,
		},
		DefaultSpring: control.Spring{Frequency: h.Spring.Frequency, Damping: h.Spring.Damping},
		BreakForce:    h.BreakForce,
		BreakTorque:   h.BreakTorque,
		SettlingTicks: h.SettlingTicks,
		FingerStep:    cfg.Fingers.Step,
		SelectRange:   h.SelectRange,
		Poses:         poses,
		Fingers:       FingerChains(cfg.Fingers, poses),
	}
}

type Options struct {
	Logger      *slog.Logger
	Highlighter grasp.Highlighter
}

// Run is a scenario built into a live session.
type Run struct {
	Scenario *Scenario
	Config   *config.Config
	World    *physics.World
	Session  *session.Session
	Player   *Player
	Objects  map[string]grasp.GrabbableID
	Bodies   map[string]physics.BodyID
}

// Build validates sc and cfg and assembles the world, session and player.
func Build(sc *Scenario, cfg *config.Config, opts Options) (*Run, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	poses, err := LoadPoses(cfg.Fingers)
	if err != nil {
		return nil, err
	}

	wcfg := physics.DefaultWorldConfig()
	wcfg.Gravity = mgl64.Vec3{0, cfg.Gravity, 0}
	world := physics.NewWorld(wcfg, integ)

	s, err := session.New(world, session.Options{
		TickDuration: cfg.TickDuration(),
		Categories:   Categories(cfg.Layers),
		Highlighter:  opts.Highlighter,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	run := &Run{
		Scenario: sc,
		Config:   cfg,
		World:    world,
		Session:  s,
		Objects:  make(map[string]grasp.GrabbableID),
		Bodies:   make(map[string]physics.BodyID),
	}

	for _, o := range sc.Objects {
		def := physics.BodyDef{
			Pose:       spatial.NewPose(vec(o.Position), mgl64.QuatIdent()),
			Mass:       o.Mass,
			UseGravity: !o.Static,
			Category:   1 << cfg.Layers.Scene,
			Colliders:  []physics.SphereCollider{{Radius: o.Radius}},
		}
		if o.Static {
			def.Mass = 0
		}
		body := world.AddBody(def)
		run.Bodies[o.Name] = body
		if o.Static {
			continue
		}
		spring := control.Spring{Frequency: cfg.Hand.Spring.Frequency, Damping: cfg.Hand.Spring.Damping}
		if o.Spring != nil {
			spring = *o.Spring
		}
		id, err := s.AddGrabbable(o.Name, body, spring)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: object %s: %w", sc.Name, o.Name, err)
		}
		run.Objects[o.Name] = id
	}

	starts := make([]spatial.Pose, len(sc.Hands))
	sides := make(map[string]int, len(sc.Hands))
	trigger := session.Trigger{
		Offset: vec(cfg.Hand.PalmOffset).Add(spatial.Forward.Mul(cfg.Hand.TriggerRadius)),
		Radius: cfg.Hand.TriggerRadius,
	}
	for i, hs := range sc.Hands {
		side, err := ParseSide(hs.Side)
		if err != nil {
			return nil, err
		}
		start := spatial.NewPose(vec(hs.Position), euler(hs.Euler))
		body := world.AddBody(physics.BodyDef{
			Pose:      start,
			Mass:      cfg.Hand.Mass,
			Colliders: []physics.SphereCollider{{Radius: handRadius}},
		})
		if _, err := s.AddHand(body, HandConfig(cfg, side, poses), trigger); err != nil {
			return nil, fmt.Errorf("scenario %s: %s hand: %w", sc.Name, hs.Side, err)
		}
		starts[i] = start
		sides[hs.Side] = i
	}

	run.Player = NewPlayer(sc.Events, starts, sides, run.Bodies)
	return run, nil
}

// Ticks is the run length: the scenario's own, else the configured one.
func (r *Run) Ticks() int {
	if r.Scenario.Ticks > 0 {
		return r.Scenario.Ticks
	}
	return r.Config.Ticks
}

// Execute runs the scenario to completion with the default metric set.
func (r *Run) Execute(ctx context.Context) (*session.Result, error) {
	for _, m := range metrics.Default() {
		r.Session.AddMetric(m)
	}
	res, err := r.Session.Run(ctx, r.Player, r.Ticks())
	if err != nil {
		return res, err
	}
	if err := r.World.Err(); err != nil {
		return res, fmt.Errorf("scenario %s: %w", r.Scenario.Name, err)
	}
	return res, nil
}
