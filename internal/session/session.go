// Package session wires hands, grabbables, the scheduler and a physics
// backend into a fixed-tick loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
)

var ErrInvalidTicks = errors.New("session: tick count must be positive")

type Options struct {
	TickDuration float64
	Categories   grasp.Categories
	Highlighter  grasp.Highlighter
	Logger       *slog.Logger
}

// Trigger is the overlap volume a hand collects candidates with, in the
// hand body's frame.
type Trigger struct {
	Offset mgl64.Vec3
	Radius float64
}

type Session struct {
	backend  Backend
	registry *grasp.Registry
	sched    *sched.Scheduler
	dt       float64
	logger   *slog.Logger

	hands     []*grasp.Hand
	metrics   []Metric
	observers []Observer
	pending   []grasp.Event
	tick      uint64
}

func New(backend Backend, opts Options) (*Session, error) {
	if !(opts.TickDuration > 0) {
		return nil, fmt.Errorf("session: tick duration must be positive, got %v", opts.TickDuration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		backend:  backend,
		registry: grasp.NewRegistry(backend, opts.Categories, opts.Highlighter),
		sched:    sched.New(),
		dt:       opts.TickDuration,
		logger:   logger,
	}
	backend.OnJointBreak(s.jointBroke)
	return s, nil
}

func (s *Session) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Session) Registry() *grasp.Registry   { return s.registry }
func (s *Session) Scheduler() *sched.Scheduler { return s.sched }
func (s *Session) Backend() Backend            { return s.backend }
func (s *Session) Hands() []*grasp.Hand        { return s.hands }
func (s *Session) TickDuration() float64       { return s.dt }
func (s *Session) Tick() uint64                { return s.tick }

func (s *Session) AddGrabbable(name string, body physics.BodyID, spring control.Spring) (grasp.GrabbableID, error) {
	return s.registry.Add(name, body, spring)
}

// AddHand builds a hand on body and attaches its trigger volume.
func (s *Session) AddHand(body physics.BodyID, cfg grasp.HandConfig, trigger Trigger) (*grasp.Hand, error) {
	id := grasp.HandID(len(s.hands))
	h, err := grasp.NewHand(id, body, cfg, grasp.Env{
		Backend:      s.backend,
		Registry:     s.registry,
		Scheduler:    s.sched,
		TickDuration: s.dt,
		Logger:       s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.backend.SetCategory(body, s.registry.Categories().Hand)
	s.backend.AddTrigger(body, trigger.Offset, trigger.Radius, h.HandleTrigger)
	h.OnEvent(func(ev grasp.Event) { s.pending = append(s.pending, ev) })
	s.hands = append(s.hands, h)
	return h, nil
}

func (s *Session) jointBroke(id physics.JointID) {
	for _, h := range s.hands {
		if h.HandleJointBreak(id) {
			return
		}
	}
}

// Step runs one fixed tick: input edges, outline refresh, deferred
// sequences, pose control, then the physics step.
func (s *Session) Step(frame Frame) Sample {
	for i, h := range s.hands {
		if i < len(frame.Inputs) && frame.Inputs[i] != nil {
			h.Update(*frame.Inputs[i])
		}
	}
	for _, p := range frame.Pushes {
		s.backend.AddForce(p.Body, p.Force, p.Mode)
	}
	for _, h := range s.hands {
		h.RefreshOutline()
	}
	s.sched.Advance()

	outputs := make([]control.Output, len(s.hands))
	for i, h := range s.hands {
		outputs[i] = h.Control()
	}
	s.backend.Step(s.dt)

	sample := s.sample(outputs)
	s.pending = nil
	s.tick++

	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, o := range s.observers {
		o.OnTick(sample)
	}
	return sample
}

func (s *Session) sample(outputs []control.Output) Sample {
	sample := Sample{
		Tick:   s.tick,
		Time:   float64(s.tick+1) * s.dt,
		Hands:  make([]HandSample, len(s.hands)),
		Events: append([]grasp.Event(nil), s.pending...),
	}
	for i, h := range s.hands {
		pose := h.Pose()
		target := h.Target()
		held, _ := h.Held()
		candidate, _ := h.Candidate()
		sample.Hands[i] = HandSample{
			Position:      pose.Position,
			Target:        target.Position,
			State:         h.State(),
			Held:          held,
			Candidate:     candidate,
			Fingers:       h.Fingers().Params(),
			Force:         outputs[i].Force,
			Torque:        outputs[i].Torque,
			TrackingError: target.Position.Sub(pose.Position).Len(),
		}
	}
	return sample
}

// Run steps the session ticks times with input from src. A cancelled
// context stops the loop and returns what was recorded so far.
func (s *Session) Run(ctx context.Context, src Source, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTicks, ticks)
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Samples: make([]Sample, 0, ticks),
		Metrics: make(map[string]float64),
	}
	defer func() {
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample := s.Step(src.Frame(s.tick))
		result.Samples = append(result.Samples, sample)
		result.Events = append(result.Events, sample.Events...)
		result.TicksTaken++
	}
	s.logger.Debug("run finished", "ticks", result.TicksTaken, "events", len(result.Events))
	return result, nil
}
