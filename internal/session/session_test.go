package session_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/fingers"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/integrators"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/session"
	"github.com/san-kum/graspsim/internal/spatial"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingMetric struct {
	observed int
	resets   int
}

func (c *countingMetric) Name() string           { return "count" }
func (c *countingMetric) Observe(session.Sample) { c.observed++ }
func (c *countingMetric) Value() float64         { return float64(c.observed) }

func (c *countingMetric) Reset() {
	c.observed = 0
	c.resets++
}

type recorder struct{ ticks []uint64 }

func (r *recorder) OnTick(s session.Sample) { r.ticks = append(r.ticks, s.Tick) }

func kinds(events []grasp.Event) []grasp.EventKind {
	out := make([]grasp.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

var _ = Describe("Session", func() {
	var (
		world *physics.World
		s     *session.Session
		hand  *grasp.Hand
		ball  physics.BodyID
		start spatial.Pose
	)

	BeforeEach(func() {
		cfg := physics.DefaultWorldConfig()
		cfg.Gravity = mgl64.Vec3{}
		cfg.GroundY = math.NaN()
		world = physics.NewWorld(cfg, integrators.NewSemiImplicitEuler())

		var err error
		s, err = session.New(world, session.Options{
			TickDuration: 1.0 / 90,
			Categories:   grasp.DefaultCategories(),
		})
		Expect(err).NotTo(HaveOccurred())

		start = spatial.Identity()
		body := world.AddBody(physics.BodyDef{
			Pose:      start,
			Mass:      1,
			Colliders: []physics.SphereCollider{{Radius: 0.04}},
		})
		poses, err := fingers.CurlPoseSet(1, 2, 90)
		Expect(err).NotTo(HaveOccurred())
		hand, err = s.AddHand(body, grasp.HandConfig{
			Side:          grasp.Right,
			Palm:          grasp.Palm{Offset: spatial.Identity(), Radius: 0.03, BackOffset: 0.05, SweepDistance: 0.3},
			Gains:         control.Gains{RotationStrength: 1, VelocityStrength: 0.2},
			DefaultSpring: control.Spring{Frequency: 10, Damping: 1},
			BreakForce:    50,
			BreakTorque:   50,
			SettlingTicks: 10,
			FingerStep:    0.25,
			Poses:         poses,
			Fingers: []*fingers.Chain{
				fingers.StraightChain("index", spatial.Identity(), 2, 0.03, 0.01),
			},
		}, session.Trigger{Offset: mgl64.Vec3{0, 0, 0.1}, Radius: 0.1})
		Expect(err).NotTo(HaveOccurred())

		ball = world.AddBody(physics.BodyDef{
			Pose:      spatial.NewPose(mgl64.Vec3{0, 0, 0.1}, mgl64.QuatIdent()),
			Mass:      0.5,
			Colliders: []physics.SphereCollider{{Radius: 0.05}},
		})
		_, err = s.AddGrabbable("ball", ball, control.Spring{Frequency: 4, Damping: 1})
		Expect(err).NotTo(HaveOccurred())
	})

	grip := func(on bool) *grasp.Input {
		return &grasp.Input{Target: start, Grip: on}
	}

	It("rejects a non-positive tick duration", func() {
		_, err := session.New(world, session.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("puts hand bodies in the hand category", func() {
		st, _ := world.Body(hand.Body())
		Expect(st.Category).To(Equal(grasp.DefaultCategories().Hand))
	})

	It("rejects a non-positive tick count", func() {
		_, err := s.Run(context.Background(), session.SourceFunc(func(uint64) session.Frame { return session.Frame{} }), 0)
		Expect(err).To(MatchError(session.ErrInvalidTicks))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := s.Run(ctx, session.SourceFunc(func(uint64) session.Frame { return session.Frame{} }), 10)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.TicksTaken).To(BeZero())
	})

	It("feeds metrics and observers once per tick", func() {
		m := &countingMetric{}
		r := &recorder{}
		s.AddMetric(m)
		s.AddObserver(r)
		res, err := s.Run(context.Background(), session.SourceFunc(func(uint64) session.Frame { return session.Frame{} }), 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TicksTaken).To(Equal(5))
		Expect(res.Metrics).To(HaveKeyWithValue("count", 5.0))
		Expect(m.resets).To(Equal(1))
		Expect(r.ticks).To(Equal([]uint64{0, 1, 2, 3, 4}))
	})

	It("runs a grab, attach and arm in tick order", func() {
		src := session.SourceFunc(func(tick uint64) session.Frame {
			return session.Frame{Inputs: []*grasp.Input{grip(tick >= 2)}}
		})
		res, err := s.Run(context.Background(), src, 20)
		Expect(err).NotTo(HaveOccurred())
		Expect(kinds(res.Events)).To(Equal([]grasp.EventKind{grasp.EventGrabbed, grasp.EventAttached, grasp.EventArmed}))

		Expect(res.Events[0].Tick).To(Equal(uint64(2)))
		Expect(res.Events[1].Tick).To(Equal(uint64(3)))
		Expect(res.Events[2].Tick).To(Equal(uint64(13)))

		Expect(res.Samples[1].Hands[0].State).To(Equal(grasp.HasCandidate))
		Expect(res.Samples[2].Hands[0].State).To(Equal(grasp.Fitting))
		Expect(res.Samples[3].Hands[0].State).To(Equal(grasp.Attached))
		Expect(res.Samples[19].Hands[0].Held).To(Equal(grasp.GrabbableID(0)))
	})

	It("releases when a push breaks the armed joint", func() {
		src := session.SourceFunc(func(tick uint64) session.Frame {
			f := session.Frame{Inputs: []*grasp.Input{grip(tick >= 2)}}
			if tick == 40 {
				f.Pushes = []session.Push{{Body: ball, Force: mgl64.Vec3{0, 20, 0}, Mode: physics.ForceModeVelocityChange}}
			}
			return f
		})
		res, err := s.Run(context.Background(), src, 45)
		Expect(err).NotTo(HaveOccurred())
		Expect(kinds(res.Events)).To(ContainElement(grasp.EventJointBroken))
		Expect(res.Samples[44].Hands[0].State).NotTo(Equal(grasp.Attached))
		Expect(res.Samples[44].Hands[0].Held).To(Equal(grasp.NoGrabbable))
	})
})
