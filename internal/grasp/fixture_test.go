package grasp_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/control"
	"github.com/san-kum/graspsim/internal/fingers"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/integrators"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
	"github.com/san-kum/graspsim/internal/spatial"

	. "github.com/onsi/gomega"
)

const dt = 1.0 / 90

// recordingWorld counts joint destroy calls on top of the reference world.
// With blindCasts set, sphere casts report nothing.
type recordingWorld struct {
	*physics.World
	destroyed  []physics.JointID
	blindCasts bool
}

func (r *recordingWorld) DestroyJoint(id physics.JointID) {
	r.destroyed = append(r.destroyed, id)
	r.World.DestroyJoint(id)
}

func (r *recordingWorld) SphereCastAll(origin, direction mgl64.Vec3, radius, maxDistance float64, mask physics.Category) []physics.Hit {
	if r.blindCasts {
		return nil
	}
	return r.World.SphereCastAll(origin, direction, radius, maxDistance, mask)
}

type outlineCall struct {
	id      grasp.GrabbableID
	visible bool
}

type scene struct {
	world    *recordingWorld
	registry *grasp.Registry
	sched    *sched.Scheduler
	hands    []*grasp.Hand
	outlines []outlineCall
}

func newScene() *scene {
	cfg := physics.DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	cfg.GroundY = math.NaN()
	cfg.AngularDrag = 0

	s := &scene{
		world: &recordingWorld{World: physics.NewWorld(cfg, integrators.NewSemiImplicitEuler())},
		sched: sched.New(),
	}
	s.registry = grasp.NewRegistry(s.world, grasp.DefaultCategories(), grasp.HighlighterFunc(func(id grasp.GrabbableID, visible bool) {
		s.outlines = append(s.outlines, outlineCall{id: id, visible: visible})
	}))
	s.world.OnJointBreak(func(id physics.JointID) {
		for _, h := range s.hands {
			h.HandleJointBreak(id)
		}
	})
	return s
}

func handConfig(side grasp.Side) grasp.HandConfig {
	poses, err := fingers.CurlPoseSet(2, 3, 90)
	Expect(err).NotTo(HaveOccurred())
	chains := []*fingers.Chain{
		fingers.StraightChain("index", spatial.NewPose(mgl64.Vec3{0.02, 0, 0}, mgl64.QuatIdent()), 3, 0.03, 0.01),
		fingers.StraightChain("thumb", spatial.NewPose(mgl64.Vec3{-0.02, 0, 0}, mgl64.QuatIdent()), 3, 0.03, 0.01),
	}
	return grasp.HandConfig{
		Side: side,
		Palm: grasp.Palm{
			Offset:        spatial.Identity(),
			Radius:        0.03,
			BackOffset:    0.05,
			SweepDistance: 0.3,
		},
		Gains: control.Gains{
			RotationStrength: 1,
			VelocityStrength: 0.2,
		},
		DefaultSpring: control.Spring{Frequency: 10, Damping: 1},
		BreakForce:    50,
		BreakTorque:   50,
		SettlingTicks: 60,
		FingerStep:    0.1,
		Poses:         poses,
		Fingers:       chains,
	}
}

// addHand places a hand body at pos with a trigger volume around its palm.
func (s *scene) addHand(side grasp.Side, pos mgl64.Vec3, cfg grasp.HandConfig) *grasp.Hand {
	body := s.world.AddBody(physics.BodyDef{
		Pose:      spatial.NewPose(pos, mgl64.QuatIdent()),
		Mass:      1,
		Category:  s.registry.Categories().Hand,
		Colliders: []physics.SphereCollider{{Radius: 0.04}},
	})
	h, err := grasp.NewHand(grasp.HandID(len(s.hands)), body, cfg, grasp.Env{
		Backend:      s.world,
		Registry:     s.registry,
		Scheduler:    s.sched,
		TickDuration: dt,
	})
	Expect(err).NotTo(HaveOccurred())
	s.world.AddTrigger(body, mgl64.Vec3{0, 0, 0.1}, 0.1, h.HandleTrigger)
	s.hands = append(s.hands, h)
	return h
}

func (s *scene) addBall(pos mgl64.Vec3, radius float64) (grasp.GrabbableID, physics.BodyID) {
	body := s.world.AddBody(physics.BodyDef{
		Pose:      spatial.NewPose(pos, mgl64.QuatIdent()),
		Mass:      0.5,
		Colliders: []physics.SphereCollider{{Radius: radius}},
	})
	id, err := s.registry.Add("ball", body, control.Spring{Frequency: 4, Damping: 1})
	Expect(err).NotTo(HaveOccurred())
	return id, body
}

func (s *scene) position(body physics.BodyID) mgl64.Vec3 {
	st, ok := s.world.Body(body)
	Expect(ok).To(BeTrue())
	return st.Position
}

// press sends a grip edge to h with its target left at the current pose.
func (s *scene) press(h *grasp.Hand, grip bool) {
	h.Update(grasp.Input{Target: h.Target(), Grip: grip})
}

// tick runs one fixed step in session order after input.
func (s *scene) tick() {
	for _, h := range s.hands {
		h.RefreshOutline()
	}
	s.sched.Advance()
	for _, h := range s.hands {
		h.Control()
	}
	s.world.Step(dt)
}

func (s *scene) run(n int) {
	for i := 0; i < n; i++ {
		s.tick()
	}
}

func (s *scene) grabbable(id grasp.GrabbableID) *grasp.Grabbable {
	g, ok := s.registry.Get(id)
	Expect(ok).To(BeTrue())
	return g
}

func flagsConsistent(g *grasp.Grabbable) {
	Expect(g.GrabbedLeft() || g.GrabbedRight()).To(Equal(g.GrabbedCount() > 0))
	Expect(g.GrabbedCount()).To(BeNumerically("<=", 2))
}

func vecClose(a, b mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		Expect(a[i]).To(BeNumerically("~", b[i], 1e-9))
	}
}
