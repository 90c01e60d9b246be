package grasp_test

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/sched"
	"github.com/san-kum/graspsim/internal/spatial"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Hand", func() {
	var (
		s      *scene
		hand   *grasp.Hand
		ball   grasp.GrabbableID
		ballID physics.BodyID
	)

	BeforeEach(func() {
		s = newScene()
		hand = s.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
		ball, ballID = s.addBall(mgl64.Vec3{0, 0, 0.1}, 0.05)
		s.tick()
	})

	Describe("candidate tracking", func() {
		It("picks up overlapping grabbables and lights the best one", func() {
			Expect(hand.State()).To(Equal(grasp.HasCandidate))
			id, ok := hand.Candidate()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(ball))

			s.tick()
			Expect(s.grabbable(ball).OutlineVisible()).To(BeTrue())
			Expect(s.outlines).To(ContainElement(outlineCall{id: ball, visible: true}))
		})

		It("prefers the earliest entered candidate over a nearer one", func() {
			s2 := newScene()
			h := s2.addHand(grasp.Right, mgl64.Vec3{}, handConfig(grasp.Right))
			far, _ := s2.addBall(mgl64.Vec3{0, 0, 0.18}, 0.02)
			s2.tick()
			near, _ := s2.addBall(mgl64.Vec3{0, 0, 0.08}, 0.02)
			s2.tick()

			Expect(h.Candidates().Len()).To(Equal(2))
			id, _ := h.Candidate()
			Expect(id).To(Equal(far))
			Expect(id).NotTo(Equal(near))
		})

		It("ignores bodies that are not registered", func() {
			s.world.AddBody(physics.BodyDef{
				Pose:      spatial.NewPose(mgl64.Vec3{0, 0.05, 0.1}, mgl64.QuatIdent()),
				Mass:      1,
				Colliders: []physics.SphereCollider{{Radius: 0.02}},
			})
			s.tick()
			Expect(hand.Candidates().Len()).To(Equal(1))
		})

		It("hides the outline and goes idle when the candidate leaves", func() {
			s.tick()
			s.world.Translate(ballID, mgl64.Vec3{1, 0, 0})
			s.tick()
			s.tick()
			Expect(hand.State()).To(Equal(grasp.Idle))
			Expect(s.grabbable(ball).OutlineVisible()).To(BeFalse())
			_, lit := hand.Outline()
			Expect(lit).To(BeFalse())
		})
	})

	Describe("grabbing", func() {
		It("translates the candidate by the palm sweep offset and flags the side in the same tick", func() {
			before := s.position(ballID)
			fit, ok := hand.Config().Palm.Sweep(s.world, hand.Pose(), ballID, s.registry.Categories().Candidates(grasp.Left))
			Expect(ok).To(BeTrue())

			s.press(hand, true)

			g := s.grabbable(ball)
			Expect(g.GrabbedLeft()).To(BeTrue())
			Expect(g.GrabbedRight()).To(BeFalse())
			vecClose(s.position(ballID), before.Add(fit.Hit.Point.Sub(fit.Palm)))
			vecClose(fit.Offset, mgl64.Vec3{0, 0, 0.05})
			Expect(hand.State()).To(Equal(grasp.Fitting))
			flagsConsistent(g)
		})

		It("moves the held object into the held category and hides its outline", func() {
			s.tick()
			s.press(hand, true)
			g := s.grabbable(ball)
			st, _ := s.world.Body(ballID)
			Expect(st.Category).To(Equal(s.registry.Categories().HeldLeft))
			Expect(g.OutlineVisible()).To(BeFalse())
			_, lit := hand.Outline()
			Expect(lit).To(BeFalse())
		})

		It("creates the joint on the next tick boundary and attaches", func() {
			s.press(hand, true)
			s.tick()
			Expect(hand.State()).To(Equal(grasp.Fitting))
			Expect(hand.Joint().Stage()).To(Equal(grasp.JointPending))

			s.tick()
			Expect(hand.State()).To(Equal(grasp.Attached))
			Expect(hand.Joint().Stage()).To(Equal(grasp.JointSettling))
			Expect(s.world.HasJoint(hand.Joint().ID())).To(BeTrue())
			Expect(hand.Spring()).To(Equal(s.grabbable(ball).Spring))
		})

		It("holds at most one object", func() {
			other, _ := s.addBall(mgl64.Vec3{0.05, 0, 0.12}, 0.02)
			s.tick()
			s.press(hand, true)
			Expect(hand.Grab()).To(MatchError(grasp.ErrAlreadyHolding))

			held, ok := hand.Held()
			Expect(ok).To(BeTrue())
			Expect(held).To(Equal(ball))
			Expect(s.grabbable(other).IsGrabbed()).To(BeFalse())

			s.run(3)
			attached := 0
			for _, g := range s.registry.All() {
				if g.HeldBy(hand.ID()) {
					attached++
				}
			}
			Expect(attached).To(Equal(1))
		})

		It("aborts silently when the palm sweep misses the candidate", func() {
			s2 := newScene()
			h := s2.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
			id, body := s2.addBall(mgl64.Vec3{0.13, 0, 0.1}, 0.04)
			s2.tick()
			Expect(h.State()).To(Equal(grasp.HasCandidate))
			before := s2.position(body)

			var events []grasp.Event
			h.OnEvent(func(ev grasp.Event) { events = append(events, ev) })
			err := h.Grab()

			var fitErr *grasp.FitError
			Expect(errors.As(err, &fitErr)).To(BeTrue())
			Expect(err).To(MatchError(grasp.ErrFitFailure))
			Expect(fitErr.Grabbable).To(Equal(id))
			Expect(h.State()).To(Equal(grasp.HasCandidate))
			Expect(s2.grabbable(id).IsGrabbed()).To(BeFalse())
			Expect(s2.position(body)).To(Equal(before))
			Expect(s2.sched.Pending(sched.Owner(h.ID()))).To(BeEmpty())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(grasp.EventFitFailed))
		})

		It("reports no candidate on an empty grip", func() {
			s2 := newScene()
			h := s2.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
			Expect(h.Grab()).To(MatchError(grasp.ErrNoCandidate))
			Expect(h.State()).To(Equal(grasp.Idle))
		})
	})

	Describe("joint arming", func() {
		BeforeEach(func() {
			s.press(hand, true)
			s.run(2)
			Expect(hand.State()).To(Equal(grasp.Attached))
		})

		It("survives an overload inside the settling window and breaks on it once armed", func() {
			joint := hand.Joint().ID()
			s.world.AddForce(ballID, mgl64.Vec3{0, 10, 0}, physics.ForceModeVelocityChange)
			s.tick()
			load, _, ok := s.world.JointLoad(joint)
			Expect(ok).To(BeTrue())
			Expect(load).To(BeNumerically(">", 50))
			Expect(hand.State()).To(Equal(grasp.Attached))

			for i := 0; i < 80 && hand.Joint().Stage() != grasp.JointArmed; i++ {
				s.tick()
			}
			Expect(hand.Joint().Stage()).To(Equal(grasp.JointArmed))
			Expect(hand.State()).To(Equal(grasp.Attached))

			s.world.AddForce(ballID, mgl64.Vec3{0, 10, 0}, physics.ForceModeVelocityChange)
			s.tick()
			Expect(s.world.HasJoint(joint)).To(BeFalse())
			Expect(hand.State()).NotTo(Equal(grasp.Attached))
			Expect(s.grabbable(ball).IsGrabbed()).To(BeFalse())
			Expect(s.world.destroyed).To(BeEmpty())
		})

		It("arms exactly settling ticks after creation", func() {
			created := hand.Joint().CreatedAt()
			var armed uint64
			hand.OnEvent(func(ev grasp.Event) {
				if ev.Kind == grasp.EventArmed {
					armed = ev.Tick
				}
			})
			s.run(61)
			Expect(armed).To(Equal(created + 60))
		})
	})

	Describe("releasing", func() {
		It("clears the flag, opens the fingers, destroys the joint and keeps the candidate", func() {
			s.press(hand, true)
			s.run(5)
			Expect(hand.State()).To(Equal(grasp.Attached))
			joint := hand.Joint().ID()

			s.press(hand, false)

			g := s.grabbable(ball)
			Expect(g.GrabbedLeft()).To(BeFalse())
			flagsConsistent(g)
			Expect(hand.Fingers().Params()).To(HaveEach(0.0))
			Expect(s.world.destroyed).To(Equal([]physics.JointID{joint}))
			Expect(s.world.HasJoint(joint)).To(BeFalse())
			Expect(hand.State()).To(Equal(grasp.HasCandidate))
			Expect(s.sched.Pending(sched.Owner(hand.ID()))).To(BeEmpty())
			st, _ := s.world.Body(ballID)
			Expect(st.Category).To(Equal(s.registry.Categories().Grabbable))
		})

		It("goes idle when nothing overlaps after release", func() {
			s.press(hand, true)
			s.run(3)
			s.world.Translate(ballID, mgl64.Vec3{2, 0, 0})
			s.press(hand, false)
			s.tick()
			Expect(hand.State()).To(Equal(grasp.Idle))
		})

		It("cancels pending sequences when released while fitting", func() {
			s.press(hand, true)
			Expect(s.sched.Pending(sched.Owner(hand.ID()))).To(ConsistOf("close_fingers", "joint"))
			Expect(hand.Release()).To(BeTrue())
			Expect(s.sched.Pending(sched.Owner(hand.ID()))).To(BeEmpty())
			s.run(3)
			Expect(s.world.destroyed).To(BeEmpty())
			Expect(hand.State()).To(Equal(grasp.HasCandidate))
		})

		It("is a no-op while idle", func() {
			s2 := newScene()
			h := s2.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
			Expect(h.Release()).To(BeFalse())
			Expect(h.Release()).To(BeFalse())
			Expect(h.State()).To(Equal(grasp.Idle))
			Expect(s2.world.destroyed).To(BeEmpty())
		})

		It("treats a repeated break callback as a no-op", func() {
			s.press(hand, true)
			s.run(2)
			joint := hand.Joint().ID()
			Expect(hand.HandleJointBreak(joint)).To(BeTrue())
			Expect(hand.HandleJointBreak(joint)).To(BeFalse())
			Expect(s.world.destroyed).To(BeEmpty())
			Expect(hand.Fingers().Params()).To(HaveEach(0.0))
		})
	})

	Describe("fingers", func() {
		It("close over several ticks and stop", func() {
			s.press(hand, true)
			s.run(2)
			p := hand.Fingers().Params()
			for _, v := range p {
				Expect(v).To(BeNumerically("<", 1))
			}
			s.run(12)
			for f, v := range hand.Fingers().Params() {
				Expect(v >= 1 || hand.Fingers().Touching(f)).To(BeTrue())
			}
		})
	})
})
