package grasp_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/physics"
	"github.com/san-kum/graspsim/internal/spatial"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Two hands", func() {
	var (
		s           *scene
		left, right *grasp.Hand
		ball        grasp.GrabbableID
		ballID      physics.BodyID
	)

	BeforeEach(func() {
		s = newScene()
		left = s.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
		right = s.addHand(grasp.Right, mgl64.Vec3{}, handConfig(grasp.Right))
		// face the right hand back toward the left one
		s.world.SetPose(right.Body(), spatial.NewPose(mgl64.Vec3{0, 0, 0.3}, mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0})))
		right.Update(grasp.Input{Target: right.Pose()})
		ball, ballID = s.addBall(mgl64.Vec3{0, 0, 0.1}, 0.05)
		s.tick()
	})

	It("both see the free object", func() {
		Expect(left.State()).To(Equal(grasp.HasCandidate))
		Expect(right.State()).To(Equal(grasp.HasCandidate))
	})

	It("lights the object once per hand and keeps it lit while either lights it", func() {
		s.tick()
		g := s.grabbable(ball)
		Expect(g.LitBy(grasp.OutlineOwner(0))).To(BeTrue())
		Expect(g.LitBy(grasp.OutlineOwner(2))).To(BeTrue())

		visible := 0
		for _, c := range s.outlines {
			if c.id == ball && c.visible {
				visible++
			}
		}
		Expect(visible).To(Equal(1))

		s.press(left, true)
		Expect(g.OutlineVisible()).To(BeTrue())
	})

	It("hands an object over from one hand to the other", func() {
		g := s.grabbable(ball)
		cats := s.registry.Categories()

		s.press(left, true)
		flagsConsistent(g)
		Expect(g.GrabbedCount()).To(Equal(1))
		s.run(3)

		id, ok := right.Candidate()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ball))
		_, ok = left.Candidate()
		Expect(ok).To(BeFalse())

		s.press(right, true)
		Expect(g.GrabbedLeft()).To(BeTrue())
		Expect(g.GrabbedRight()).To(BeTrue())
		Expect(g.GrabbedCount()).To(Equal(2))
		st, _ := s.world.Body(ballID)
		Expect(st.Category).To(Equal(cats.HeldBoth))
		s.run(3)
		Expect(left.State()).To(Equal(grasp.Attached))
		Expect(right.State()).To(Equal(grasp.Attached))
		_, ok = right.Candidate()
		Expect(ok).To(BeFalse())

		s.press(left, false)
		flagsConsistent(g)
		Expect(g.GrabbedCount()).To(Equal(1))
		Expect(g.GrabbedRight()).To(BeTrue())
		st, _ = s.world.Body(ballID)
		Expect(st.Category).To(Equal(cats.HeldRight))
		Expect(right.State()).To(Equal(grasp.Attached))
		Expect(left.State()).To(Equal(grasp.HasCandidate))

		s.press(right, false)
		flagsConsistent(g)
		Expect(g.IsGrabbed()).To(BeFalse())
	})
})

var _ = Describe("Selector", func() {
	It("pulls a pointed-at object into an empty hand", func() {
		s := newScene()
		cfg := handConfig(grasp.Left)
		cfg.SelectRange = 3
		hand := s.addHand(grasp.Left, mgl64.Vec3{}, cfg)
		ball, ballID := s.addBall(mgl64.Vec3{0, 0, 2}, 0.1)
		s.tick()
		Expect(hand.State()).To(Equal(grasp.Idle))

		aim := hand.Pose()
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim})
		id, ok := hand.Selector().Selected()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ball))
		Expect(s.grabbable(ball).OutlineVisible()).To(BeTrue())

		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim, Grip: true})
		held, ok := hand.Held()
		Expect(ok).To(BeTrue())
		Expect(held).To(Equal(ball))
		Expect(s.position(ballID).Len()).To(BeNumerically("<", 0.2))
		_, ok = hand.Selector().Selected()
		Expect(ok).To(BeFalse())
		Expect(s.grabbable(ball).OutlineVisible()).To(BeFalse())
	})

	It("seats a pulled object in front of the palm with its surface on it", func() {
		s := newScene()
		cfg := handConfig(grasp.Left)
		cfg.SelectRange = 3
		hand := s.addHand(grasp.Left, mgl64.Vec3{}, cfg)
		_, ballID := s.addBall(mgl64.Vec3{0, 0, 2}, 0.1)
		s.tick()

		aim := hand.Pose()
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim})
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim, Grip: true})
		_, ok := hand.Held()
		Expect(ok).To(BeTrue())

		palm := cfg.Palm.Frame(hand.Pose())
		vecClose(s.position(ballID), palm.Position.Add(palm.Forward().Mul(0.1)))
	})

	It("puts a pulled object back when the palm fit fails", func() {
		s := newScene()
		cfg := handConfig(grasp.Left)
		cfg.SelectRange = 3
		hand := s.addHand(grasp.Left, mgl64.Vec3{}, cfg)
		ball, ballID := s.addBall(mgl64.Vec3{0, 0, 2}, 0.1)
		s.tick()
		start := s.position(ballID)

		aim := hand.Pose()
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim})
		s.world.blindCasts = true
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim, Grip: true})

		_, ok := hand.Held()
		Expect(ok).To(BeFalse())
		Expect(s.grabbable(ball).IsGrabbed()).To(BeFalse())
		vecClose(s.position(ballID), start)
		id, ok := hand.Selector().Selected()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(ball))
	})

	It("stays dark while the hand lights a candidate of its own", func() {
		s := newScene()
		cfg := handConfig(grasp.Left)
		cfg.SelectRange = 3
		hand := s.addHand(grasp.Left, mgl64.Vec3{}, cfg)
		s.addBall(mgl64.Vec3{0.08, 0, 0.1}, 0.03)
		far, _ := s.addBall(mgl64.Vec3{0, 0, 2}, 0.1)
		s.run(2)

		aim := hand.Pose()
		hand.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim})
		_, ok := hand.Selector().Selected()
		Expect(ok).To(BeFalse())
		Expect(s.grabbable(far).OutlineVisible()).To(BeFalse())
	})

	It("ignores held objects", func() {
		s := newScene()
		left := s.addHand(grasp.Left, mgl64.Vec3{}, handConfig(grasp.Left))
		cfg := handConfig(grasp.Right)
		cfg.SelectRange = 3
		right := s.addHand(grasp.Right, mgl64.Vec3{0, 0, -1}, cfg)
		s.addBall(mgl64.Vec3{0, 0, 0.1}, 0.05)
		s.tick()
		s.press(left, true)

		aim := right.Pose()
		right.Update(grasp.Input{Target: aim, Pointer: true, Aim: aim})
		_, ok := right.Selector().Selected()
		Expect(ok).To(BeFalse())
	})
})
