package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/graspsim/internal/config"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/session"
)

func TestBuiltinsValidate(t *testing.T) {
	names := Names()
	if len(names) != 4 {
		t.Fatalf("expected 4 builtins, got %v", names)
	}
	for _, name := range names {
		sc, err := Builtin(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if sc.Name != name {
			t.Errorf("builtin %s is named %q", name, sc.Name)
		}
		if err := sc.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("no-such-scenario")
	if !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestParseSortsEvents(t *testing.T) {
	sc, err := Parse([]byte(`
name: order
hands: [{side: left}]
events:
  - {at: 20, hand: left, grip: false}
  - {at: 5, hand: left, grip: true}
  - {at: 20, hand: left, pointer: true}
`))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Events[0].At != 5 || sc.Events[1].Grip == nil || sc.Events[2].Pointer == nil {
		t.Errorf("events not stably sorted: %+v", sc.Events)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	sc := &Scenario{
		Name:    "bad",
		Objects: []Object{{Name: "a", Radius: 0, Mass: 1}, {Name: "a", Radius: 1, Mass: 1}},
		Hands:   []HandSpec{{Side: "middle"}},
		Events:  []Event{{At: 1, Push: "ghost"}},
	}
	err := sc.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"radius must be positive", "duplicate name", "unknown hand side", "unknown object"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    grasp.Side
		wantErr bool
	}{
		{"left", grasp.Left, false},
		{"right", grasp.Right, false},
		{"Left", grasp.Left, true},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSide(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseSide(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlayerInterpolatesTarget(t *testing.T) {
	sc, err := Parse([]byte(`
name: lerp
hands: [{side: right, position: [0, 0, 0]}]
events:
  - {at: 0, hand: right, target: [1, 0, 0], over: 10}
  - {at: 3, hand: right, grip: true}
`))
	if err != nil {
		t.Fatal(err)
	}
	run, err := Build(sc, config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := run.Player

	f := p.Frame(0)
	if x := f.Inputs[0].Target.Position.X(); x != 0 {
		t.Errorf("tick 0 target x = %v, want 0", x)
	}
	p.Frame(1)
	p.Frame(2)
	f = p.Frame(5)
	if x := f.Inputs[0].Target.Position.X(); x < 0.49 || x > 0.51 {
		t.Errorf("tick 5 target x = %v, want 0.5", x)
	}
	if !f.Inputs[0].Grip {
		t.Error("grip not held after tick 3")
	}
	f = p.Frame(20)
	if x := f.Inputs[0].Target.Position.X(); x != 1 {
		t.Errorf("tick 20 target x = %v, want 1", x)
	}
	if !p.Done() {
		t.Error("player not done")
	}
}

// touchWatch records whether any fingertip of a holding hand reported
// contact during a run.
type touchWatch struct {
	hands   []*grasp.Hand
	touched int
}

func (w *touchWatch) OnTick(session.Sample) {
	for _, h := range w.hands {
		if _, ok := h.Held(); !ok {
			continue
		}
		d := h.Fingers()
		for f := 0; f < d.Fingers(); f++ {
			if d.Touching(f) {
				w.touched++
				return
			}
		}
	}
}

func runBuiltin(t *testing.T, name string, observers ...func(*Run) session.Observer) map[string]float64 {
	t.Helper()
	sc, err := Builtin(name)
	if err != nil {
		t.Fatal(err)
	}
	run, err := Build(sc, config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range observers {
		run.Session.AddObserver(o(run))
	}
	res, err := run.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.TicksTaken != sc.Ticks {
		t.Errorf("%s ran %d ticks, want %d", name, res.TicksTaken, sc.Ticks)
	}
	return res.Metrics
}

func TestBuiltinOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		grabs       float64
		releases    float64
		jointBreaks float64
	}{
		{"pickup", 1, 1, 0},
		{"break", 1, 0, 1},
		{"handoff", 2, 2, 0},
		{"fetch", 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := runBuiltin(t, tt.name)
			if m["grabs"] != tt.grabs {
				t.Errorf("grabs = %v, want %v", m["grabs"], tt.grabs)
			}
			if m["releases"] != tt.releases {
				t.Errorf("releases = %v, want %v", m["releases"], tt.releases)
			}
			if m["joint_breaks"] != tt.jointBreaks {
				t.Errorf("joint_breaks = %v, want %v", m["joint_breaks"], tt.jointBreaks)
			}
			if m["fit_failures"] != 0 {
				t.Errorf("fit_failures = %v", m["fit_failures"])
			}
		})
	}
}

func TestBuiltinFingersTouchHeldObject(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			w := &touchWatch{}
			runBuiltin(t, name, func(r *Run) session.Observer {
				w.hands = r.Session.Hands()
				return w
			})
			if w.touched == 0 {
				t.Error("no fingertip touched the held object")
			}
		})
	}
}

func TestPickupTurnsWrist(t *testing.T) {
	m := runBuiltin(t, "pickup")
	if m["control_effort"] <= 0 {
		t.Errorf("control_effort = %v, want > 0", m["control_effort"])
	}
}

func TestExecuteCancelled(t *testing.T) {
	sc, _ := Builtin("pickup")
	run, err := Build(sc, config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := run.Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.TicksTaken != 0 {
		t.Errorf("ticks taken = %d", res.TicksTaken)
	}
}
