// Package scenario loads scripted grasp sessions from YAML and plays their
// timelines back as session input.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/graspsim/internal/control"
	"gopkg.in/yaml.v3"
)

var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Scenario is a scene plus a timeline of input events.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Ticks       int        `yaml:"ticks"`
	Objects     []Object   `yaml:"objects"`
	Hands       []HandSpec `yaml:"hands"`
	Events      []Event    `yaml:"events"`
}

// Object is a sphere in the scene. Static objects are immovable obstacles
// and never grabbable.
type Object struct {
	Name     string          `yaml:"name"`
	Position [3]float64      `yaml:"position"`
	Radius   float64         `yaml:"radius"`
	Mass     float64         `yaml:"mass"`
	Static   bool            `yaml:"static"`
	Spring   *control.Spring `yaml:"spring"`
}

// HandSpec places a hand; Euler is in degrees, applied X then Y then Z.
type HandSpec struct {
	Side     string     `yaml:"side"`
	Position [3]float64 `yaml:"position"`
	Euler    [3]float64 `yaml:"euler"`
}

// Event changes a hand's input or pushes an object at tick At. A target
// with Over > 0 is approached linearly over that many ticks.
type Event struct {
	At      int         `yaml:"at"`
	Hand    string      `yaml:"hand,omitempty"`
	Target  *[3]float64 `yaml:"target,omitempty"`
	Euler   *[3]float64 `yaml:"euler,omitempty"`
	Over    int         `yaml:"over,omitempty"`
	Grip    *bool       `yaml:"grip,omitempty"`
	Pointer *bool       `yaml:"pointer,omitempty"`
	Push    string      `yaml:"push,omitempty"`
	Force   [3]float64  `yaml:"force,omitempty"`
	Mode    string      `yaml:"mode,omitempty"`
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].At < sc.Events[j].At })
	return &sc, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Resolve returns a built-in scenario by name, or loads nameOrPath from disk.
func Resolve(nameOrPath string) (*Scenario, error) {
	if sc, err := Builtin(nameOrPath); err == nil {
		return sc, nil
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, nameOrPath)
	}
	return Load(nameOrPath)
}

// Validate reports every problem with the scene and timeline at once.
func (sc *Scenario) Validate() error {
	var errs []error
	if sc.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if sc.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks must not be negative, got %d", sc.Ticks))
	}

	objects := make(map[string]Object)
	for i, o := range sc.Objects {
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("objects[%d]: name is required", i))
		} else if _, dup := objects[o.Name]; dup {
			errs = append(errs, fmt.Errorf("objects[%d]: duplicate name %q", i, o.Name))
		}
		if o.Radius <= 0 {
			errs = append(errs, fmt.Errorf("objects[%d] %s: radius must be positive", i, o.Name))
		}
		if !o.Static && o.Mass <= 0 {
			errs = append(errs, fmt.Errorf("objects[%d] %s: mass must be positive", i, o.Name))
		}
		objects[o.Name] = o
	}

	hands := make(map[string]bool)
	if len(sc.Hands) == 0 {
		errs = append(errs, errors.New("at least one hand is required"))
	}
	for i, h := range sc.Hands {
		if _, err := ParseSide(h.Side); err != nil {
			errs = append(errs, fmt.Errorf("hands[%d]: %w", i, err))
			continue
		}
		if hands[h.Side] {
			errs = append(errs, fmt.Errorf("hands[%d]: duplicate %s hand", i, h.Side))
		}
		hands[h.Side] = true
	}

	for i, ev := range sc.Events {
		if ev.At < 0 || (sc.Ticks > 0 && ev.At >= sc.Ticks) {
			errs = append(errs, fmt.Errorf("events[%d]: tick %d outside the run", i, ev.At))
		}
		if ev.Push != "" {
			o, ok := objects[ev.Push]
			if !ok {
				errs = append(errs, fmt.Errorf("events[%d]: push of unknown object %q", i, ev.Push))
			} else if o.Static {
				errs = append(errs, fmt.Errorf("events[%d]: push of static object %q", i, ev.Push))
			}
			if _, ok := modes[ev.Mode]; !ok {
				errs = append(errs, fmt.Errorf("events[%d]: unknown force mode %q", i, ev.Mode))
			}
		}
		if ev.Target != nil || ev.Grip != nil || ev.Pointer != nil || ev.Euler != nil {
			if !hands[ev.Hand] {
				errs = append(errs, fmt.Errorf("events[%d]: unknown hand %q", i, ev.Hand))
			}
		}
		if ev.Over < 0 {
			errs = append(errs, fmt.Errorf("events[%d]: over must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scenario %s: %w", sc.Name, errors.Join(errs...))
	}
	return nil
}
