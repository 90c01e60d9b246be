package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTickRate         = 90.0
	DefaultTicks            = 600
	DefaultVelocityStrength = 0.2
	DefaultRotationStrength = 1.0
	DefaultFrequency        = 10.0
	DefaultDamping          = 1.0
	DefaultBreakForce       = 400.0
	DefaultBreakTorque      = 400.0
	DefaultSettlingTicks    = 30
	DefaultFingerStep       = 0.1

	// EnvPrefix prefixes every environment override, as in GRASPSIM_TICK_RATE.
	EnvPrefix = "GRASPSIM_"
)

type Config struct {
	TickRate   float64      `yaml:"tick_rate" env:"TICK_RATE"`
	Ticks      int          `yaml:"ticks" env:"TICKS"`
	Integrator string       `yaml:"integrator" env:"INTEGRATOR"`
	Gravity    float64      `yaml:"gravity" env:"GRAVITY"`
	Hand       HandConfig   `yaml:"hand"`
	Fingers    FingerConfig `yaml:"fingers"`
	Layers     LayerConfig  `yaml:"layers"`
}

type HandConfig struct {
	Mass             float64      `yaml:"mass" env:"HAND_MASS"`
	PalmOffset       [3]float64   `yaml:"palm_offset"`
	PalmRadius       float64      `yaml:"palm_radius" env:"PALM_RADIUS"`
	SweepBackOffset  float64      `yaml:"sweep_back_offset" env:"SWEEP_BACK_OFFSET"`
	SweepDistance    float64      `yaml:"sweep_distance" env:"SWEEP_DISTANCE"`
	TriggerRadius    float64      `yaml:"trigger_radius" env:"TRIGGER_RADIUS"`
	RotationStrength float64      `yaml:"rotation_strength" env:"ROTATION_STRENGTH"`
	VelocityStrength float64      `yaml:"velocity_strength" env:"VELOCITY_STRENGTH"`
	MaxAngularStep   float64      `yaml:"max_angular_step" env:"MAX_ANGULAR_STEP"`
	SnapEpsilon      float64      `yaml:"snap_epsilon" env:"SNAP_EPSILON"`
	BreakForce       float64      `yaml:"break_force" env:"BREAK_FORCE"`
	BreakTorque      float64      `yaml:"break_torque" env:"BREAK_TORQUE"`
	SettlingTicks    int          `yaml:"settling_ticks" env:"SETTLING_TICKS"`
	SelectRange      float64      `yaml:"select_range" env:"SELECT_RANGE"`
	Spring           SpringConfig `yaml:"spring"`
}

type SpringConfig struct {
	Frequency float64 `yaml:"frequency" env:"FREQUENCY"`
	Damping   float64 `yaml:"damping" env:"DAMPING"`
}

// FingerConfig describes the finger chains. Asset names a pose file; when
// empty a uniform curl of CloseAngle degrees is used.
type FingerConfig struct {
	Asset           string  `yaml:"asset" env:"FINGER_ASSET"`
	Count           int     `yaml:"count" env:"FINGER_COUNT"`
	JointsPerFinger int     `yaml:"joints_per_finger" env:"JOINTS_PER_FINGER"`
	Step            float64 `yaml:"step" env:"FINGER_STEP"`
	CloseAngle      float64 `yaml:"close_angle" env:"FINGER_CLOSE_ANGLE"`
	Link            float64 `yaml:"link"`
	TipRadius       float64 `yaml:"tip_radius"`
}

// LayerConfig assigns a category bit to each grasp category.
type LayerConfig struct {
	Scene     uint `yaml:"scene"`
	Grabbable uint `yaml:"grabbable"`
	HeldLeft  uint `yaml:"held_left"`
	HeldRight uint `yaml:"held_right"`
	HeldBoth  uint `yaml:"held_both"`
	Hand      uint `yaml:"hand"`
}

func DefaultConfig() *Config {
	return &Config{
		TickRate:   DefaultTickRate,
		Ticks:      DefaultTicks,
		Integrator: "semi_implicit",
		Gravity:    -9.81,
		Hand: HandConfig{
			Mass:             1,
			PalmRadius:       0.03,
			SweepBackOffset:  0.05,
			SweepDistance:    0.3,
			TriggerRadius:    0.1,
			RotationStrength: DefaultRotationStrength,
			VelocityStrength: DefaultVelocityStrength,
			MaxAngularStep:   0,
			BreakForce:       DefaultBreakForce,
			BreakTorque:      DefaultBreakTorque,
			SettlingTicks:    DefaultSettlingTicks,
			SelectRange:      3,
			Spring: SpringConfig{
				Frequency: DefaultFrequency,
				Damping:   DefaultDamping,
			},
		},
		Fingers: FingerConfig{
			Count:           5,
			JointsPerFinger: 3,
			Step:            DefaultFingerStep,
			CloseAngle:      80,
			Link:            0.025,
			TipRadius:       0.008,
		},
		Layers: LayerConfig{
			Scene:     0,
			Grabbable: 1,
			HeldLeft:  2,
			HeldRight: 3,
			HeldBoth:  4,
			Hand:      5,
		},
	}
}

// TickDuration is the fixed step in seconds.
func (c *Config) TickDuration() float64 {
	return 1 / c.TickRate
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays GRASPSIM_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(env.Options{Prefix: EnvPrefix})
}

func (c *Config) applyEnv(opts env.Options) error {
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("tick_rate", c.TickRate)
	positive("hand.mass", c.Hand.Mass)
	positive("hand.palm_radius", c.Hand.PalmRadius)
	positive("hand.sweep_distance", c.Hand.SweepDistance)
	positive("hand.trigger_radius", c.Hand.TriggerRadius)
	positive("hand.velocity_strength", c.Hand.VelocityStrength)
	positive("hand.break_force", c.Hand.BreakForce)
	positive("hand.break_torque", c.Hand.BreakTorque)
	positive("hand.spring.frequency", c.Hand.Spring.Frequency)

	if c.Ticks <= 0 {
		errs = append(errs, fmt.Errorf("ticks must be positive, got %d", c.Ticks))
	}
	if c.Hand.SettlingTicks < 0 {
		errs = append(errs, fmt.Errorf("hand.settling_ticks must not be negative, got %d", c.Hand.SettlingTicks))
	}
	if c.Hand.MaxAngularStep < 0 || c.Hand.SnapEpsilon < 0 {
		errs = append(errs, errors.New("hand.max_angular_step and hand.snap_epsilon must not be negative"))
	}
	if c.Fingers.Step <= 0 || c.Fingers.Step > 1 {
		errs = append(errs, fmt.Errorf("fingers.step must be in (0, 1], got %v", c.Fingers.Step))
	}
	if c.Fingers.Asset == "" && (c.Fingers.Count <= 0 || c.Fingers.JointsPerFinger <= 0) {
		errs = append(errs, errors.New("fingers.count and fingers.joints_per_finger must be positive"))
	}
	if c.Fingers.TipRadius <= 0 {
		errs = append(errs, fmt.Errorf("fingers.tip_radius must be positive, got %v", c.Fingers.TipRadius))
	}

	l := c.Layers
	seen := make(map[uint]string)
	for _, layer := range []struct {
		name string
		bit  uint
	}{
		{"scene", l.Scene},
		{"grabbable", l.Grabbable},
		{"held_left", l.HeldLeft},
		{"held_right", l.HeldRight},
		{"held_both", l.HeldBoth},
		{"hand", l.Hand},
	} {
		if layer.bit > 31 {
			errs = append(errs, fmt.Errorf("layers.%s: bit %d out of range", layer.name, layer.bit))
			continue
		}
		if other, dup := seen[layer.bit]; dup {
			errs = append(errs, fmt.Errorf("layers.%s shares bit %d with layers.%s", layer.name, layer.bit, other))
		}
		seen[layer.bit] = layer.name
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// Params returns the tunable hand parameters by name.
func (c *Config) Params() map[string]float64 {
	return map[string]float64{
		"velocity_strength": c.Hand.VelocityStrength,
		"rotation_strength": c.Hand.RotationStrength,
		"frequency":         c.Hand.Spring.Frequency,
		"damping":           c.Hand.Spring.Damping,
		"break_force":       c.Hand.BreakForce,
		"finger_step":       c.Fingers.Step,
	}
}

// SetParam adjusts one of the parameters named by Params.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case "velocity_strength":
		c.Hand.VelocityStrength = value
	case "rotation_strength":
		c.Hand.RotationStrength = value
	case "frequency":
		c.Hand.Spring.Frequency = value
	case "damping":
		c.Hand.Spring.Damping = value
	case "break_force":
		c.Hand.BreakForce = value
	case "finger_step":
		c.Fingers.Step = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
