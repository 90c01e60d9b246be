package config

import "sort"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"stiff": withHand(func(h *HandConfig) {
		h.VelocityStrength = 0.5
		h.Spring = SpringConfig{Frequency: 18, Damping: 1}
		h.SettlingTicks = 15
	}),
	"soft": withHand(func(h *HandConfig) {
		h.VelocityStrength = 0.1
		h.Spring = SpringConfig{Frequency: 4, Damping: 0.8}
		h.MaxAngularStep = 2.5
	}),
	"heavy": withHand(func(h *HandConfig) {
		h.Mass = 3
		h.BreakForce = 1200
		h.BreakTorque = 1200
		h.SettlingTicks = 45
	}),
}

func withHand(fn func(*HandConfig)) *Config {
	c := DefaultConfig()
	fn(&c.Hand)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
