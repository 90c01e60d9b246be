package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/graspsim/internal/dynamo"
)

var constructors = map[string]func() dynamo.Integrator{
	"euler":         func() dynamo.Integrator { return NewEuler() },
	"semi_implicit": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"verlet":        func() dynamo.Integrator { return NewVerlet() },
	"rk4":           func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator registered under name.
func New(name string) (dynamo.Integrator, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for k := range constructors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
