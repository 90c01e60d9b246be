// Package dynamo provides the numeric primitives shared by the simulation
// layers.
//
//   - [State]: flat vector of a body's integrable quantities
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//
// The reference physics world integrates each body's linear state through
// an [Integrator] so that the stepping scheme can be swapped by name.
package dynamo
