// Package physics defines the rigid-body backend the grasp controller is
// written against, and a small in-process [World] implementing it.
//
// The backend surface is split by concern:
//
//   - [Dynamics]: body state, force/torque application, teleport-free
//     translation and collision categories
//   - [Query]: sphere-casts, ray-casts and sphere overlap tests
//   - [Joints]: breakable compliant joints with a break callback
//
// [World] supports sphere colliders, trigger volumes, a ground plane and
// spring joints. Bodies do not collide with each other; scenes that need
// contact response plug in a real engine behind [Backend].
//
// # Thread Safety
//
// World is NOT thread-safe. It is stepped from the single simulation
// thread, and callbacks fire synchronously from [World.Step].
package physics
