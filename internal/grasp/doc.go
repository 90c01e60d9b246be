// Package grasp implements the grasp lifecycle of a physics-driven hand.
//
// A [Hand] tracks the grabbables overlapping its trigger volume, lights the
// outline of its best candidate, and on a grip press runs the grab
// procedure: a palm fit that moves the candidate onto the palm, then two
// deferred sequences on the shared [sched.Scheduler], one closing the
// fingers and one creating and later arming a breakable joint. Releasing
// the grip, or the backend breaking the joint, undoes all of it.
//
// Grabbables live in a [Registry] and are referred to by [GrabbableID].
// A grabbable can be held by at most two hands, one per [Side], which is
// what makes two-handed holds and hand-offs possible.
//
// Everything here runs on the simulation thread; nothing is safe for
// concurrent use.
package grasp
