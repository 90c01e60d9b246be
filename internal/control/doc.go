// Package control computes the virtual force and torque that drive a hand
// body toward its tracked pose.
//
// [PosePD] is evaluated once per fixed tick for every hand, whether or not
// it holds anything. The linear term is a one-tick velocity correction
// applied as an impulse; the angular term is a critically damped PD on
// SO(3) whose output is shaped by the body's inertia tensor so that
// anisotropic bodies receive physically consistent torque.
package control
