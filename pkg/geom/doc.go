// Package geom defines the geometry objects produced by script evaluation.
// An Object is either a Solid (a closed 3-D polygon boundary) or a Profile
// (a set of closed 2-D contours). Objects are immutable; every operation
// returns a new object and leaves its inputs untouched.
package geom
