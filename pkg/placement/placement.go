// Package placement maps record digests into a bounded 2-D address space and
// scores each point with a bounded escape-time computation. The mapping is a
// pure function of the digest: identical records always land on the same
// coordinate with the same iteration count. It is a placement heuristic, not
// a proof-of-work.
package placement

import (
	"crypto/sha512"
	"encoding/binary"
	"math"
)

// Address-space bounds. The x range covers the interesting part of the
// Mandelbrot set, the y range its vertical extent.
const (
	XMin = -2.0
	XMax = 1.0
	YMin = -1.0
	YMax = 1.0
)

// MaxIterations bounds the escape-time loop and therefore the worst-case
// cost of a store operation.
const MaxIterations = 1000

// EscapeRadius is the divergence threshold for the escape-time loop.
const EscapeRadius = 2.0

// Coordinate is a point in the address space.
type Coordinate struct {
	X float64
	Y float64
}

// FromDigest splits the digest into two halves and maps each half's leading
// bytes linearly into the coordinate ranges.
func FromDigest(digest [sha512.Size]byte) Coordinate {
	const half = sha512.Size / 2
	xFrac := fraction(digest[:half])
	yFrac := fraction(digest[half:])
	return Coordinate{
		X: XMin + xFrac*(XMax-XMin),
		Y: YMin + yFrac*(YMax-YMin),
	}
}

// fraction maps the first eight bytes of b onto [0, 1).
func fraction(b []byte) float64 {
	v := binary.BigEndian.Uint64(b[:8])
	return float64(v) / float64(math.MaxUint64)
}

// Iterations runs the escape-time loop for c: starting from z = 0, apply
// z <- z^2 + c until |z| exceeds EscapeRadius or MaxIterations passes.
// The returned count is in [0, MaxIterations]; points inside the set return
// MaxIterations.
func Iterations(c Coordinate) int {
	var zx, zy float64
	for i := 0; i < MaxIterations; i++ {
		zx, zy = zx*zx-zy*zy+c.X, 2*zx*zy+c.Y
		if zx*zx+zy*zy > EscapeRadius*EscapeRadius {
			return i
		}
	}
	return MaxIterations
}

// Place combines FromDigest and Iterations.
func Place(digest [sha512.Size]byte) (Coordinate, int) {
	c := FromDigest(digest)
	return c, Iterations(c)
}
