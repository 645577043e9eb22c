package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const twoPi = 2 * math.Pi

// wrapUnit maps v into [0, 1).
func wrapUnit(v float64) float64 {
	v -= math.Floor(v)
	if v >= 1 { // -1e-18 floors to -1 and lands on exactly 1
		v = 0
	}
	return v
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// wrapPi maps a into [-π, π).
func wrapPi(a float64) float64 {
	a = math.Mod(a+math.Pi, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a - math.Pi
}

// torusDelta returns the shortest displacement from -> to on the unit torus.
func torusDelta(from, to r2.Vec) r2.Vec {
	d := r2.Sub(to, from)
	d.X -= math.Round(d.X)
	d.Y -= math.Round(d.Y)
	return d
}

// TorusDistance is the Euclidean distance on the unit torus
func TorusDistance(a, b r2.Vec) float64 {
	return r2.Norm(torusDelta(a, b))
}
