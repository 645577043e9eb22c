package world

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrLimits is returned for inconsistent motion limits.
var ErrLimits = errors.New("invalid motion limits")

// Pose is a collector's position, heading and current speed
type Pose struct {
	Pos     r2.Vec  // in [0,1)²
	Heading float64 // radians in [0, 2π)
	Speed   float64
}

// Limits bounds how much a collector can change per tick
type Limits struct {
	RotationMax float64 // max heading change per tick
	SpeedMin    float64
	SpeedMax    float64
	SpeedAccel  float64 // max speed change per tick
}

func (l Limits) validate() error {
	if l.SpeedMin < 0 || l.SpeedMin > l.SpeedMax || l.RotationMax < 0 || l.SpeedAccel < 0 {
		return fmt.Errorf("%w: %+v", ErrLimits, l)
	}
	return nil
}

// Move applies controller outputs (rotation, speed) in [-1, 1] to a pose.
// The new position wraps around the edges of the unit square.
func Move(p Pose, out []float64, lim Limits) Pose {
	if len(out) < 2 {
		panic(fmt.Sprintf("world: controller produced %d outputs, need 2", len(out)))
	}

	rotation := clamp(out[0]*lim.RotationMax, -lim.RotationMax, lim.RotationMax)
	accel := clamp(out[1]*lim.SpeedAccel, -lim.SpeedAccel, lim.SpeedAccel)

	p.Speed = clamp(p.Speed+accel, lim.SpeedMin, lim.SpeedMax)
	p.Heading = wrapAngle(p.Heading + rotation)

	step := r2.Scale(p.Speed, r2.Vec{X: math.Cos(p.Heading), Y: math.Sin(p.Heading)})
	next := r2.Add(p.Pos, step)
	p.Pos = r2.Vec{X: wrapUnit(next.X), Y: wrapUnit(next.Y)}
	return p
}

// Collect returns the index of the nearest waste closer than radius.
// Ties go to the lowest index.
func Collect(pos r2.Vec, waste []Waste, radius float64) (int, bool) {
	best := -1
	bestDist := radius
	for i, w := range waste {
		if d := TorusDistance(pos, w.Pos); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, best >= 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
