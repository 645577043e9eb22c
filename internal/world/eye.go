package world

import (
	"errors"
	"fmt"
	"math"
)

// ErrEye is returned for a non-positive range, angle or cell count, or an
// angle wider than a full circle.
var ErrEye = errors.New("invalid eye")

// Eye divides the field of view in front of a collector into angular cells.
// Each cell reports how close the visible waste in that direction is.
type Eye struct {
	fovRange float64
	fovAngle float64
	cells    int
	buffer   []float64
}

// NewEye creates an eye seeing up to fovRange away across fovAngle radians
// centred on the heading.
func NewEye(fovRange, fovAngle float64, cells int) (*Eye, error) {
	if fovRange <= 0 || fovAngle <= 0 || fovAngle > twoPi || cells < 1 {
		return nil, fmt.Errorf("%w: range=%g angle=%g cells=%d", ErrEye, fovRange, fovAngle, cells)
	}
	return &Eye{
		fovRange: fovRange,
		fovAngle: fovAngle,
		cells:    cells,
		buffer:   make([]float64, cells),
	}, nil
}

// Cells returns the sensor vector length
func (e *Eye) Cells() int {
	return e.cells
}

// Sense builds the sensor vector for a collector at pose.
// Returns a slice that should not be modified (internal buffer)
func (e *Eye) Sense(pose Pose, waste []Waste) []float64 {
	for i := range e.buffer {
		e.buffer[i] = 0
	}

	half := e.fovAngle / 2
	for _, w := range waste {
		d := torusDelta(pose.Pos, w.Pos)
		dist := math.Hypot(d.X, d.Y)
		if dist >= e.fovRange {
			continue
		}

		angle := wrapPi(math.Atan2(d.Y, d.X) - pose.Heading)
		if angle < -half || angle > half {
			continue
		}

		cell := int((angle + half) / e.fovAngle * float64(e.cells))
		if cell >= e.cells {
			cell = e.cells - 1
		}

		// Closer waste weighs more
		e.buffer[cell] += (e.fovRange - dist) / e.fovRange
	}

	for i, v := range e.buffer {
		if v > 1 {
			e.buffer[i] = 1
		}
	}
	return e.buffer
}
