// Package geom provides the small amount of 2-D geometry gesture
// classification needs: travel distance and a biased direction read.
package geom

import "math"

// Direction is the dominant axis-aligned direction of a movement.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Point is a device-space position. Y grows downward, matching screen
// coordinates.
type Point struct {
	X int32
	Y int32
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// DefaultBias is the horizontal preference applied by Direction.
// Side-to-side travel is mechanically easier on a trackpad than up/down
// travel, so ambiguous diagonal motion should read as left/right.
const DefaultBias = 1.15

// Direction classifies the movement from a to b as one of the four
// axis-aligned directions. The horizontal delta only has to beat
// bias*|dy| to win, never an exact tie against |dy| itself.
func DirectionBiased(a, b Point, bias float64) Direction {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if math.Abs(dx) > math.Abs(bias*dy) {
		if dx > 0 {
			return Right
		}
		return Left
	}
	if dy > 0 {
		return Down
	}
	return Up
}

// DirectionOf is DirectionBiased with the default horizontal bias.
func DirectionOf(a, b Point) Direction {
	return DirectionBiased(a, b, DefaultBias)
}
