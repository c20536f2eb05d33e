package geom

import "fmt"

// Direction is one of the eight compass steps, numbered clockwise from Top.
type Direction uint8

const (
	Top Direction = iota
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
	TopLeft
)

// AllDirections lists the eight directions clockwise from Top.
var AllDirections = [8]Direction{Top, TopRight, Right, BottomRight, Bottom, BottomLeft, Left, TopLeft}

// Orthogonal lists the four axis-aligned directions clockwise from Top.
var Orthogonal = [4]Direction{Top, Right, Bottom, Left}

var deltas = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

var directionNames = [8]string{"top", "top-right", "right", "bottom-right", "bottom", "bottom-left", "left", "top-left"}

// Delta returns the (dx, dy) step. Y grows downwards.
func (d Direction) Delta() (int, int) {
	v := deltas[d%8]
	return v[0], v[1]
}

// Clockwise rotates d by 90 degrees clockwise.
func (d Direction) Clockwise() Direction { return (d + 2) % 8 }

// CounterClockwise rotates d by 90 degrees counter-clockwise.
func (d Direction) CounterClockwise() Direction { return (d + 6) % 8 }

// Opposite rotates d by 180 degrees.
func (d Direction) Opposite() Direction { return (d + 4) % 8 }

// IsOrthogonal reports whether d is axis-aligned.
func (d Direction) IsOrthogonal() bool { return d%2 == 0 }

func (d Direction) String() string { return directionNames[d%8] }

// ParseDirection is the inverse of String.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Toward returns the orthogonal direction of the dominant axis from a to b.
// Horizontal wins ties. The second result is false when a == b.
func Toward(a, b Cell) (Direction, bool) {
	dx := int(b.X) - int(a.X)
	dy := int(b.Y) - int(a.Y)
	switch {
	case dx == 0 && dy == 0:
		return Top, false
	case Abs(dx) >= Abs(dy) && dx > 0:
		return Right, true
	case Abs(dx) >= Abs(dy):
		return Left, true
	case dy > 0:
		return Bottom, true
	default:
		return Top, true
	}
}
