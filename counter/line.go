package counter

import (
	"fmt"
	"strings"
)

// Point is an x,y pixel coordinate.
type Point struct {
	X, Y int
}

// Line is an oriented counting line defined by two endpoints.  For side
// testing the line is treated as infinite, objects do not need to cross
// between the visible endpoints.
type Line struct {
	A, B Point
}

// Side returns the signed 2D cross product of (p-A) and (B-A).  The result
// is positive on one side of the line, negative on the other and exactly
// zero when p lies on the infinite line through A and B.
func (l Line) Side(p Point) int {
	return (p.X-l.A.X)*(l.B.Y-l.A.Y) - (p.Y-l.A.Y)*(l.B.X-l.A.X)
}

// Orientation is the configured direction of the counting line.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

// ParseOrientation converts the configuration string "vertical" or
// "horizontal" into an Orientation.
func ParseOrientation(s string) (Orientation, error) {

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	}

	return Vertical, fmt.Errorf("unknown line orientation %q", s)
}

// String returns the configuration name of the orientation.
func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// LineForFrame resolves an orientation and relative position against a frame
// size.  pos is clamped to [0,1].  This is done once per session using the
// first decoded frame, the resulting line is held constant even if the frame
// size changes mid stream.
func LineForFrame(o Orientation, pos float64, width, height int) Line {

	if pos < 0 {
		pos = 0
	} else if pos > 1 {
		pos = 1
	}

	if o == Vertical {
		x := int(pos * float64(width))
		return Line{A: Point{x, 0}, B: Point{x, height}}
	}

	y := int(pos * float64(height))
	return Line{A: Point{0, y}, B: Point{width, y}}
}
