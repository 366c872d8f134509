package components

import "fmt"

// Point is an integer grid coordinate. It is comparable and used as a map key.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns the point offset by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// In reports whether p lies inside a w×h grid.
func (p Point) In(w, h int) bool {
	return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction names a neighbor slot of a monitor.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	NumDirections
)

// Directions lists the neighbor slots in slot order.
var Directions = [NumDirections]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	panic(fmt.Sprintf("components: direction %d not implemented", uint8(d)))
}

// Opposite returns the slot a neighbor uses to point back.
func (d Direction) Opposite() Direction {
	return (d + 2) % NumDirections
}
