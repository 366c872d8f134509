// Package components defines the grid value types shared by the generation
// pipeline and the simulation, plus the ECS components attached to scene entities.
package components

import (
	"fmt"
	"math"
)

// TileType is the classification of one grid cell.
type TileType uint8

const (
	Water TileType = iota
	Land
	Rock
	NumTileTypes
)

// TileTypes lists every valid tile type.
var TileTypes = [NumTileTypes]TileType{Water, Land, Rock}

// Valid reports whether t is a known tile type.
func (t TileType) Valid() bool {
	return t < NumTileTypes
}

// String returns the tile name. An unknown tile type means a lookup table is
// incomplete, so it panics instead of inventing a name.
func (t TileType) String() string {
	switch t {
	case Water:
		return "water"
	case Land:
		return "land"
	case Rock:
		return "rock"
	}
	panic(fmt.Sprintf("components: tile type %d not implemented", uint8(t)))
}

// ParseTileType converts a tile name back to a TileType.
func ParseTileType(s string) (TileType, error) {
	for _, t := range TileTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tile type %q", s)
}

// MarshalText implements encoding.TextMarshaler so tiles serialize by name.
func (t TileType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("tile type %d not implemented", uint8(t))
	}
	return []byte(t.String()), nil
}

// NoNeighbor marks an empty neighbor slot.
const NoNeighbor int32 = -1

// Monitor is one simulation node. It sits on a non-rock cell and carries the
// committed temperature plus the value being accumulated for the current tick.
// Neighbors hold indices into the owning network's node slice.
type Monitor struct {
	Location    Point
	Temperature float64 // committed value, read by consumers
	Pending     float64 // value accumulated during the in-progress tick
	Awake       bool    // pending differs from committed by more than epsilon
	Neighbors   [NumDirections]int32

	wired bool
}

// NewMonitor creates an unwired monitor at p with the given temperature.
func NewMonitor(p Point, temperature float64) Monitor {
	m := Monitor{
		Location:    p,
		Temperature: temperature,
		Pending:     temperature,
	}
	for i := range m.Neighbors {
		m.Neighbors[i] = NoNeighbor
	}
	return m
}

// Wire sets the neighbor slots. Only the first call has an effect; it returns
// false when the monitor was already wired.
func (m *Monitor) Wire(links [NumDirections]int32) bool {
	if m.wired {
		return false
	}
	m.Neighbors = links
	m.wired = true
	return true
}

// Wired reports whether Wire has run.
func (m *Monitor) Wired() bool {
	return m.wired
}

// Neighbor returns the node index in slot d, if present.
func (m *Monitor) Neighbor(d Direction) (int32, bool) {
	idx := m.Neighbors[d]
	return idx, idx != NoNeighbor
}

// NeighborCount returns the number of filled slots.
func (m *Monitor) NeighborCount() int {
	n := 0
	for _, idx := range m.Neighbors {
		if idx != NoNeighbor {
			n++
		}
	}
	return n
}

// IncreaseTemp adds to the pending value.
func (m *Monitor) IncreaseTemp(v float64) {
	m.Pending += v
	m.Awake = true
}

// DecreaseTemp subtracts from the pending value.
func (m *Monitor) DecreaseTemp(v float64) {
	m.Pending -= v
	m.Awake = true
}

// Set overwrites both committed and pending temperature.
func (m *Monitor) Set(v float64) {
	m.Temperature = v
	m.Pending = v
	m.Awake = true
}

// Apply commits the pending value. The monitor goes to sleep when the commit
// moved the temperature by less than epsilon. Returns true if still awake.
func (m *Monitor) Apply(epsilon float64) bool {
	old := m.Temperature
	m.Temperature = m.Pending
	if math.Abs(m.Temperature-old) < epsilon {
		m.Awake = false
	}
	return m.Awake
}

// Tile is the ECS component placed on every scene entity.
type Tile struct {
	Location Point
	Type     TileType
}

// Covering marks a land entity carrying grass.
type Covering struct {
	Density float64 // value of the covering field at this cell
}

// Sensor links a scene entity to its monitor in the simulation network.
type Sensor struct {
	Node int32
}
