package systems

import (
	"slices"

	"github.com/pthm-cable/thermoscape/components"
)

// MonitorNetwork holds one monitor per non-rock cell and the 4-neighbor
// adjacency between them. Neighbor links are indices into Nodes.
type MonitorNetwork struct {
	W, H  int
	Nodes []components.Monitor

	index []int32 // node index per cell, NoNeighbor when the cell has no monitor
}

// BuildMonitorNetwork creates monitors on every non-rock cell of the terrain,
// in row-major order, then wires them.
func BuildMonitorNetwork(t *Terrain) *MonitorNetwork {
	n := &MonitorNetwork{
		W:     t.W,
		H:     t.H,
		index: make([]int32, t.W*t.H),
	}

	for i, tt := range t.Tiles {
		if tt == components.Rock {
			n.index[i] = components.NoNeighbor
			continue
		}
		n.index[i] = int32(len(n.Nodes))
		n.Nodes = append(n.Nodes, components.NewMonitor(t.PointAt(i), 0))
	}

	n.Wire()
	return n
}

// Wire links every monitor to its neighbors. Monitors that are already wired
// keep their links, so calling Wire again changes nothing.
//
// The slot mapping is crossed relative to compass naming: the cell at x-1 is
// the East neighbor and the cell at y-1 is the South neighbor. Consumers rely
// on this mapping.
func (n *MonitorNetwork) Wire() {
	for i := range n.Nodes {
		m := &n.Nodes[i]
		if m.Wired() {
			continue
		}
		p := m.Location

		var links [components.NumDirections]int32
		links[components.East] = n.lookup(p.X-1, p.Y)
		links[components.West] = n.lookup(p.X+1, p.Y)
		links[components.South] = n.lookup(p.X, p.Y-1)
		links[components.North] = n.lookup(p.X, p.Y+1)
		m.Wire(links)
	}
}

func (n *MonitorNetwork) lookup(x, y int) int32 {
	if x < 0 || x >= n.W || y < 0 || y >= n.H {
		return components.NoNeighbor
	}
	return n.index[y*n.W+x]
}

// Len returns the number of monitors.
func (n *MonitorNetwork) Len() int {
	return len(n.Nodes)
}

// Index returns the node index of the monitor at p.
func (n *MonitorNetwork) Index(p components.Point) (int32, bool) {
	idx := n.lookup(p.X, p.Y)
	return idx, idx != components.NoNeighbor
}

// NodeAt returns the monitor at p. Rock cells and out-of-range points miss.
func (n *MonitorNetwork) NodeAt(p components.Point) (*components.Monitor, bool) {
	idx, ok := n.Index(p)
	if !ok {
		return nil, false
	}
	return &n.Nodes[idx], true
}

// Fill sets every monitor to the same temperature.
func (n *MonitorNetwork) Fill(temperature float64) {
	for i := range n.Nodes {
		n.Nodes[i].Set(temperature)
	}
}

// Temperatures copies the committed temperatures in node order.
func (n *MonitorNetwork) Temperatures() []float64 {
	out := make([]float64, len(n.Nodes))
	for i := range n.Nodes {
		out[i] = n.Nodes[i].Temperature
	}
	return out
}

// AwakeCount returns how many monitors are still changing.
func (n *MonitorNetwork) AwakeCount() int {
	c := 0
	for i := range n.Nodes {
		if n.Nodes[i].Awake {
			c++
		}
	}
	return c
}

// ZoneNodes groups node indices by zone, ascending within each group. Zones
// with no monitors (rock) get an empty group.
func (n *MonitorNetwork) ZoneNodes(zs *ZoneSet) [][]int32 {
	groups := make([][]int32, zs.Count())
	for _, z := range zs.Zones {
		for _, p := range z.Points {
			if idx, ok := n.Index(p); ok {
				groups[z.ID] = append(groups[z.ID], idx)
			}
		}
		slices.Sort(groups[z.ID])
	}
	return groups
}
