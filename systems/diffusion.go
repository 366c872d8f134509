package systems

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
)

// DiffusionEngine moves temperature between neighboring monitors once per
// update interval. Each tick accumulates transfers into pending values and
// commits them in a second pass.
//
// Nodes are swept per zone. Zoning-mode zones are closed under the neighbor
// relation, so a zone can be ticked on its own without losing heat.
type DiffusionEngine struct {
	net    *MonitorNetwork
	groups [][]int32

	Interval time.Duration // minimum wall-clock gap between ticks
	Rate     float64       // fraction of a positive difference moved per neighbor
	Epsilon  float64       // commits smaller than this put a node to sleep
	Order    string        // config.OrderSnapshot or config.OrderCascade

	last   time.Time
	ticked bool
	ticks  int
}

// NewDiffusionEngine creates an engine over net. Zones must come from
// ZoneModeZoning; with nil or any other mode every node is swept as one group.
func NewDiffusionEngine(net *MonitorNetwork, zs *ZoneSet, cfg config.DiffusionConfig) *DiffusionEngine {
	e := &DiffusionEngine{
		net:      net,
		Interval: time.Duration(cfg.UpdateIntervalMS) * time.Millisecond,
		Rate:     cfg.TransferRate,
		Epsilon:  cfg.Epsilon,
		Order:    cfg.Order,
	}
	if zs != nil && zs.Mode == ZoneModeZoning {
		e.groups = net.ZoneNodes(zs)
	} else {
		all := make([]int32, net.Len())
		for i := range all {
			all[i] = int32(i)
		}
		e.groups = [][]int32{all}
	}
	return e
}

// Network returns the monitor network the engine mutates.
func (e *DiffusionEngine) Network() *MonitorNetwork {
	return e.net
}

// Ticks returns the number of full sweeps run so far.
func (e *DiffusionEngine) Ticks() int {
	return e.ticks
}

// LastTick returns the time of the last gated tick.
func (e *DiffusionEngine) LastTick() time.Time {
	return e.last
}

// Zones returns the number of independently updatable groups.
func (e *DiffusionEngine) Zones() int {
	return len(e.groups)
}

// IsReady reports whether a tick may run at now. The first tick is always ready.
func (e *DiffusionEngine) IsReady(now time.Time) bool {
	return !e.ticked || now.Sub(e.last) >= e.Interval
}

// MaybeTick runs one sweep if the interval has elapsed and reports whether it
// did. Missed intervals are not caught up.
func (e *DiffusionEngine) MaybeTick(now time.Time) bool {
	if !e.IsReady(now) {
		return false
	}
	e.Tick()
	e.last = now
	e.ticked = true
	return true
}

// Tick runs one sweep over every zone, ignoring the interval.
func (e *DiffusionEngine) Tick() {
	for _, g := range e.groups {
		e.sweep(g)
	}
	e.ticks++
}

// TickZone runs one sweep over a single zone. It does not touch tick timing.
func (e *DiffusionEngine) TickZone(id int) error {
	if id < 0 || id >= len(e.groups) {
		return fmt.Errorf("zone %d out of range [0,%d)", id, len(e.groups))
	}
	e.sweep(e.groups[id])
	return nil
}

func (e *DiffusionEngine) sweep(group []int32) {
	nodes := e.net.Nodes
	cascade := e.Order == config.OrderCascade

	for _, ci := range group {
		c := &nodes[ci]
		for _, ni := range c.Neighbors {
			if ni == components.NoNeighbor {
				continue
			}
			n := &nodes[ni]

			var diff float64
			if cascade {
				diff = c.Pending - n.Pending
			} else {
				diff = c.Temperature - n.Temperature
			}
			if diff <= 0 {
				continue
			}

			transfer := diff * e.Rate
			n.IncreaseTemp(transfer)
			c.DecreaseTemp(transfer)
		}
	}

	for _, ci := range group {
		nodes[ci].Apply(e.Epsilon)
	}
}

// Inject adds heat to the monitor at p outside of a tick.
func (e *DiffusionEngine) Inject(p components.Point, amount float64) error {
	m, ok := e.net.NodeAt(p)
	if !ok {
		return fmt.Errorf("no monitor at %v", p)
	}
	m.Set(m.Temperature + amount)
	return nil
}

// TotalHeat returns the sum of committed temperatures.
func (e *DiffusionEngine) TotalHeat() float64 {
	if e.net.Len() == 0 {
		return 0
	}
	return floats.Sum(e.net.Temperatures())
}
