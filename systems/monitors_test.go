package systems

import (
	"testing"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
)

func TestMonitorNetworkSkipsRock(t *testing.T) {
	terrain := terrainFromRows(
		"lrw",
		"wll",
	)
	net := BuildMonitorNetwork(terrain)

	if net.Len() != 5 {
		t.Fatalf("expected 5 monitors, got %d", net.Len())
	}
	if _, ok := net.NodeAt(components.Pt(1, 0)); ok {
		t.Error("rock cell should have no monitor")
	}
	if _, ok := net.NodeAt(components.Pt(3, 0)); ok {
		t.Error("out of range point should have no monitor")
	}
	m, ok := net.NodeAt(components.Pt(2, 1))
	if !ok || m.Location != components.Pt(2, 1) {
		t.Fatalf("expected monitor at (2,1), got %+v", m)
	}
	if m.Temperature != 0 {
		t.Errorf("expected initial temperature 0, got %v", m.Temperature)
	}
}

func TestMonitorNetworkCrossedMapping(t *testing.T) {
	terrain := terrainFromRows(
		"lll",
		"lll",
		"lll",
	)
	net := BuildMonitorNetwork(terrain)
	center, _ := net.NodeAt(components.Pt(1, 1))

	want := map[components.Direction]components.Point{
		components.East:  components.Pt(0, 1),
		components.West:  components.Pt(2, 1),
		components.South: components.Pt(1, 0),
		components.North: components.Pt(1, 2),
	}
	for d, p := range want {
		idx, ok := center.Neighbor(d)
		if !ok {
			t.Fatalf("missing %v neighbor", d)
		}
		if got := net.Nodes[idx].Location; got != p {
			t.Errorf("%v neighbor at %v, want %v", d, got, p)
		}
	}

	corner, _ := net.NodeAt(components.Pt(0, 0))
	if _, ok := corner.Neighbor(components.East); ok {
		t.Error("corner should have no East neighbor")
	}
	if _, ok := corner.Neighbor(components.South); ok {
		t.Error("corner should have no South neighbor")
	}
	if corner.NeighborCount() != 2 {
		t.Errorf("expected 2 neighbors at corner, got %d", corner.NeighborCount())
	}
}

func TestMonitorNetworkSymmetric(t *testing.T) {
	nf := NewNoiseField(config.Cfg().Noise)
	terrain := GenerateTerrain(nf, config.Cfg().Terrain, 77, 50, 40)
	net := BuildMonitorNetwork(terrain)

	for i := range net.Nodes {
		m := &net.Nodes[i]
		for _, d := range components.Directions {
			ni, ok := m.Neighbor(d)
			if !ok {
				continue
			}
			back, ok := net.Nodes[ni].Neighbor(d.Opposite())
			if !ok || back != int32(i) {
				t.Fatalf("node %d -> %d via %v has no link back", i, ni, d)
			}
		}
	}
}

func TestMonitorNetworkWireIdempotent(t *testing.T) {
	net := BuildMonitorNetwork(terrainFromRows("ll", "ll"))
	before := make([][components.NumDirections]int32, net.Len())
	for i := range net.Nodes {
		before[i] = net.Nodes[i].Neighbors
	}

	net.Wire()
	for i := range net.Nodes {
		if net.Nodes[i].Neighbors != before[i] {
			t.Errorf("node %d links changed on second Wire", i)
		}
	}
}

func TestZoneNodesPartitionMonitors(t *testing.T) {
	terrain := terrainFromRows(
		"lrw",
		"lrw",
		"lrw",
	)
	net := BuildMonitorNetwork(terrain)
	zs := AnalyzeZones(terrain, ZoneModeZoning)
	groups := net.ZoneNodes(zs)

	if len(groups) != zs.Count() {
		t.Fatalf("expected %d groups, got %d", zs.Count(), len(groups))
	}
	total := 0
	for id, g := range groups {
		total += len(g)
		for i := 1; i < len(g); i++ {
			if g[i] <= g[i-1] {
				t.Errorf("group %d not ascending: %v", id, g)
			}
		}
	}
	if total != net.Len() {
		t.Errorf("groups hold %d monitors, want %d", total, net.Len())
	}
	rockZone, _ := zs.ZoneAt(components.Pt(1, 0))
	if len(groups[rockZone]) != 0 {
		t.Errorf("rock zone should have no monitors, got %v", groups[rockZone])
	}
}
