package systems

import (
	"testing"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
)

// terrainFromRows builds a terrain from rows of 'w', 'l', 'r'.
func terrainFromRows(rows ...string) *Terrain {
	h := len(rows)
	w := len(rows[0])
	t := NewTerrain(w, h)
	for y, row := range rows {
		for x, c := range row {
			var tt components.TileType
			switch c {
			case 'w':
				tt = components.Water
			case 'l':
				tt = components.Land
			case 'r':
				tt = components.Rock
			}
			t.Tiles[y*w+x] = tt
		}
	}
	return t
}

func TestZoningSeparatesRock(t *testing.T) {
	terrain := terrainFromRows(
		"wlr",
		"wlr",
		"rrw",
	)
	zs := AnalyzeZones(terrain, ZoneModeZoning)

	// Water/land block, two rock strips, and the walled-in water corner
	if zs.Count() != 4 {
		t.Fatalf("expected 4 zones, got %d", zs.Count())
	}
	a, _ := zs.ZoneAt(components.Pt(0, 0))
	b, _ := zs.ZoneAt(components.Pt(1, 1))
	if a != b {
		t.Error("water and land should share a zone")
	}
	r1, _ := zs.ZoneAt(components.Pt(2, 0))
	r2, _ := zs.ZoneAt(components.Pt(0, 2))
	if r1 == a || r2 == a {
		t.Error("rock should not join the water/land zone")
	}
	// (2,0)-(2,1) and (0,2)-(1,2) are not orthogonally connected
	if r1 == r2 {
		t.Error("diagonal rock cells should not merge")
	}
}

func TestZoningDiscoveryOrder(t *testing.T) {
	terrain := terrainFromRows(
		"lr",
		"rl",
	)
	zs := AnalyzeZones(terrain, ZoneModeZoning)
	if zs.Count() != 4 {
		t.Fatalf("expected 4 single-cell zones, got %d", zs.Count())
	}
	// x-outer, y-inner scan
	want := []components.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	for i, p := range want {
		z, ok := zs.Zone(i)
		if !ok || z.Points[0] != p {
			t.Errorf("zone %d: expected seed %v, got %+v", i, p, z)
		}
	}
}

func TestZoningPartitionAndClosure(t *testing.T) {
	nf := NewNoiseField(config.Cfg().Noise)
	terrain := GenerateTerrain(nf, config.Cfg().Terrain, 1234, 60, 45)
	zs := AnalyzeZones(terrain, ZoneModeZoning)

	seen := make(map[components.Point]int)
	for _, z := range zs.Zones {
		hasRock, hasOther := false, false
		for _, p := range z.Points {
			if prev, dup := seen[p]; dup {
				t.Fatalf("cell %v in zones %d and %d", p, prev, z.ID)
			}
			seen[p] = z.ID
			tt, _ := terrain.At(p)
			if tt == components.Rock {
				hasRock = true
			} else {
				hasOther = true
			}
		}
		if hasRock && hasOther {
			t.Errorf("zone %d mixes rock with water/land", z.ID)
		}
	}
	if len(seen) != terrain.W*terrain.H {
		t.Errorf("zones cover %d cells, want %d", len(seen), terrain.W*terrain.H)
	}
	if zs.Covered() != terrain.W*terrain.H {
		t.Errorf("Covered() = %d, want %d", zs.Covered(), terrain.W*terrain.H)
	}
}

func TestLandmassJoinsLandAndRock(t *testing.T) {
	terrain := terrainFromRows(
		"lrw",
		"wwl",
		"llw",
	)
	zs := AnalyzeZones(terrain, ZoneModeLandmass)

	if zs.Count() != 3 {
		t.Fatalf("expected 3 islands, got %d", zs.Count())
	}
	a, _ := zs.ZoneAt(components.Pt(0, 0))
	b, _ := zs.ZoneAt(components.Pt(1, 0))
	if a != b {
		t.Error("land and rock should form one island")
	}
	if _, ok := zs.ZoneAt(components.Pt(2, 0)); ok {
		t.Error("water should not be zoned in landmass mode")
	}
	largest, _ := zs.Largest()
	if largest.Len() != 2 {
		t.Errorf("expected largest island of 2 cells, got %d", largest.Len())
	}
	if largest.ID != a {
		t.Errorf("ties should go to the first island, got %d", largest.ID)
	}
}

func TestZoneLookupMisses(t *testing.T) {
	zs := AnalyzeZones(terrainFromRows("ww", "ww"), ZoneModeLandmass)
	if zs.Count() != 0 {
		t.Fatalf("all-water grid should have no islands, got %d", zs.Count())
	}
	if _, ok := zs.Largest(); ok {
		t.Error("expected no largest zone")
	}
	if _, ok := zs.Zone(0); ok {
		t.Error("expected miss for zone 0")
	}
	if _, ok := zs.ZoneAt(components.Pt(-1, 0)); ok {
		t.Error("expected miss for out of bounds point")
	}
}

func TestParseZoneMode(t *testing.T) {
	for _, m := range []ZoneMode{ZoneModeZoning, ZoneModeLandmass} {
		got, err := ParseZoneMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseZoneMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseZoneMode("chunks"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
