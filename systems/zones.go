package systems

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/pthm-cable/thermoscape/components"
)

// ZoneMode selects the compatibility rule used by flood fill.
type ZoneMode uint8

const (
	// ZoneModeZoning joins water with land; rock forms its own zones.
	ZoneModeZoning ZoneMode = iota
	// ZoneModeLandmass joins land with rock into islands. Water is not zoned.
	ZoneModeLandmass
)

// String returns the mode name.
func (m ZoneMode) String() string {
	switch m {
	case ZoneModeZoning:
		return "zoning"
	case ZoneModeLandmass:
		return "landmass"
	}
	panic(fmt.Sprintf("systems: zone mode %d not implemented", uint8(m)))
}

// ParseZoneMode converts a mode name back to a ZoneMode.
func ParseZoneMode(s string) (ZoneMode, error) {
	switch s {
	case "zoning", "":
		return ZoneModeZoning, nil
	case "landmass", "island":
		return ZoneModeLandmass, nil
	}
	return 0, fmt.Errorf("unknown zone mode %q", s)
}

// seeds reports whether a cell of type t may open a new zone.
func (m ZoneMode) seeds(t components.TileType) bool {
	if m == ZoneModeLandmass {
		return IsLandmass(t)
	}
	return true
}

// joins reports whether a cell of type t belongs to a zone opened on seed.
func (m ZoneMode) joins(seed, t components.TileType) bool {
	if m == ZoneModeLandmass {
		return IsLandmass(t)
	}
	if seed == components.Rock {
		return t == components.Rock
	}
	return t == components.Water || t == components.Land
}

// Zone is one maximal connected component. Points are in visitation order.
type Zone struct {
	ID     int
	Points []components.Point
}

// Len returns the number of cells in the zone.
func (z Zone) Len() int {
	return len(z.Points)
}

// ZoneSet is the result of one analysis pass.
type ZoneSet struct {
	Mode  ZoneMode
	W, H  int
	Zones []Zone

	cells []int32 // zone id per cell, -1 when unzoned
}

// neighborOffsets are the 4-orthogonal steps used by flood fill.
var neighborOffsets = [4]components.Point{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: -1, Y: 0},
}

// AnalyzeZones partitions the terrain into zones under the given mode.
// The scan runs x-outer, y-inner and resumes after each seed, so zone IDs
// follow discovery order.
func AnalyzeZones(t *Terrain, mode ZoneMode) *ZoneSet {
	zs := &ZoneSet{
		Mode:  mode,
		W:     t.W,
		H:     t.H,
		cells: make([]int32, t.W*t.H),
	}
	for i := range zs.cells {
		zs.cells[i] = -1
	}

	visited := mapset.New[components.Point]()
	var queue []components.Point

	for x := 0; x < t.W; x++ {
		for y := 0; y < t.H; y++ {
			start := components.Pt(x, y)
			if visited.Has(start) {
				continue
			}
			seed := t.Tiles[t.Index(start)]
			if !mode.seeds(seed) {
				continue
			}

			id := len(zs.Zones)
			zone := Zone{ID: id}

			visited.Put(start)
			queue = append(queue[:0], start)
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]

				zone.Points = append(zone.Points, p)
				zs.cells[t.Index(p)] = int32(id)

				for _, off := range neighborOffsets {
					n := p.Add(off.X, off.Y)
					if !t.In(n) || visited.Has(n) {
						continue
					}
					if !mode.joins(seed, t.Tiles[t.Index(n)]) {
						continue
					}
					visited.Put(n)
					queue = append(queue, n)
				}
			}

			zs.Zones = append(zs.Zones, zone)
		}
	}

	return zs
}

// Count returns the number of zones.
func (zs *ZoneSet) Count() int {
	return len(zs.Zones)
}

// Zone returns the zone with the given id.
func (zs *ZoneSet) Zone(id int) (Zone, bool) {
	if id < 0 || id >= len(zs.Zones) {
		return Zone{}, false
	}
	return zs.Zones[id], true
}

// ZoneAt returns the id of the zone containing p.
func (zs *ZoneSet) ZoneAt(p components.Point) (int, bool) {
	if !p.In(zs.W, zs.H) {
		return 0, false
	}
	id := zs.cells[p.Y*zs.W+p.X]
	if id < 0 {
		return 0, false
	}
	return int(id), true
}

// Covered returns how many cells belong to some zone.
func (zs *ZoneSet) Covered() int {
	n := 0
	for _, z := range zs.Zones {
		n += z.Len()
	}
	return n
}

// Largest returns the zone with the most cells. Ties go to the lower id.
func (zs *ZoneSet) Largest() (Zone, bool) {
	if len(zs.Zones) == 0 {
		return Zone{}, false
	}
	best := 0
	for i, z := range zs.Zones {
		if z.Len() > zs.Zones[best].Len() {
			best = i
		}
	}
	return zs.Zones[best], true
}

// Sizes returns the cell count of every zone in id order.
func (zs *ZoneSet) Sizes() []float64 {
	sizes := make([]float64, len(zs.Zones))
	for i, z := range zs.Zones {
		sizes[i] = float64(z.Len())
	}
	return sizes
}
