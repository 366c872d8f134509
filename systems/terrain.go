package systems

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/config"
)

// Thresholds split a normalized height into tile types.
type Thresholds struct {
	WaterBelow float64 // height < WaterBelow is water
	RockFrom   float64 // height >= RockFrom is rock
}

// DefaultThresholds are the stock classification cut-offs.
var DefaultThresholds = Thresholds{WaterBelow: 0.5, RockFrom: 0.75}

// ThresholdsFromConfig extracts classification thresholds from terrain config.
func ThresholdsFromConfig(cfg config.TerrainConfig) Thresholds {
	return Thresholds{WaterBelow: cfg.WaterBelow, RockFrom: cfg.RockFrom}
}

// Classify maps a normalized height to a tile type using the default thresholds.
func Classify(h float64) components.TileType {
	return DefaultThresholds.Classify(h)
}

// Classify maps a normalized height to a tile type.
func (th Thresholds) Classify(h float64) components.TileType {
	switch {
	case h < th.WaterBelow:
		return components.Water
	case h < th.RockFrom:
		return components.Land
	default:
		return components.Rock
	}
}

// IsLandmass reports whether a tile belongs to a landmass. Rock sits on top of
// land, so both count.
func IsLandmass(t components.TileType) bool {
	return t == components.Land || t == components.Rock
}

// Elevation returns the stacking height of a tile: water 0, land 1, rock 2.
func Elevation(t components.TileType) int {
	switch t {
	case components.Water:
		return 0
	case components.Land:
		return 1
	case components.Rock:
		return 2
	}
	panic(fmt.Sprintf("systems: no elevation for tile type %d", uint8(t)))
}

// Terrain is one generated grid. It is replaced wholesale on regeneration and
// never resized.
type Terrain struct {
	W, H int

	Tiles   []components.TileType // row-major, index y*W+x
	Heights []float64             // normalized height field the tiles came from

	Coverings []bool    // grass on land cells
	Density   []float64 // covering density field (may be nil)
}

// NewTerrain allocates an all-water terrain.
func NewTerrain(w, h int) *Terrain {
	return &Terrain{
		W:         w,
		H:         h,
		Tiles:     make([]components.TileType, w*h),
		Heights:   make([]float64, w*h),
		Coverings: make([]bool, w*h),
	}
}

// ClassifyField builds a terrain from a w*h row-major height field.
func ClassifyField(field []float64, w, h int, th Thresholds) *Terrain {
	if len(field) != w*h {
		panic(fmt.Sprintf("systems: field has %d cells, want %dx%d", len(field), w, h))
	}
	t := NewTerrain(w, h)
	copy(t.Heights, field)
	for i, v := range field {
		t.Tiles[i] = th.Classify(v)
	}
	return t
}

// ApplyCoverings marks land cells whose density lies strictly inside (lo, hi).
func (t *Terrain) ApplyCoverings(density []float64, lo, hi float64) {
	if len(density) != len(t.Tiles) {
		panic(fmt.Sprintf("systems: density has %d cells, want %d", len(density), len(t.Tiles)))
	}
	t.Density = density
	for i, v := range density {
		t.Coverings[i] = t.Tiles[i] == components.Land && v > lo && v < hi
	}
}

// GenerateTerrain runs the full height + covering pipeline for one seed.
// Coverings use seed+1 so the two fields are independent.
func GenerateTerrain(nf *NoiseField, cfg config.TerrainConfig, seed int64, w, h int) *Terrain {
	t := ClassifyField(nf.Generate(seed, w, h), w, h, ThresholdsFromConfig(cfg))
	t.ApplyCoverings(nf.Generate(seed+1, w, h), cfg.CoveringMin, cfg.CoveringMax)
	return t
}

// Index returns the row-major index of p.
func (t *Terrain) Index(p components.Point) int {
	return p.Y*t.W + p.X
}

// PointAt is the inverse of Index.
func (t *Terrain) PointAt(i int) components.Point {
	return components.Pt(i%t.W, i/t.W)
}

// In reports whether p lies on the grid.
func (t *Terrain) In(p components.Point) bool {
	return p.In(t.W, t.H)
}

// At returns the tile type at p.
func (t *Terrain) At(p components.Point) (components.TileType, bool) {
	if !t.In(p) {
		return 0, false
	}
	return t.Tiles[t.Index(p)], true
}

// HasCovering reports whether p carries grass.
func (t *Terrain) HasCovering(p components.Point) bool {
	return t.In(p) && t.Coverings[t.Index(p)]
}

// TileCounts summarizes a terrain's composition.
type TileCounts struct {
	Water   int
	Land    int
	Rock    int
	Covered int
}

// Counts tallies tile types and coverings.
func (t *Terrain) Counts() TileCounts {
	var c TileCounts
	for i, tt := range t.Tiles {
		switch tt {
		case components.Water:
			c.Water++
		case components.Land:
			c.Land++
		case components.Rock:
			c.Rock++
		default:
			panic(fmt.Sprintf("systems: unclassified cell %d", i))
		}
		if t.Coverings[i] {
			c.Covered++
		}
	}
	return c
}

// Total returns the number of classified cells.
func (c TileCounts) Total() int {
	return c.Water + c.Land + c.Rock
}

// Ratios returns the water, land and rock fractions.
func (c TileCounts) Ratios() (water, land, rock float64) {
	n := float64(c.Total())
	if n == 0 {
		return 0, 0, 0
	}
	return float64(c.Water) / n, float64(c.Land) / n, float64(c.Rock) / n
}

// LogValue implements slog.LogValuer for structured logging.
func (c TileCounts) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("water", c.Water),
		slog.Int("land", c.Land),
		slog.Int("rock", c.Rock),
		slog.Int("covered", c.Covered),
	)
}
