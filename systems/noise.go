package systems

import (
	"fmt"
	"math/rand"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/thermoscape/config"
)

// octaveOffsetRange bounds the random per-octave sampling offsets.
const octaveOffsetRange = 100000

// perlinShift keeps lattice coordinates positive. The perlin backend truncates
// toward zero, which breaks the lattice for negative inputs.
const perlinShift = 1 << 18

// NoiseSampler returns coherent noise in roughly [-1, 1] at a 2D coordinate.
type NoiseSampler interface {
	Sample(x, y float64) float64
}

type perlinSampler struct {
	p *perlin.Perlin
}

func (s perlinSampler) Sample(x, y float64) float64 {
	return s.p.Noise2D(x+perlinShift, y+perlinShift)
}

type simplexSampler struct {
	n opensimplex.Noise
}

func (s simplexSampler) Sample(x, y float64) float64 {
	return s.n.Eval2(x, y)
}

// NewNoiseSampler creates a seeded sampler for the named backend.
func NewNoiseSampler(backend string, seed int64) (NoiseSampler, error) {
	switch backend {
	case config.BackendPerlin, "":
		// Single octave lattice; octaves are summed by NoiseField.
		return perlinSampler{p: perlin.NewPerlin(2, 2, 1, seed)}, nil
	case config.BackendSimplex:
		return simplexSampler{n: opensimplex.New(seed)}, nil
	}
	return nil, fmt.Errorf("unknown noise backend %q", backend)
}

// NoiseField generates deterministic multi-octave noise over a grid.
type NoiseField struct {
	Backend     string
	Octaves     int
	Scale       float64
	Persistence float64
	Lacunarity  float64
	OffsetX     float64 // Fixed offset added to every octave
	OffsetY     float64
}

// NewNoiseField creates a field generator from noise config.
func NewNoiseField(cfg config.NoiseConfig) *NoiseField {
	return &NoiseField{
		Backend:     cfg.Backend,
		Octaves:     cfg.Octaves,
		Scale:       cfg.Scale,
		Persistence: cfg.Persistence,
		Lacunarity:  cfg.Lacunarity,
		OffsetX:     cfg.OffsetX,
		OffsetY:     cfg.OffsetY,
	}
}

// DefaultNoiseField returns a generator with the stock terrain parameters.
func DefaultNoiseField() *NoiseField {
	return &NoiseField{
		Backend:     config.BackendPerlin,
		Octaves:     5,
		Scale:       25,
		Persistence: 0.286,
		Lacunarity:  2.9,
	}
}

// Generate returns a w*h row-major field (index y*w+x) normalized to [0,1].
// Identical inputs always produce identical output.
func (n *NoiseField) Generate(seed int64, w, h int) []float64 {
	if w <= 0 || h <= 0 {
		return nil
	}

	sampler, err := NewNoiseSampler(n.Backend, seed)
	if err != nil {
		panic(fmt.Sprintf("systems: %v", err))
	}

	octaves := n.Octaves
	if octaves < 1 {
		octaves = 1
	}
	scale := n.Scale
	if scale <= 0 {
		scale = 0.0001
	}

	// Two offsets per octave, drawn in order from the seeded sequence
	rng := rand.New(rand.NewSource(seed))
	offsets := make([][2]float64, octaves)
	for i := range offsets {
		offsets[i][0] = float64(rng.Intn(2*octaveOffsetRange)-octaveOffsetRange) + n.OffsetX
		offsets[i][1] = float64(rng.Intn(2*octaveOffsetRange)-octaveOffsetRange) + n.OffsetY
	}

	halfW := float64(w) / 2
	halfH := float64(h) / 2

	field := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			amplitude := 1.0
			frequency := 1.0
			value := 0.0
			for i := 0; i < octaves; i++ {
				sx := (float64(x)-halfW)/scale*frequency + offsets[i][0]
				sy := (float64(y)-halfH)/scale*frequency + offsets[i][1]
				value += sampler.Sample(sx, sy) * amplitude

				amplitude *= n.Persistence
				frequency *= n.Lacunarity
			}
			field[y*w+x] = value
		}
	}

	Normalize(field)
	return field
}

// Normalize rescales values in place to [0,1] with one global min-max pass.
// A constant field becomes all zeros.
func Normalize(values []float64) {
	if len(values) == 0 {
		return
	}
	lo := floats.Min(values)
	hi := floats.Max(values)
	if lo == hi {
		for i := range values {
			values[i] = 0
		}
		return
	}
	span := hi - lo
	for i, v := range values {
		values[i] = clamp01((v - lo) / span)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
