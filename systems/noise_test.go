package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/thermoscape/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func TestNoiseFieldDeterministic(t *testing.T) {
	for _, backend := range []string{config.BackendPerlin, config.BackendSimplex} {
		t.Run(backend, func(t *testing.T) {
			nf := DefaultNoiseField()
			nf.Backend = backend

			a := nf.Generate(42, 37, 23)
			b := nf.Generate(42, 37, 23)
			if len(a) != 37*23 {
				t.Fatalf("expected %d cells, got %d", 37*23, len(a))
			}
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("cell %d differs: %v vs %v", i, a[i], b[i])
				}
			}
		})
	}
}

func TestNoiseFieldNormalized(t *testing.T) {
	for _, backend := range []string{config.BackendPerlin, config.BackendSimplex} {
		t.Run(backend, func(t *testing.T) {
			nf := DefaultNoiseField()
			nf.Backend = backend

			field := nf.Generate(7, 50, 50)
			lo, hi := floats.Min(field), floats.Max(field)
			if math.Abs(lo) > 1e-9 {
				t.Errorf("expected min 0, got %v", lo)
			}
			if math.Abs(hi-1) > 1e-9 {
				t.Errorf("expected max 1, got %v", hi)
			}
		})
	}
}

func TestNoiseFieldSeedsDiffer(t *testing.T) {
	nf := DefaultNoiseField()
	a := nf.Generate(1, 32, 32)
	b := nf.Generate(2, 32, 32)

	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	if same == len(a) {
		t.Error("different seeds produced identical fields")
	}
}

func TestNoiseFieldFromConfig(t *testing.T) {
	nf := NewNoiseField(config.Cfg().Noise)
	if nf.Octaves != config.Cfg().Noise.Octaves || nf.Scale != config.Cfg().Noise.Scale {
		t.Errorf("config not applied: %+v", nf)
	}
	if got := nf.Generate(0, 0, 10); got != nil {
		t.Errorf("expected nil field for zero width, got %d cells", len(got))
	}
}

func TestNewNoiseSamplerUnknownBackend(t *testing.T) {
	if _, err := NewNoiseSampler("value", 1); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	values := []float64{3, 3, 3, 3}
	Normalize(values)
	for i, v := range values {
		if v != 0 {
			t.Errorf("value %d: expected 0 for constant field, got %v", i, v)
		}
	}

	values = []float64{-2, 0, 2}
	Normalize(values)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], values[i])
		}
	}
}

func BenchmarkNoiseFieldGenerate(b *testing.B) {
	nf := DefaultNoiseField()
	for i := 0; i < b.N; i++ {
		nf.Generate(int64(i), 200, 200)
	}
}
