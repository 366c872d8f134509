package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/thermoscape/config"
	"github.com/pthm-cable/thermoscape/systems"
)

// Ratios is a water/land/rock tile split.
type Ratios struct {
	Water float64
	Land  float64
	Rock  float64
}

// vec returns the ratios in water, land, rock order.
func (r Ratios) vec() []float64 {
	return []float64{r.Water, r.Land, r.Rock}
}

// TargetsFromConfig reads the tuning targets.
func TargetsFromConfig(cfg config.TuneConfig) Ratios {
	return Ratios{Water: cfg.TargetWater, Land: cfg.TargetLand, Rock: cfg.TargetRock}
}

// FitnessEvaluator generates terrain for a parameter vector and scores how
// far its tile ratios land from the targets.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	width      int
	height     int
	target     Ratios
	baseConfig *config.Config

	mu         sync.Mutex
	lastRatios Ratios // mean ratios from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, w, h int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		width:      w,
		height:     h,
		target:     TargetsFromConfig(baseCfg.Tune),
		baseConfig: baseCfg,
	}
}

// LastRatios returns the mean tile ratios from the most recent evaluation.
func (fe *FitnessEvaluator) LastRatios() Ratios {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRatios
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the squared ratio error averaged over every seed.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	nf := systems.NewNoiseField(cfg.Noise)

	errs := make([]float64, len(fe.seeds))
	ratios := make([]Ratios, len(fe.seeds))

	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			t := systems.GenerateTerrain(nf, cfg.Terrain, seed, fe.width, fe.height)
			water, land, rock := t.Counts().Ratios()
			ratios[i] = Ratios{Water: water, Land: land, Rock: rock}
			errs[i] = ratioError(ratios[i], fe.target)
		}(i, seed)
	}
	wg.Wait()

	var mean Ratios
	for _, r := range ratios {
		mean.Water += r.Water
		mean.Land += r.Land
		mean.Rock += r.Rock
	}
	n := float64(len(ratios))
	mean = Ratios{Water: mean.Water / n, Land: mean.Land / n, Rock: mean.Rock / n}

	fe.mu.Lock()
	fe.lastRatios = mean
	fe.mu.Unlock()

	fitness := stat.Mean(errs, nil)
	if math.IsNaN(fitness) {
		return math.Inf(1)
	}
	return fitness
}

// ratioError is the squared Euclidean distance between two splits.
func ratioError(got, want Ratios) float64 {
	d := floats.Distance(got.vec(), want.vec(), 2)
	return d * d
}
