package systems

import (
	"math"
	"sync"
	"testing"
)

func TestPaletteEndpoints(t *testing.T) {
	cold := PaletteColor(0)
	if cold.R != 0 || cold.B != 255 {
		t.Errorf("expected pure blue at 0, got %+v", cold)
	}
	hot := PaletteColor(100)
	if hot.R != 255 || hot.B != 0 {
		t.Errorf("expected pure red at 100, got %+v", hot)
	}
}

func TestPaletteIndexClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-5, 0},
		{0.4, 0},
		{0.6, 1},
		{49.5, 50},
		{250, 100},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := PaletteIndex(tt.in); got != tt.want {
			t.Errorf("PaletteIndex(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPaletteConcurrentReaders(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]uint8, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = PaletteColor(50).R
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if r != results[0] {
			t.Errorf("reader %d saw %d, reader 0 saw %d", i, r, results[0])
		}
	}
}
