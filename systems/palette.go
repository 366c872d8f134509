package systems

import (
	"image/color"
	"math"
	"sync"
)

// PaletteSize is the number of discrete temperature colors (0..100 inclusive).
const PaletteSize = 101

var (
	paletteOnce sync.Once
	palette     [PaletteSize]color.RGBA
)

func buildPalette() {
	for i := range palette {
		red := float64(i) / 100
		palette[i] = color.RGBA{
			R: uint8(math.Round(red * 255)),
			G: 0,
			B: uint8(math.Round((1 - red) * 255)),
			A: 255,
		}
	}
}

// PaletteColor returns the blue-to-red color for a temperature. Values are
// rounded and clamped to [0,100]. The palette is built on first use and never
// changes afterwards, so concurrent readers need no locking.
func PaletteColor(temperature float64) color.RGBA {
	paletteOnce.Do(buildPalette)
	return palette[PaletteIndex(temperature)]
}

// PaletteIndex returns the palette slot for a temperature.
func PaletteIndex(temperature float64) int {
	if math.IsNaN(temperature) {
		return 0
	}
	i := int(math.Round(temperature))
	if i < 0 {
		return 0
	}
	if i >= PaletteSize {
		return PaletteSize - 1
	}
	return i
}
