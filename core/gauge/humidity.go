package gauge

import "math"

// HumidityPalette holds the humidity swatches, index i covers roughly i*10 percent.
// The last two entries are identical.
var HumidityPalette = [11]Color{
	"#E3F2FD",
	"#BBDEFB",
	"#90CAF9",
	"#64B5F6",
	"#42A5F5",
	"#2196F3",
	"#1E88E5",
	"#1976D2",
	"#1565C0",
	"#0D47A1",
	"#0D47A1",
}

// ValidHumidity returns true if x is a relative humidity in [0,100]
func ValidHumidity(x float64) bool {
	return x >= 0 && x <= 100
}

// HumidityIndex returns the palette index for a relative humidity in percent,
// which is x/10 rounded half up.
//
// Values outside [0,100] are clamped, NaN maps to 0. Use ValidHumidity if you
// would rather reject such input.
func HumidityIndex(x float64) int {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= 100 {
		return len(HumidityPalette) - 1
	}
	return int(math.Floor(x/10 + 0.5))
}

// HumidityColor returns the palette swatch for a relative humidity in percent
func HumidityColor(x float64) Color {
	return HumidityPalette[HumidityIndex(x)]
}
