package gauge

// Color is a display token, a hex color string like "#ff5722"
type Color string

// Band is a named temperature classification
type Band struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// all temperature bands, from hottest to coldest
var (
	BandHotExtreme = Band{Name: "hot-extreme", Color: "#ff5722"}
	BandHot        = Band{Name: "hot", Color: "#ff9800"}
	BandWarm       = Band{Name: "warm", Color: "#ffc107"}
	BandMild       = Band{Name: "mild", Color: "#4caf50"}
	BandCool       = Band{Name: "cool", Color: "#8bc34a"}
	BandCold       = Band{Name: "cold", Color: "#00bcd4"}
	BandChilly     = Band{Name: "chilly", Color: "#03a9f4"}
	BandFreezing   = Band{Name: "freezing", Color: "#2196f3"}
)

// Bands returns all temperature bands in descending order
func Bands() []Band {
	return []Band{
		BandHotExtreme,
		BandHot,
		BandWarm,
		BandMild,
		BandCool,
		BandCold,
		BandChilly,
		BandFreezing,
	}
}

// ClassifyTemperature returns the band for a temperature in degrees Celsius.
//
// The thresholds are compared from the top down. The cool band is open at 10,
// so exactly 10 degrees is cold. NaN fails every comparison and is freezing.
func ClassifyTemperature(t float64) Band {
	switch {
	case t >= 35:
		return BandHotExtreme
	case t >= 30:
		return BandHot
	case t >= 25:
		return BandWarm
	case t >= 18:
		return BandMild
	case t > 10:
		return BandCool
	case t >= 5:
		return BandCold
	case t >= -5:
		return BandChilly
	default:
		return BandFreezing
	}
}

// TemperatureColor is a shortcut for ClassifyTemperature(t).Color
func TemperatureColor(t float64) Color {
	return ClassifyTemperature(t).Color
}
