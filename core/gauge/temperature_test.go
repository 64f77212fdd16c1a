package gauge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTemperatureBoundaries(t *testing.T) {
	tests := []struct {
		t    float64
		want Band
	}{
		{100, BandHotExtreme},
		{35, BandHotExtreme},
		{34.999, BandHot},
		{30, BandHot},
		{29.9, BandWarm},
		{25, BandWarm},
		{24.99, BandMild},
		{18, BandMild},
		{17.9, BandCool},
		{10.001, BandCool},
		{10, BandCold},
		{5, BandCold},
		{4.99, BandChilly},
		{0, BandChilly},
		{-5, BandChilly},
		{-5.001, BandFreezing},
		{-40, BandFreezing},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ClassifyTemperature(test.t), "temperature %v", test.t)
	}
}

// TestTemperatureTen verifies that the cool band does not include 10 degrees
func TestTemperatureTen(t *testing.T) {
	band := ClassifyTemperature(10)
	assert.NotEqual(t, "cool", band.Name)
	assert.Equal(t, "cold", band.Name)
	assert.Equal(t, Color("#00bcd4"), TemperatureColor(10))
}

func TestTemperatureExtremes(t *testing.T) {
	for _, v := range []float64{35, 35.0001, 60, 1e9, math.Inf(1)} {
		assert.Equal(t, "hot-extreme", ClassifyTemperature(v).Name, "temperature %v", v)
	}
	for _, v := range []float64{-5.0001, -20, -1e9, math.Inf(-1)} {
		assert.Equal(t, "freezing", ClassifyTemperature(v).Name, "temperature %v", v)
	}
	assert.Equal(t, BandFreezing, ClassifyTemperature(math.NaN()))
}

func TestTemperatureIsPure(t *testing.T) {
	for v := -20.0; v <= 60; v += 0.25 {
		first := ClassifyTemperature(v)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, ClassifyTemperature(v))
		}
	}
}

func TestBandsAreOrdered(t *testing.T) {
	names := []string{}
	for _, b := range Bands() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"hot-extreme", "hot", "warm", "mild", "cool", "cold", "chilly", "freezing"}, names)
}
