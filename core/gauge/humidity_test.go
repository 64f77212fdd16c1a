package gauge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumidityColor(t *testing.T) {
	assert.Equal(t, HumidityPalette[0], HumidityColor(0))
	assert.Equal(t, HumidityPalette[10], HumidityColor(100))
	assert.Equal(t, HumidityPalette[6], HumidityColor(55))
	assert.Equal(t, Color("#1E88E5"), HumidityColor(55))
	assert.Equal(t, HumidityPalette[8], HumidityColor(80))
}

func TestHumidityIndexRounding(t *testing.T) {
	tests := []struct {
		x    float64
		want int
	}{
		{0, 0},
		{4.9, 0},
		{5, 1},
		{14.9, 1},
		{15, 2},
		{49.99, 5},
		{50, 5},
		{94.9, 9},
		{95, 10},
		{100, 10},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, HumidityIndex(test.x), "humidity %v", test.x)
	}
}

func TestHumidityClamping(t *testing.T) {
	assert.Equal(t, 0, HumidityIndex(-5))
	assert.Equal(t, 0, HumidityIndex(math.Inf(-1)))
	assert.Equal(t, 10, HumidityIndex(120))
	assert.Equal(t, 10, HumidityIndex(math.Inf(1)))
	assert.Equal(t, 0, HumidityIndex(math.NaN()))

	assert.False(t, ValidHumidity(-0.1))
	assert.False(t, ValidHumidity(100.1))
	assert.False(t, ValidHumidity(math.NaN()))
	assert.True(t, ValidHumidity(0))
	assert.True(t, ValidHumidity(100))
}

func TestHumidityIsPure(t *testing.T) {
	for x := 0.0; x <= 100; x += 0.5 {
		assert.Equal(t, HumidityColor(x), HumidityColor(x))
	}
}
