package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate_ZeroDenominator(t *testing.T) {
	for _, n := range []int{0, 1, 17, 1000} {
		assert.Equal(t, 0.0, Rate(n, 0))
	}
}

func TestRate_Bounds(t *testing.T) {
	for _, d := range []int{1, 3, 7, 250} {
		assert.Equal(t, 0.0, Rate(0, d))
		assert.Equal(t, 100.0, Rate(d, d))
	}
}

func TestRate_RoundsToOneDecimal(t *testing.T) {
	assert.Equal(t, 33.3, Rate(1, 3))
	assert.Equal(t, 66.7, Rate(2, 3))
	assert.Equal(t, 12.5, Rate(1, 8))
	assert.Equal(t, 0.1, Rate(1, 1000))
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(0, 0))
	assert.Equal(t, 100.0, PercentChange(5, 0))
	assert.Equal(t, -100.0, PercentChange(0, 5))
	assert.Equal(t, 50.0, PercentChange(15, 10))
	assert.Equal(t, -33.3, PercentChange(2, 3))
}

func TestRateDelta(t *testing.T) {
	assert.Equal(t, 20.0, RateDelta(50.0, 30.0))
	assert.Equal(t, -12.5, RateDelta(25.0, 37.5))
	assert.Equal(t, 0.0, RateDelta(0, 0))
}
