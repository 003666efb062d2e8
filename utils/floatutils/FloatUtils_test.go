package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
	assert.Equal(t, 2.0, ClipInterval(5, r1.Interval{Min: 0, Max: 2}))
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{3, 1, 3, 2})
	assert.Equal(t, 3.0, max)
	assert.Equal(t, []int{0, 2}, indices)

	max, indices = MaxSlice([]float64{-1, 4, 0})
	assert.Equal(t, 4.0, max)
	assert.Equal(t, []int{1}, indices)

	max, indices = MaxSlice([]float64{7})
	assert.Equal(t, 7.0, max)
	assert.Equal(t, []int{0}, indices)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean(1, 2, 3))
	assert.True(t, math.IsNaN(Mean()))
}
