package cartpole

import (
	"math"
	"testing"

	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newTestCartpole(t *testing.T, episodeSteps int) (*Discrete, ts.TimeStep) {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := env.NewUniformStarter(bounds, 1)
	task := NewBalance(starter, episodeSteps, FailAngle)

	c, step, err := NewDiscrete(task)
	require.NoError(t, err)
	return c, step
}

func TestDiscreteSpecs(t *testing.T) {
	c, step := newTestCartpole(t, 500)
	assert.True(t, step.First())

	n, err := c.ActionSpec().NumActions()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, spec.Continuous, c.ObservationSpec().Cardinality)
	assert.Equal(t, ObservationDims, c.ObservationSpec().Features())
}

func TestStepLimitIsTimeout(t *testing.T) {
	c, _ := newTestCartpole(t, 2)

	// Alternate forces so the pole stays upright for two steps
	step, done := c.Step(mat.NewVecDense(1, []float64{0}))
	assert.False(t, done)
	assert.Equal(t, 1.0, step.Reward)

	step, done = c.Step(mat.NewVecDense(1, []float64{2}))
	assert.True(t, done)
	assert.Equal(t, ts.Timeout, step.EndType())
	assert.False(t, step.TerminalEnd())
}

func TestPoleFallIsTerminal(t *testing.T) {
	c, _ := newTestCartpole(t, 10000)

	var step ts.TimeStep
	done := false
	for i := 0; i < 10000 && !done; i++ {
		step, done = c.Step(mat.NewVecDense(1, []float64{2}))
	}
	require.True(t, done)
	assert.True(t, step.TerminalEnd())
	assert.Equal(t, 0.0, step.Reward)
}

func TestIllegalActionPanics(t *testing.T) {
	c, _ := newTestCartpole(t, 10)
	assert.Panics(t, func() {
		c.Step(mat.NewVecDense(1, []float64{3}))
	})
}

func TestNormalizeAngle(t *testing.T) {
	bounds := r1.Interval{Min: -math.Pi, Max: math.Pi}
	assert.InDelta(t, -math.Pi+0.5, normalizeAngle(math.Pi+0.5, bounds), 1e-12)
	assert.InDelta(t, math.Pi-0.5, normalizeAngle(-math.Pi-0.5, bounds), 1e-12)
	assert.Equal(t, 0.25, normalizeAngle(0.25, bounds))
}
