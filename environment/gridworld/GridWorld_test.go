package gridworld

import (
	"testing"

	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestGridWorld(t *testing.T, episodeSteps int) (*GridWorld,
	timestep.TimeStep) {
	start, err := NewSingleStart(0, 0, 2, 3)
	require.NoError(t, err)

	task, err := NewGoal(start, []int{2}, []int{1}, 2, 3, -1, 10,
		episodeSteps)
	require.NoError(t, err)

	g, step, err := New(2, 3, task)
	require.NoError(t, err)
	return g, step
}

func action(a int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(a)})
}

func TestGridWorldReachesGoal(t *testing.T) {
	g, step := newTestGridWorld(t, 100)
	assert.True(t, step.First())
	assert.Equal(t, 0.0, step.Observation.AtVec(0))
	assert.Equal(t, spec.Discrete, g.ObservationSpec().Cardinality)

	// Walls leave the agent in place
	step, done := g.Step(action(Left))
	assert.False(t, done)
	assert.Equal(t, -1.0, step.Reward)
	x, y := g.Coordinates()
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})

	g.Step(action(Right))
	g.Step(action(Right))
	step, done = g.Step(action(Up))
	assert.True(t, done)
	assert.Equal(t, 10.0, step.Reward)
	assert.Equal(t, 5.0, step.Observation.AtVec(0))
	assert.True(t, step.TerminalEnd())
}

func TestGridWorldTimeout(t *testing.T) {
	g, _ := newTestGridWorld(t, 1)

	step, done := g.Step(action(Down))
	assert.True(t, done)
	assert.Equal(t, timestep.Timeout, step.EndType())

	step = g.Reset()
	assert.True(t, step.First())
	assert.Equal(t, 0, step.Number)
}

func TestInvalidGoal(t *testing.T) {
	start, err := NewSingleStart(0, 0, 2, 3)
	require.NoError(t, err)

	_, err = NewGoal(start, []int{3}, []int{0}, 2, 3, -1, 10, 10)
	assert.Error(t, err)

	_, err = NewSingleStart(0, 2, 2, 3)
	assert.Error(t, err)
}
