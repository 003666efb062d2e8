package wrappers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/deepq/environment/gridworld"
	"github.com/samuelfneumann/deepq/environment/maze"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/gomaze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestOneHotGridWorld(t *testing.T) {
	start, err := gridworld.NewSingleStart(1, 0, 2, 2)
	require.NoError(t, err)
	task, err := gridworld.NewGoal(start, []int{1}, []int{1}, 2, 2, -1, 1,
		50)
	require.NoError(t, err)
	g, _, err := gridworld.New(2, 2, task)
	require.NoError(t, err)

	o, step, err := NewOneHot(g)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{0, 1, 0, 0},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("first observation mismatch (-want +got):\n%s", diff)
	}

	obsSpec := o.ObservationSpec()
	assert.Equal(t, spec.Continuous, obsSpec.Cardinality)
	assert.Equal(t, 4, obsSpec.Features())

	step, done := o.Step(mat.NewVecDense(1, []float64{float64(gridworld.Up)}))
	assert.True(t, done)
	assert.True(t, step.TerminalEnd())
	if diff := cmp.Diff([]float64{0, 0, 0, 1},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("next observation mismatch (-want +got):\n%s", diff)
	}
	assert.Same(t, step.Observation, o.CurrentTimeStep().Observation)
}

func TestOneHotMazeDict(t *testing.T) {
	start, err := maze.NewSingleStart(0, 0, 1, 3)
	require.NoError(t, err)
	task, err := maze.NewSolve(start, 2, 0, 1, 3, 50)
	require.NoError(t, err)
	m, _, err := maze.New(1, 3, task, gomaze.NewWilson(0))
	require.NoError(t, err)

	o, step, err := NewOneHot(m)
	require.NoError(t, err)
	assert.Equal(t, 4, o.ObservationSpec().Features())

	// Fields are encoded in key order, col before row
	if diff := cmp.Diff([]float64{1, 0, 0, 1},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("first observation mismatch (-want +got):\n%s", diff)
	}

	step, done := o.Step(mat.NewVecDense(1, []float64{float64(maze.East)}))
	assert.False(t, done)
	if diff := cmp.Diff([]float64{0, 1, 0, 1},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("next observation mismatch (-want +got):\n%s", diff)
	}

	step = o.Reset()
	assert.Equal(t, 1.0, step.Observation.AtVec(0))
}

func TestOneHotRejectsContinuous(t *testing.T) {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
	}, 0)
	c, _, err := cartpole.NewDiscrete(cartpole.NewBalance(s, 10,
		cartpole.FailAngle))
	require.NoError(t, err)
	_, _, err = NewOneHot(c)
	assert.Error(t, err)
}
