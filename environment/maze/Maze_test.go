package maze

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/gomaze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newCorridor returns a maze with a single row, which every maze
// initialiser carves into a corridor
func newCorridor(t *testing.T, episodeSteps int) (*Maze, timestep.TimeStep) {
	start, err := NewSingleStart(0, 0, 1, 3)
	require.NoError(t, err)

	task, err := NewSolve(start, 2, 0, 1, 3, episodeSteps)
	require.NoError(t, err)

	m, step, err := New(1, 3, task, gomaze.NewWilson(1))
	require.NoError(t, err)
	return m, step
}

func action(a int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(a)})
}

func TestMazeReachesGoal(t *testing.T) {
	m, step := newCorridor(t, 100)
	assert.True(t, step.First())
	if diff := cmp.Diff([]float64{0, 0},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("first observation mismatch (-want +got):\n%s", diff)
	}

	// The outer wall leaves the agent in place
	step, done := m.Step(action(West))
	assert.False(t, done)
	assert.Equal(t, TimeStepReward, step.Reward)
	assert.Equal(t, 0.0, step.Observation.AtVec(0))

	step, done = m.Step(action(East))
	assert.False(t, done)
	step, done = m.Step(action(East))
	assert.True(t, done)
	assert.True(t, step.TerminalEnd())
	assert.Equal(t, GoalReward, step.Reward)
	assert.Equal(t, 3, step.Number)
	if diff := cmp.Diff([]float64{2, 0},
		step.Observation.RawVector().Data); diff != "" {
		t.Errorf("goal observation mismatch (-want +got):\n%s", diff)
	}

	step = m.Reset()
	assert.True(t, step.First())
	assert.Equal(t, 0.0, step.Observation.AtVec(0))
}

func TestMazeTimeout(t *testing.T) {
	m, _ := newCorridor(t, 1)

	step, done := m.Step(action(North))
	assert.True(t, done)
	assert.Equal(t, timestep.Timeout, step.EndType())
}

func TestMazeSpecs(t *testing.T) {
	m, step := newCorridor(t, 10)

	obsSpec := m.ObservationSpec()
	assert.Equal(t, spec.Dict, obsSpec.Cardinality)
	assert.Equal(t, []string{ColKey, RowKey}, obsSpec.Keys())
	assert.Equal(t, 2, obsSpec.Features())
	assert.True(t, obsSpec.Contains(step.Observation))
	assert.False(t, obsSpec.Contains(mat.NewVecDense(2, []float64{3, 0})))

	n, err := m.ActionSpec().NumActions()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, TimeStepReward, m.RewardSpec().LowerBound.AtVec(0))
	assert.Equal(t, GoalReward, m.RewardSpec().UpperBound.AtVec(0))
}

func TestMazeUniformStart(t *testing.T) {
	task, err := NewSolve(NewUniformStart(4, 5, 3), 4, 3, 4, 5, 10)
	require.NoError(t, err)

	m, _, err := New(4, 5, task, gomaze.NewBacktracking(3))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		step := m.Reset()
		assert.True(t, m.ObservationSpec().Contains(step.Observation))
	}
}

func TestMazeErrors(t *testing.T) {
	_, err := NewSolve(NewUniformStart(2, 2, 0), 2, 0, 2, 2, 10)
	assert.Error(t, err)

	_, err = NewSingleStart(0, 2, 2, 2)
	assert.Error(t, err)

	// A start outside of the maze is caught when the maze is reset
	start, err := NewSingleStart(3, 0, 1, 4)
	require.NoError(t, err)
	task, err := NewSolve(start, 0, 0, 1, 4, 10)
	require.NoError(t, err)
	_, _, err = New(1, 3, task, gomaze.NewWilson(0))
	assert.Error(t, err)

	_, _, err = New(0, 3, task, gomaze.NewWilson(0))
	assert.Error(t, err)
}

func TestMazeIllegalAction(t *testing.T) {
	m, _ := newCorridor(t, 10)
	assert.Panics(t, func() { m.Step(action(4)) })
}
