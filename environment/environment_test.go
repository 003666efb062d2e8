package environment

import (
	"testing"

	"github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestStepLimitTimesOut(t *testing.T) {
	limit := NewStepLimit(3)

	step := timestep.New(timestep.Mid, 0, mat.NewVecDense(1, nil), 2)
	assert.False(t, limit.End(&step))
	assert.Equal(t, timestep.Mid, step.StepType)

	step = timestep.New(timestep.Mid, 0, mat.NewVecDense(1, nil), 3)
	assert.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.Equal(t, timestep.Timeout, step.EndType())
	assert.False(t, step.TerminalEnd())
}

func TestIntervalLimit(t *testing.T) {
	limit := NewIntervalLimit([]r1.Interval{{Min: -1, Max: 1}}, []int{1},
		timestep.TerminalStateReached)

	inside := timestep.New(timestep.Mid, 0,
		mat.NewVecDense(2, []float64{5, 0.5}), 1)
	assert.False(t, limit.End(&inside))

	outside := timestep.New(timestep.Mid, 0,
		mat.NewVecDense(2, []float64{0, -1.5}), 1)
	assert.True(t, limit.End(&outside))
	assert.True(t, outside.TerminalEnd())
}

func TestFunctionEnder(t *testing.T) {
	ender := NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) == 1
	}, timestep.TerminalStateReached)

	step := timestep.New(timestep.Mid, 0, mat.NewVecDense(1, []float64{1}), 4)
	assert.True(t, ender.End(&step))
	assert.Equal(t, timestep.TerminalStateReached, step.EndType())
}

func TestStartersAreSeeded(t *testing.T) {
	bounds := []r1.Interval{{Min: -0.05, Max: 0.05}, {Min: 1, Max: 2}}
	a := NewUniformStarter(bounds, 7).Start()
	b := NewUniformStarter(bounds, 7).Start()
	assert.True(t, mat.Equal(a, b))
	for i, bound := range bounds {
		assert.GreaterOrEqual(t, a.AtVec(i), bound.Min)
		assert.LessOrEqual(t, a.AtVec(i), bound.Max)
	}

	c := NewCategoricalStarter([]int{5, 1}, 3).Start()
	assert.Equal(t, 0.0, c.AtVec(1))
	assert.Less(t, c.AtVec(0), 5.0)
}
