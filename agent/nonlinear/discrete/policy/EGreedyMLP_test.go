package policy

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/samuelfneumann/deepq/environment/envconfig"
	"github.com/samuelfneumann/deepq/network"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// newLinearPolicy returns a linear policy on a 2x2 one-hot GridWorld
// whose action values are given by bias for every state
func newLinearPolicy(t *testing.T, epsilon float64, batch int,
	bias []float64, seed uint64) (*MultiHeadEGreedyMLP, ts.TimeStep) {
	t.Helper()
	e, step, err := envconfig.CreateGridWorld(envconfig.Goal, 2, 2, 100, true)
	require.NoError(t, err)

	p, err := NewMultiHeadEGreedyMLP(epsilon, e, batch, G.NewGraph(),
		[]int{}, []bool{}, G.Zeroes(), []*network.Activation{}, seed)
	require.NoError(t, err)

	learnables := p.Network().Learnables()
	data := learnables[len(learnables)-1].Value().Data().([]float64)
	copy(data, bias)

	return p, step
}

func TestSelectActionGreedy(t *testing.T) {
	p, step := newLinearPolicy(t, 0.0, 1, []float64{0, 1, 5, 2}, 1)
	defer p.Close()

	for i := 0; i < 10; i++ {
		action, err := p.SelectAction(step)
		require.NoError(t, err)
		assert.Equal(t, 2.0, action.AtVec(0))
	}

	values, err := p.ActionValues(step.Observation.RawVector().Data)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 5, 2}, values.RawRowView(0))
}

func TestSelectActionEvalIgnoresEpsilon(t *testing.T) {
	p, step := newLinearPolicy(t, 1.0, 1, []float64{3, 0, 0, 0}, 2)
	defer p.Close()

	p.Eval()
	assert.True(t, p.IsEval())
	for i := 0; i < 10; i++ {
		action, err := p.SelectAction(step)
		require.NoError(t, err)
		assert.Equal(t, 0.0, action.AtVec(0))
	}

	p.Train()
	assert.False(t, p.IsEval())
	seen := make(map[float64]bool)
	for i := 0; i < 200; i++ {
		action, err := p.SelectAction(step)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, action.AtVec(0), 0.0)
		assert.Less(t, action.AtVec(0), 4.0)
		seen[action.AtVec(0)] = true
	}
	assert.Len(t, seen, 4, "epsilon of 1 explores every action")
}

func TestTieBreakingIsSeeded(t *testing.T) {
	p1, step := newLinearPolicy(t, 0.0, 1, []float64{1, 1, 0, 1}, 7)
	defer p1.Close()
	p2, _ := newLinearPolicy(t, 0.0, 1, []float64{1, 1, 0, 1}, 7)
	defer p2.Close()

	for i := 0; i < 20; i++ {
		a1, err := p1.SelectAction(step)
		require.NoError(t, err)
		a2, err := p2.SelectAction(step)
		require.NoError(t, err)

		assert.Equal(t, a1.AtVec(0), a2.AtVec(0))
		assert.NotEqual(t, 2.0, a1.AtVec(0), "only tied maxima are selected")
	}
}

func TestSelectActionBatchSize(t *testing.T) {
	p, step := newLinearPolicy(t, 0.0, 2, []float64{0, 0, 0, 0}, 1)
	defer p.Close()

	_, err := p.SelectAction(step)
	assert.Error(t, err)
}

func TestCloneWithBatch(t *testing.T) {
	p, _ := newLinearPolicy(t, 0.3, 1, []float64{0, 4, 0, 0}, 1)
	defer p.Close()

	clone, err := p.CloneWithBatch(3)
	require.NoError(t, err)
	defer clone.Close()

	c := clone.(*MultiHeadEGreedyMLP)
	assert.Equal(t, 3, c.BatchSize())
	assert.Equal(t, 0.3, c.Epsilon())

	obs := make([]float64, 3*4)
	values, err := c.ActionValues(obs)
	require.NoError(t, err)
	r, cols := values.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, cols)
	assert.True(t, mat.Equal(values.RowView(2), mat.NewVecDense(4,
		[]float64{0, 4, 0, 0})))
}

func TestGob(t *testing.T) {
	p, step := newLinearPolicy(t, 0.0, 1, []float64{0, 0, 0, 9}, 1)
	defer p.Close()
	p.SetEpsilon(0.25)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(p))

	var decoded MultiHeadEGreedyMLP
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	defer decoded.Close()

	assert.Equal(t, 0.25, decoded.Epsilon())
	decoded.Eval()
	action, err := decoded.SelectAction(step)
	require.NoError(t, err)
	assert.Equal(t, 3.0, action.AtVec(0))
}
