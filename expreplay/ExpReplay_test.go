package expreplay

import (
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// transition returns a transition whose every value is derived from i
func transition(i int, done bool) timestep.Transition {
	v := float64(i)
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{v, v}),
		Action:    mat.NewVecDense(1, []float64{v}),
		Reward:    v,
		NextState: mat.NewVecDense(2, []float64{v + 1, v + 1}),
		Done:      done,
	}
}

func newFifoUniform(t *testing.T, min, max, batch int) ExperienceReplayer {
	c := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        batch,
		MinReplayCapacity: min,
		MaxReplayCapacity: max,
	}
	e, err := c.Create(2, 1, 42)
	require.NoError(t, err)
	return e
}

func TestSampleErrors(t *testing.T) {
	e := newFifoUniform(t, 2, 5, 3)

	_, err := e.Sample()
	assert.True(t, IsEmptyBuffer(err))
	assert.False(t, IsInsufficientSamples(err))

	require.NoError(t, e.Add(transition(0, false)))
	_, err = e.Sample()
	assert.True(t, IsInsufficientSamples(err))

	require.NoError(t, e.Add(transition(1, false)))
	batch, err := e.Sample()
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Size)
	assert.Len(t, batch.State, 6)
	assert.Len(t, batch.Action, 3)
}

func TestSampleIsConsistent(t *testing.T) {
	e := newFifoUniform(t, 1, 10, 16)
	for i := 0; i < 4; i++ {
		require.NoError(t, e.Add(transition(i, i == 3)))
	}

	batch, err := e.Sample()
	require.NoError(t, err)
	for i := 0; i < batch.Size; i++ {
		r := batch.Reward[i]
		assert.Equal(t, r, batch.State[2*i])
		assert.Equal(t, r, batch.Action[i])
		assert.Equal(t, r+1, batch.NextState[2*i+1])
		if r == 3 {
			assert.Equal(t, 1.0, batch.Done[i])
		} else {
			assert.Equal(t, 0.0, batch.Done[i])
		}
	}
	assert.Equal(t, 4, e.Len(), "sampling does not remove data")
}

func TestFifoRemoval(t *testing.T) {
	c := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Fifo,
		RemoveSize:        1,
		SampleSize:        3,
		MinReplayCapacity: 1,
		MaxReplayCapacity: 3,
	}
	e, err := c.Create(2, 1, 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Add(transition(i, false)))
	}
	assert.Equal(t, 3, e.Len())

	batch, err := e.Sample()
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{2, 3, 4}, batch.Reward); diff != "" {
		t.Errorf("fifo order mismatch (-want +got):\n%s", diff)
	}
}

func TestUniformRemovalKeepsOrder(t *testing.T) {
	c := Config{
		RemoveMethod:      Uniform,
		SampleMethod:      Fifo,
		RemoveSize:        2,
		SampleSize:        3,
		MinReplayCapacity: 1,
		MaxReplayCapacity: 4,
	}
	e, err := c.Create(2, 1, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Add(transition(i, false)))
	}
	assert.Equal(t, 3, e.Len())

	batch, err := e.Sample()
	require.NoError(t, err)
	assert.True(t, sort.Float64sAreSorted(batch.Reward))
	assert.Equal(t, 4.0, batch.Reward[2], "newest transition is kept")
}

func TestAddInvalidSizes(t *testing.T) {
	e := newFifoUniform(t, 1, 2, 1)

	tr := transition(0, false)
	tr.State = mat.NewVecDense(3, nil)
	assert.Error(t, e.Add(tr))

	tr = transition(0, false)
	tr.Action = mat.NewVecDense(2, nil)
	assert.Error(t, e.Add(tr))
	assert.Equal(t, 0, e.Len())
}

func TestInvalidConfig(t *testing.T) {
	c := Config{
		RemoveMethod:      Fifo,
		SampleMethod:      Uniform,
		RemoveSize:        1,
		SampleSize:        1,
		MinReplayCapacity: 5,
		MaxReplayCapacity: 2,
	}
	_, err := c.Create(2, 1, 0)
	assert.Error(t, err)

	c.MaxReplayCapacity = 10
	c.SampleMethod = "Prioritized"
	_, err = c.Create(2, 1, 0)
	assert.Error(t, err)
}

func TestConcurrentAddAndSample(t *testing.T) {
	e := newFifoUniform(t, 1, 50, 8)
	require.NoError(t, e.Add(transition(0, false)))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i < 500; i++ {
			assert.NoError(t, e.Add(transition(i, false)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, err := e.Sample()
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	assert.Equal(t, 50, e.Len())
}
