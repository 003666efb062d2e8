package spec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNumActions(t *testing.T) {
	n, err := NewDiscrete(Action, 3).NumActions()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = NewBox(Action, []float64{-1}, []float64{1}).NumActions()
	assert.Error(t, err)

	shifted := NewEnvironment(
		mat.NewVecDense(1, nil),
		Action,
		mat.NewVecDense(1, []float64{1}),
		mat.NewVecDense(1, []float64{3}),
		Discrete,
	)
	_, err = shifted.NumActions()
	assert.Error(t, err)
}

func TestDictFeaturesAndKeys(t *testing.T) {
	d := NewDict(Observation, map[string]Environment{
		"velocity": NewBox(Observation, []float64{-1, -1}, []float64{1, 1}),
		"angle":    NewBox(Observation, []float64{-3}, []float64{3}),
		"goal":     NewDiscrete(Observation, 4),
	})

	assert.Equal(t, 4, d.Features())
	assert.Equal(t, []string{"angle", "goal", "velocity"}, d.Keys())
	assert.Nil(t, NewDiscrete(Action, 2).Keys())
}

func TestFlattenSortedKeyOrder(t *testing.T) {
	d := NewDict(Observation, map[string]Environment{
		"b": NewBox(Observation, []float64{0, 0}, []float64{5, 5}),
		"a": NewBox(Observation, []float64{0}, []float64{5}),
	})

	flat, err := Flatten(d, map[string]*mat.VecDense{
		"b": mat.NewVecDense(2, []float64{2, 3}),
		"a": mat.NewVecDense(1, []float64{1}),
	})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1, 2, 3}, flat.RawVector().Data); diff != "" {
		t.Errorf("flatten mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, d.Contains(flat))
}

func TestFlattenErrors(t *testing.T) {
	d := NewDict(Observation, map[string]Environment{
		"a": NewBox(Observation, []float64{0}, []float64{1}),
	})

	_, err := Flatten(d, map[string]*mat.VecDense{
		"z": mat.NewVecDense(1, nil),
	})
	assert.Error(t, err)

	_, err = Flatten(d, map[string]*mat.VecDense{
		"a": mat.NewVecDense(2, nil),
	})
	assert.Error(t, err)

	_, err = Flatten(NewDiscrete(Observation, 2), nil)
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	discrete := NewDiscrete(Observation, 3)
	assert.True(t, discrete.Contains(mat.NewVecDense(1, []float64{2})))
	assert.False(t, discrete.Contains(mat.NewVecDense(1, []float64{1.5})))
	assert.False(t, discrete.Contains(mat.NewVecDense(1, []float64{3})))

	box := NewBox(Observation, []float64{-1, 0}, []float64{1, 2})
	assert.True(t, box.Contains(mat.NewVecDense(2, []float64{0.5, 1.5})))
	assert.False(t, box.Contains(mat.NewVecDense(2, []float64{0.5, 2.5})))
	assert.False(t, box.Contains(mat.NewVecDense(1, []float64{0})))
}
