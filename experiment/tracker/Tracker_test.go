package tracker

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/deepq/environment/envconfig"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// episode returns the TimeSteps of an episode with the given rewards
// on each step after the first
func episode(rewards ...float64) []ts.TimeStep {
	obs := mat.NewVecDense(1, nil)
	steps := []ts.TimeStep{ts.New(ts.First, 0, obs, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, obs, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	for _, step := range episode(-1, -1, 10) {
		r.Track(step)
	}
	for _, step := range episode(-1, 10) {
		r.Track(step)
	}

	// An unfinished episode is never cached
	for _, step := range episode(5, 5)[:2] {
		r.Track(step)
	}

	if diff := cmp.Diff([]float64{8, 9}, r.Data()); diff != "" {
		t.Errorf("Data() mismatch (-want +got):\n%s", diff)
	}
}

func TestEpisodeLengthSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(filename)
	for _, step := range episode(0, 0, 0) {
		e.Track(step)
	}
	for _, step := range episode(0) {
		e.Track(step)
	}
	require.NoError(t, e.Save())

	data, err := LoadData(filename)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{3, 1}, data); diff != "" {
		t.Errorf("LoadData() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	env, _, err := envconfig.CreateGridWorld(envconfig.Goal, 1, 2, 10, true)
	require.NoError(t, err)

	r := NewReturn("")
	registered := Register(r, env)

	// The tracked TimeStep is the Environment's, not the argument
	step, _ := env.Step(mat.NewVecDense(1, []float64{1}))
	require.True(t, step.Last())
	registered.Track(ts.New(ts.Mid, 100, nil, 7))

	assert.Equal(t, []float64{step.Reward}, registered.(Data).Data())
}
