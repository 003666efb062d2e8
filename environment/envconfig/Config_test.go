package envconfig

import (
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/deepq/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCartpole(t *testing.T) {
	e, step, err := NewConfig(Cartpole, Balance, 500).Create(1)
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.Equal(t, 4, e.ObservationSpec().Features())
}

func TestCreateGridWorldFromJSON(t *testing.T) {
	data := []byte(`{"Environment": "GridWorld", "Task": "Goal", ` +
		`"EpisodeCutoff": 100, "Rows": 3, "Cols": 4, "OneHot": true}`)

	var c Config
	require.NoError(t, json.Unmarshal(data, &c))

	e, step, err := c.Create(0)
	require.NoError(t, err)
	assert.Equal(t, 12, step.Observation.Len())
	assert.Equal(t, spec.Continuous, e.ObservationSpec().Cardinality)
}

func TestCreateMaze(t *testing.T) {
	c := NewConfig(Maze, Solve, 200)
	c.Rows, c.Cols = 3, 4

	e, step, err := c.Create(7)
	require.NoError(t, err)
	assert.Equal(t, spec.Dict, e.ObservationSpec().Cardinality)
	assert.Equal(t, []string{"col", "row"}, e.ObservationSpec().Keys())
	assert.True(t, e.ObservationSpec().Contains(step.Observation))

	c.OneHot = true
	e, step, err = c.Create(7)
	require.NoError(t, err)
	assert.Equal(t, 7, e.ObservationSpec().Features())
	assert.Equal(t, 7, step.Observation.Len())
}

func TestCreateErrors(t *testing.T) {
	_, _, err := NewConfig(Cartpole, Goal, 10).Create(0)
	assert.Error(t, err)

	_, _, err = NewConfig("Pong", Goal, 10).Create(0)
	assert.Error(t, err)

	_, _, err = NewConfig(Maze, Goal, 10).Create(0)
	assert.Error(t, err)

	_, _, err = NewConfig(GridWorld, Goal, 0).Create(0)
	assert.Error(t, err)
}
