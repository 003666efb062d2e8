// Package maze implements maze environments whose walls are generated
// by GoMaze
package maze

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/gomaze"
	"gonum.org/v1/gonum/mat"
)

// Actions in a Maze
const (
	North int = iota
	South
	West
	East
)

// Keys of the observation fields
const (
	ColKey = "col"
	RowKey = "row"
)

// Maze implements a maze environment with r rows and c columns, walls
// between cells being carved by a gomaze.Initer.
//
// Observations form a Dict space with a Discrete "col" field and a
// Discrete "row" field, flattened into the vector [col, row]. Actions are
// Discrete in {0, 1, 2, 3}, moving the agent north, south, west, or
// east. Moving into a wall leaves the agent in place.
type Maze struct {
	task     environment.Task
	maze     *gomaze.Maze
	obsSpec  spec.Environment
	lastStep timestep.TimeStep
}

// New creates a new Maze with r rows and c columns performing task t,
// returning the environment and its first TimeStep
func New(r, c int, t environment.Task, init gomaze.Initer) (*Maze,
	timestep.TimeStep, error) {
	if r < 1 || c < 1 {
		return nil, timestep.TimeStep{}, errors.Errorf("new: maze must "+
			"have at least 1 row and 1 column, have (%d, %d)", r, c)
	}

	// GoMaze's own start and goal are unused, the Task decides both
	m, err := gomaze.NewMaze(r, c, -1, -1, -1, -1, init, false)
	if err != nil {
		return nil, timestep.TimeStep{}, errors.Wrap(err, "new")
	}

	obsSpec := spec.NewDict(spec.Observation, map[string]spec.Environment{
		ColKey: spec.NewDiscrete(spec.Observation, c),
		RowKey: spec.NewDiscrete(spec.Observation, r),
	})

	maze := &Maze{task: t, maze: m, obsSpec: obsSpec}
	step, err := maze.reset()
	if err != nil {
		return nil, timestep.TimeStep{}, errors.WithMessage(err, "new")
	}
	return maze, step, nil
}

func (m *Maze) reset() (timestep.TimeStep, error) {
	start := m.task.Start()
	if !m.obsSpec.Contains(start) {
		return timestep.TimeStep{}, errors.Errorf("reset: starting state "+
			"%v is not a cell of a %dx%d maze", mat.Formatted(start.T()),
			m.maze.Rows(), m.maze.Cols())
	}

	m.maze.Reset()
	col, row := int(start.AtVec(0)), int(start.AtVec(1))
	if err := m.maze.SetCell(col, row); err != nil {
		return timestep.TimeStep{}, errors.Wrap(err, "reset")
	}

	obs, err := m.observation()
	if err != nil {
		return timestep.TimeStep{}, errors.WithMessage(err, "reset")
	}
	m.lastStep = timestep.New(timestep.First, 0, obs, 0)
	return m.lastStep, nil
}

// Reset resets the environment to a starting state drawn from the
// Task's Starter. Reset panics if the starting state is not a cell of
// the Maze.
func (m *Maze) Reset() timestep.TimeStep {
	step, err := m.reset()
	if err != nil {
		panic(err)
	}
	return step
}

// Step takes one environmental step given action a
func (m *Maze) Step(a *mat.VecDense) (timestep.TimeStep, bool) {
	if a.Len() != 1 {
		panic("actions should be 1-dimensional")
	}

	direction := int(a.AtVec(0))
	if direction < North || direction > East {
		panic(fmt.Sprintf("illegal action %v ∉ (0, 1, 2, 3)", direction))
	}
	if _, _, _, err := m.maze.Step(direction); err != nil {
		panic(err)
	}

	nextState, err := m.observation()
	if err != nil {
		panic(err)
	}

	reward := m.task.GetReward(m.lastStep.Observation, a, nextState)
	step := timestep.New(timestep.Mid, reward, nextState,
		m.lastStep.Number+1)
	m.task.End(&step)

	m.lastStep = step
	return step, step.Last()
}

// Dims gets the rows and columns of the Maze
func (m *Maze) Dims() (r, c int) {
	return m.maze.Rows(), m.maze.Cols()
}

// Task returns the Task performed in the environment
func (m *Maze) Task() environment.Task {
	return m.task
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (m *Maze) CurrentTimeStep() timestep.TimeStep {
	return m.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (m *Maze) ObservationSpec() spec.Environment {
	return m.obsSpec
}

// ActionSpec returns the action specification of the environment
func (m *Maze) ActionSpec() spec.Environment {
	return spec.NewDiscrete(spec.Action, gomaze.Actions)
}

// RewardSpec returns the reward specification of the environment
func (m *Maze) RewardSpec() spec.Environment {
	return m.task.RewardSpec()
}

// String returns the maze drawn by GoMaze
func (m *Maze) String() string {
	return fmt.Sprintf("Maze | Task: %v\n%v", m.task, m.maze)
}

func (m *Maze) observation() (*mat.VecDense, error) {
	obs := m.maze.Obs()
	return spec.Flatten(m.obsSpec, map[string]*mat.VecDense{
		ColKey: mat.NewVecDense(1, []float64{obs[0]}),
		RowKey: mat.NewVecDense(1, []float64{obs[1]}),
	})
}
