// Package gridworld implements 2D gridworld environments
package gridworld

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Actions in a GridWorld
const (
	Left int = iota
	Right
	Up
	Down
)

// GridWorld implements a gridworld environment with r rows and c
// columns.
//
// Observations are Discrete: the observation is a single feature, the
// index y*c + x of the cell (x, y) that the agent occupies. Use the
// wrappers.OneHot wrapper to learn from one-hot encoded cells.
//
// Actions are Discrete in {0, 1, 2, 3}, moving the agent left, right,
// up, or down. Moving into a wall leaves the agent in place.
type GridWorld struct {
	task     environment.Task
	r, c     int
	position int
	lastStep timestep.TimeStep
}

// New creates a new GridWorld with r rows and c columns performing
// task t, returning the environment and its first TimeStep
func New(r, c int, t environment.Task) (*GridWorld, timestep.TimeStep,
	error) {
	if r < 1 || c < 1 {
		return nil, timestep.TimeStep{}, errors.Errorf("new: gridworld must "+
			"have at least 1 row and 1 column, have (%d, %d)", r, c)
	}

	g := &GridWorld{task: t, r: r, c: c}

	step, err := g.reset()
	if err != nil {
		return nil, timestep.TimeStep{}, errors.WithMessage(err, "new")
	}
	return g, step, nil
}

func (g *GridWorld) reset() (timestep.TimeStep, error) {
	start := g.task.Start()
	if start.Len() != 1 {
		return timestep.TimeStep{}, errors.Errorf("reset: starting states "+
			"must be 1-dimensional\n\twant(1)\n\thave(%v)", start.Len())
	}

	position := int(start.AtVec(0))
	if position < 0 || position >= g.r*g.c {
		return timestep.TimeStep{}, errors.Errorf("reset: starting cell %v "+
			"outside of gridworld with %v cells", position, g.r*g.c)
	}
	g.position = position

	g.lastStep = timestep.New(timestep.First, 0, g.observation(), 0)
	return g.lastStep, nil
}

// Reset resets the environment to a starting state drawn from the
// Task's Starter. Reset panics if the starting state is not a cell of
// the GridWorld.
func (g *GridWorld) Reset() timestep.TimeStep {
	step, err := g.reset()
	if err != nil {
		panic(err)
	}
	return step
}

// Step takes one environmental step given action a
func (g *GridWorld) Step(a *mat.VecDense) (timestep.TimeStep, bool) {
	if a.Len() != 1 {
		panic("actions should be 1-dimensional")
	}

	x, y := g.Coordinates()
	switch direction := int(a.AtVec(0)); direction {
	case Left:
		if x > 0 {
			x--
		}
	case Right:
		if x < g.c-1 {
			x++
		}
	case Up:
		if y < g.r-1 {
			y++
		}
	case Down:
		if y > 0 {
			y--
		}
	default:
		panic(fmt.Sprintf("illegal action %v ∉ (0, 1, 2, 3)", direction))
	}

	state := g.lastStep.Observation
	g.position = cToInd(x, y, g.c)
	nextState := g.observation()

	reward := g.task.GetReward(state, a, nextState)
	step := timestep.New(timestep.Mid, reward, nextState,
		g.lastStep.Number+1)
	g.task.End(&step)

	g.lastStep = step
	return step, step.Last()
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.r, g.c
}

// Coordinates returns the (x, y) coordinates of the agent
func (g *GridWorld) Coordinates() (int, int) {
	return indToC(g.position, g.c)
}

// Task returns the Task performed in the environment
func (g *GridWorld) Task() environment.Task {
	return g.task
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (g *GridWorld) CurrentTimeStep() timestep.TimeStep {
	return g.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (g *GridWorld) ObservationSpec() spec.Environment {
	return spec.NewDiscrete(spec.Observation, g.r*g.c)
}

// ActionSpec returns the action specification of the environment
func (g *GridWorld) ActionSpec() spec.Environment {
	return spec.NewDiscrete(spec.Action, 4)
}

// RewardSpec returns the reward specification of the environment
func (g *GridWorld) RewardSpec() spec.Environment {
	return g.task.RewardSpec()
}

func (g *GridWorld) String() string {
	x, y := g.Coordinates()
	return fmt.Sprintf("GridWorld | At: (%d, %d)  |  Task: %v  |  "+
		"Bounds: (%d, %d)", x, y, g.task, g.r, g.c)
}

func (g *GridWorld) observation() *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(g.position)})
}

func cToInd(x, y, c int) int {
	return y*c + x
}

func indToC(i, c int) (int, int) {
	y := i / c
	return i - y*c, y
}
