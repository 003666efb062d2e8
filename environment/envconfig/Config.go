// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"github.com/pkg/errors"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/deepq/environment/gridworld"
	"github.com/samuelfneumann/deepq/environment/maze"
	"github.com/samuelfneumann/deepq/environment/wrappers"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/gomaze"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole  EnvName = "Cartpole"
	GridWorld EnvName = "GridWorld"
	Maze      EnvName = "Maze"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Cartpole			Balance
//	GridWorld			Goal
//	Maze				Solve
type TaskName string

// Tasks available for configuration
const (
	Goal    TaskName = "Goal"
	Balance TaskName = "Balance"
	Solve   TaskName = "Solve"
)

// Default GridWorld and Maze dimensions used when a Config leaves them unset
const (
	DefaultRows int = 5
	DefaultCols int = 5
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
//
// Rows and Cols only apply to the GridWorld and Maze, whose goal is the
// cell opposite their (0, 0) start. The walls of a Maze are carved by
// Wilson's algorithm seeded with the seed passed to Create. OneHot wraps
// environments with Discrete or Dict observations in a wrappers.OneHot.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff uint
	Rows, Cols    int
	OneHot        bool
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff uint) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if c.EpisodeCutoff == 0 {
		return nil, ts.TimeStep{}, errors.Errorf("create: episode cutoff " +
			"must be positive")
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.Task, int(c.EpisodeCutoff), seed)

	case GridWorld:
		r, col := c.Rows, c.Cols
		if r == 0 {
			r = DefaultRows
		}
		if col == 0 {
			col = DefaultCols
		}
		return CreateGridWorld(c.Task, r, col, int(c.EpisodeCutoff), c.OneHot)

	case Maze:
		r, col := c.Rows, c.Cols
		if r == 0 {
			r = DefaultRows
		}
		if col == 0 {
			col = DefaultCols
		}
		return CreateMaze(c.Task, r, col, int(c.EpisodeCutoff), seed,
			c.OneHot)
	}

	return nil, ts.TimeStep{}, errors.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(taskName TaskName, cutoff int,
	seed uint64) (env.Environment, ts.TimeStep, error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	var task env.Task
	switch taskName {
	case Balance:
		task = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	default:
		return nil, ts.TimeStep{}, errors.Errorf("createCartpole: Cartpole "+
			"environment has no task %v", taskName)
	}

	c, step, err := cartpole.NewDiscrete(task)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createCartpole")
	}
	return c, step, nil
}

// CreateGridWorld is a factory for creating a GridWorld with r rows and
// c columns, starting at (0, 0) with a goal at (c-1, r-1). Each step
// yields a reward of -1 and entering the goal yields 0.
func CreateGridWorld(taskName TaskName, r, c, cutoff int,
	oneHot bool) (env.Environment, ts.TimeStep, error) {
	s, err := gridworld.NewSingleStart(0, 0, r, c)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createGridWorld")
	}

	var task env.Task
	switch taskName {
	case Goal:
		task, err = gridworld.NewGoal(s, []int{c - 1}, []int{r - 1}, r, c,
			-1, 0, cutoff)
		if err != nil {
			return nil, ts.TimeStep{}, errors.WithMessage(err, "createGridWorld")
		}

	default:
		return nil, ts.TimeStep{}, errors.Errorf("createGridWorld: GridWorld "+
			"environment has no task %v", taskName)
	}

	g, step, err := gridworld.New(r, c, task)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createGridWorld")
	}
	if !oneHot {
		return g, step, nil
	}

	o, step, err := wrappers.NewOneHot(g)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createGridWorld")
	}
	return o, step, nil
}

// CreateMaze is a factory for creating a Maze with r rows and c columns
// whose walls are generated from seed. Episodes start at (0, 0) with the
// goal at (c-1, r-1).
func CreateMaze(taskName TaskName, r, c, cutoff int, seed uint64,
	oneHot bool) (env.Environment, ts.TimeStep, error) {
	s, err := maze.NewSingleStart(0, 0, r, c)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createMaze")
	}

	var task env.Task
	switch taskName {
	case Solve:
		task, err = maze.NewSolve(s, c-1, r-1, r, c, cutoff)
		if err != nil {
			return nil, ts.TimeStep{}, errors.WithMessage(err, "createMaze")
		}

	default:
		return nil, ts.TimeStep{}, errors.Errorf("createMaze: Maze "+
			"environment has no task %v", taskName)
	}

	m, step, err := maze.New(r, c, task, gomaze.NewWilson(int64(seed)))
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createMaze")
	}
	if !oneHot {
		return m, step, nil
	}

	o, step, err := wrappers.NewOneHot(m)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "createMaze")
	}
	return o, step, nil
}
