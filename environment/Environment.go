// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should end. If an episode should end,
// End modifies the TimeStep so that it is the last in the episode and
// records how the episode ended.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender

	GetReward(state, a, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
	RewardSpec() spec.Environment
	Min() float64 // Minimum attainable reward
	Max() float64 // Maximum attainable reward
}

// Environment implements a simulated environment, which includes a Task
// to complete
type Environment interface {
	Task() Task
	Reset() timestep.TimeStep // Resets between episodes
	Step(action *mat.VecDense) (timestep.TimeStep, bool)
	CurrentTimeStep() timestep.TimeStep
	RewardSpec() spec.Environment
	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
}
