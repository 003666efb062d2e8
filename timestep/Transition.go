package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single observed step (S, A, R, S', done). Done is true
// only if S' is a terminal state, in which case no value is bootstrapped
// from S'.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	NextState *mat.VecDense
	Done      bool
}

// NewTransition creates a Transition from the TimeStep in which an action
// was taken and the TimeStep that action led to.
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Done:      nextStep.TerminalEnd(),
	}
}

// Terminal returns 1.0 if the transition ends in a terminal state and
// 0.0 otherwise.
func (t Transition) Terminal() float64 {
	if t.Done {
		return 1.0
	}
	return 0.0
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | S: %v  |  A: %v  |  R: %.2f  |  "+
		"S': %v  |  Done: %v", mat.Formatted(t.State.T()),
		mat.Formatted(t.Action.T()), t.Reward,
		mat.Formatted(t.NextState.T()), t.Done)
}
