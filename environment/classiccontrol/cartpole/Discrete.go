package cartpole

import (
	"fmt"

	"github.com/pkg/errors"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	ts "github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// Discrete implements the classic control environment Cartpole with
// discrete actions. In this environment, a pole is attached to a cart,
// which can move horizontally. Gravity pulls the pole downwards so that
// balancing it in an upright position is very difficult.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. For the position, speed, and
// angular velocity features, extreme values are clipped to within the
// legal ranges. The pole's angle is normalized so that all angles stay
// in the range (-π, π]. Upon reaching a position boundary, the velocity
// of the cart is set to 0.
//
// Actions are discrete, consisting of the direction to apply
// horizontal force to the cart. Legal actions are in {0, 1, 2}:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Do nothing
//	  2			Apply force right
//
// Illegal actions will cause the environment to panic.
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Cartpole environment with discrete
// actions
func NewDiscrete(t env.Task) (*Discrete, ts.TimeStep, error) {
	base, firstStep, err := newBase(t)
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "newDiscrete")
	}

	return &Discrete{base}, firstStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Discrete) ActionSpec() spec.Environment {
	return spec.NewDiscrete(spec.Action, MaxDiscreteAction+1)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended. Legal actions are in the set {0, 1, 2}.
// Actions outside this range will cause the environment to panic.
func (c *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	if a.Len() != ActionDims {
		panic("actions should be 1-dimensional")
	}

	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		panic(fmt.Sprintf("illegal action %v ∉ (0, 1, 2)", intAction))
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	direction := float64(intAction - 1)

	return c.update(a, c.nextState(direction))
}
