package cartpole

import (
	"math"

	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	ts "github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	FailAngle float64 = 12 * 2 * math.Pi / 360
)

// Balance implements the classic control Cartpole Balance task. In this
// Task, the goal of the agent is to balance the pole on the cart in
// an upright position for as long as possible.
//
// The reward is +1 for every timestep the pole stays within the fail
// angle θ and 0 otherwise.
//
// Episodes end after a step limit (a timeout) or after the pole has
// fallen past the fail angle or the cart has left the track (a terminal
// state).
type Balance struct {
	env.Starter
	stepLimiter *env.StepLimit
	failLimiter *env.IntervalLimit
	failAngle   float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legal := []r1.Interval{
		{Min: -PositionBounds, Max: PositionBounds},
		{Min: -failAngle, Max: failAngle},
	}
	failLimiter := env.NewIntervalLimit(legal, []int{0, 2},
		ts.TerminalStateReached)

	return &Balance{s, stepLimiter, failLimiter, failAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Terminal
// states take precedence over timeouts.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.failLimiter.End(t); end {
		return true
	}
	return b.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (b *Balance) GetReward(_, _, nextState mat.Vector) float64 {
	if b.AtGoal(nextState) {
		return 1.0
	}
	return 0.0
}

// AtGoal returns whether the pole is upright within the fail angle
func (b *Balance) AtGoal(state mat.Vector) bool {
	return math.Abs(state.AtVec(2)) <= b.failAngle &&
		math.Abs(state.AtVec(0)) < PositionBounds
}

// Min returns the minimum possible reward that can be received in the
// environment
func (b *Balance) Min() float64 {
	return 0.0
}

// Max returns the maximum possible reward that can be received in the
// environment
func (b *Balance) Max() float64 {
	return 1.0
}

// RewardSpec returns the reward specification for the environment
func (b *Balance) RewardSpec() spec.Environment {
	return spec.NewBox(spec.Reward, []float64{b.Min()}, []float64{b.Max()})
}
