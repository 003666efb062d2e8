package maze

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Rewards of the Solve task
const (
	TimeStepReward float64 = -1.0
	GoalReward     float64 = 0.0
)

// Solve is the task of reaching the goal cell of a maze. Each step
// yields TimeStepReward, entering the goal yields GoalReward and ends
// the episode in a terminal state. Episodes reaching the step limit
// first end in a timeout.
type Solve struct {
	environment.Starter
	goalCol, goalRow int

	stepLimiter *environment.StepLimit
	goalEnder   *environment.FunctionEnder
}

// NewSolve returns a new Solve task with its goal at (col, row) of a
// maze with r rows and c columns
func NewSolve(s environment.Starter, col, row, r, c int,
	episodeSteps int) (*Solve, error) {
	if col < 0 || col >= c {
		return nil, errors.Errorf("newSolve: col = %d ∉ [0, %d)", col, c)
	} else if row < 0 || row >= r {
		return nil, errors.Errorf("newSolve: row = %d ∉ [0, %d)", row, r)
	}

	solve := &Solve{
		Starter:     s,
		goalCol:     col,
		goalRow:     row,
		stepLimiter: environment.NewStepLimit(episodeSteps),
	}
	solve.goalEnder = environment.NewFunctionEnder(func(v *mat.VecDense) bool {
		return solve.AtGoal(v)
	}, timestep.TerminalStateReached)

	return solve, nil
}

// GetReward returns the reward for transitioning to nextState
func (s *Solve) GetReward(_, _, nextState mat.Vector) float64 {
	if s.AtGoal(nextState) {
		return GoalReward
	}
	return TimeStepReward
}

// AtGoal returns whether the [col, row] state is the goal cell
func (s *Solve) AtGoal(state mat.Vector) bool {
	return int(state.AtVec(0)) == s.goalCol &&
		int(state.AtVec(1)) == s.goalRow
}

// End checks if a TimeStep is the last in an episode, adjusting its
// StepType and EndType if so
func (s *Solve) End(t *timestep.TimeStep) bool {
	if s.goalEnder.End(t) {
		return true
	}
	return s.stepLimiter.End(t)
}

// Min returns the minimum reward attainable in the Task
func (s *Solve) Min() float64 {
	return TimeStepReward
}

// Max returns the maximum reward attainable in the Task
func (s *Solve) Max() float64 {
	return GoalReward
}

// RewardSpec returns the reward specification of the Task
func (s *Solve) RewardSpec() spec.Environment {
	return spec.NewBox(spec.Reward, []float64{s.Min()}, []float64{s.Max()})
}

func (s *Solve) String() string {
	return fmt.Sprintf("Solve | Goal: (%d, %d)", s.goalCol, s.goalRow)
}
