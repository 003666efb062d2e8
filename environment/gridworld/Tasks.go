package gridworld

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Goal represents the task of reaching goal cells in a GridWorld.
// Entering a goal cell ends the episode in a terminal state. Episodes
// that reach the step limit first end in a timeout.
type Goal struct {
	environment.Starter
	goals          map[int]struct{}
	c              int
	timeStepReward float64
	goalReward     float64

	stepLimiter *environment.StepLimit
	goalEnder   *environment.FunctionEnder
}

// NewGoal creates and returns a new goal task with goal cells at
// (x[i], y[i]) in a gridworld with r rows and c columns. Each step
// yields reward tr, and entering a goal yields reward gr.
func NewGoal(s environment.Starter, x, y []int, r, c int, tr, gr float64,
	episodeSteps int) (*Goal, error) {
	if len(x) != len(y) {
		return nil, errors.Errorf("newGoal: x length (%d) != y length (%d)",
			len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.Errorf("newGoal: at least one goal is required")
	}

	goals := make(map[int]struct{}, len(x))
	for i := range x {
		if x[i] < 0 || x[i] >= c {
			return nil, errors.Errorf("newGoal: x[%d] = %d ∉ [0, %d)", i, x[i], c)
		} else if y[i] < 0 || y[i] >= r {
			return nil, errors.Errorf("newGoal: y[%d] = %d ∉ [0, %d)", i, y[i], r)
		}
		goals[cToInd(x[i], y[i], c)] = struct{}{}
	}

	g := &Goal{
		Starter:        s,
		goals:          goals,
		c:              c,
		timeStepReward: tr,
		goalReward:     gr,
		stepLimiter:    environment.NewStepLimit(episodeSteps),
	}
	g.goalEnder = environment.NewFunctionEnder(func(v *mat.VecDense) bool {
		return g.AtGoal(v)
	}, timestep.TerminalStateReached)

	return g, nil
}

// GetReward returns the reward for transitioning to nextState
func (g *Goal) GetReward(_, _, nextState mat.Vector) float64 {
	if g.AtGoal(nextState) {
		return g.goalReward
	}
	return g.timeStepReward
}

// AtGoal returns whether state is a goal cell
func (g *Goal) AtGoal(state mat.Vector) bool {
	_, ok := g.goals[int(state.AtVec(0))]
	return ok
}

// End checks if a TimeStep is the last in an episode, adjusting its
// StepType and EndType if so. Reaching a goal takes precedence over the
// step limit.
func (g *Goal) End(t *timestep.TimeStep) bool {
	if g.goalEnder.End(t) {
		return true
	}
	return g.stepLimiter.End(t)
}

// Min returns the minimum reward attainable in the Task
func (g *Goal) Min() float64 {
	return floats.Min([]float64{g.timeStepReward, g.goalReward})
}

// Max returns the maximum reward attainable in the Task
func (g *Goal) Max() float64 {
	return floats.Max([]float64{g.timeStepReward, g.goalReward})
}

// RewardSpec returns the reward specification of the Task
func (g *Goal) RewardSpec() spec.Environment {
	return spec.NewBox(spec.Reward, []float64{g.Min()}, []float64{g.Max()})
}

// String returns the goal cells as (x, y) coordinates
func (g *Goal) String() string {
	indices := make([]int, 0, len(g.goals))
	for i := range g.goals {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	coords := make([][2]int, len(indices))
	for i, index := range indices {
		x, y := indToC(index, g.c)
		coords[i] = [2]int{x, y}
	}
	return fmt.Sprintf("Goals: %v", coords)
}
