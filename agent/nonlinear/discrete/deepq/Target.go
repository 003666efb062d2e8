package deepq

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TargetType determines how the value of the next state is bootstrapped
// in the update target of a DeepQ agent
type TargetType string

const (
	// DQN bootstraps from the maximum action value of the target
	// network in the next state
	DQN TargetType = "DQN"

	// DoubleDQN selects the next action greedily with respect to the
	// online network and bootstraps from the target network's value of
	// that action
	DoubleDQN TargetType = "DoubleDQN"
)

// Target computes the values bootstrapped from the next states of a
// batch of transitions
type Target interface {
	// Bootstrap returns the bootstrapped value of each next state in a
	// batch given the action values of the target network in the next
	// states, one row per next state. If RequiresOnline returns true,
	// then online holds the action values of the online network in the
	// next states, otherwise online is nil.
	Bootstrap(target, online *mat.Dense) []float64

	// RequiresOnline returns whether Bootstrap uses the action values
	// of the online network
	RequiresOnline() bool
}

// NewTarget returns the Target of the given type
func NewTarget(t TargetType) (Target, error) {
	switch t {
	case DQN:
		return dqnTarget{}, nil
	case DoubleDQN:
		return doubleDQNTarget{}, nil
	}
	return nil, errors.Errorf("newTarget: no such target type %q", t)
}

type dqnTarget struct{}

// Bootstrap implements the Target interface
func (dqnTarget) Bootstrap(target, _ *mat.Dense) []float64 {
	rows, _ := target.Dims()
	values := make([]float64, rows)
	for i := range values {
		values[i] = floats.Max(target.RawRowView(i))
	}
	return values
}

// RequiresOnline implements the Target interface
func (dqnTarget) RequiresOnline() bool {
	return false
}

type doubleDQNTarget struct{}

// Bootstrap implements the Target interface. Ties in the online action
// values are broken by the lowest action index.
func (doubleDQNTarget) Bootstrap(target, online *mat.Dense) []float64 {
	rows, _ := target.Dims()
	values := make([]float64, rows)
	for i := range values {
		action := floats.MaxIdx(online.RawRowView(i))
		values[i] = target.At(i, action)
	}
	return values
}

// RequiresOnline implements the Target interface
func (doubleDQNTarget) RequiresOnline() bool {
	return true
}

// Targets computes the update targets of a batch of transitions:
//
//	y = r + γ * (1 - done) * bootstrap
//
// Terminal transitions, with done = 1, have a target equal to their
// reward.
func Targets(rewards, dones, bootstrap []float64, discount float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range targets {
		targets[i] = rewards[i] + discount*(1-dones[i])*bootstrap[i]
	}
	return targets
}
