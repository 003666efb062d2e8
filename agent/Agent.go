// Package agent defines the interfaces implemented by agents, their
// learners and policies, and the configurations that create them
package agent

import (
	"github.com/samuelfneumann/deepq/network"
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent is a learning algorithm together with the policy it acts with.
// The Policy picks an action on each TimeStep, and the Learner observes
// the consequence of that action and updates the weights the Policy
// acts with.
type Agent interface {
	Learner
	Policy
}

// Closer is an Agent holding resources, such as gorgonia VMs, that must
// be released once it is finished
type Closer interface {
	Agent
	Close() error
}

// Learner updates weights from observed interaction. Within an episode
// the expected call order is ObserveFirst once, then a repeated
// Observe and Step for each action, then EndEpisode.
type Learner interface {
	// Step performs the updates scheduled for the current environment
	// step
	Step() error

	// Observe records that action led to nextObs
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first TimeStep of an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode forgets the TimeStep of the episode that just ended
	EndEpisode()
}

// TdErrorer is a Learner which can compute the TD error of a Transition
// under its current weights
type TdErrorer interface {
	Learner
	TdError(t timestep.Transition) (float64, error)
}

// Policy selects actions. In evaluation mode a Policy acts without
// exploring.
type Policy interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
	Eval()
	Train()
	IsEval() bool
}

// NNPolicy is a Policy computed by a neural network. Each NNPolicy owns
// the VM that runs its network, so clones never share a VM.
type NNPolicy interface {
	Policy
	Clone() (NNPolicy, error)
	CloneWithBatch(int) (NNPolicy, error)
	Network() network.NeuralNet
	Close() error
}

// EGreedyNNPolicy is an NNPolicy which explores with probability
// epsilon
type EGreedyNNPolicy interface {
	NNPolicy
	SetEpsilon(float64)
	Epsilon() float64
}
