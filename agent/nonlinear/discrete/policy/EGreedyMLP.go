// Package policy implements policies using function approximation using
// Gorgonia. Many of these policies use nonlinear function
// aprpoximation.
package policy

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/network"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// MultiHeadEGreedyMLP implements an epsilon greedy policy using a
// feedforward neural network/MLP. Given an environment with N actions,
// the neural network will produce N outputs, each predicting the
// value of a distinct action.
//
// Each MultiHeadEGreedyMLP owns a VM which runs the computational
// graph of its network. An action is selected by setting the input to
// the network as the current observation, running the VM, and then
// choosing an action using the predicted action values:
//
//	Set input to policy's network:	policy.SetInput(obs)
//	Predict the action values:		vm.RunAll()
//	Select an action:				action = argmax or random
//
// SelectAction performs all these steps. In evaluation mode the policy
// is greedy with respect to the action values.
//
// Ties between actions of maximum value are broken uniformly randomly
// using the policy's seeded random number generator, so a policy with
// a fixed seed always selects the same actions given the same inputs.
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	vm      G.VM
	epsilon float64
	eval    bool

	source *rand.PCGSource
	rng    *rand.Rand
	seed   uint64
}

// NewMultiHeadEGreedyMLP creates and returns a new MultiHeadEGreedyMLP
// The hiddenSizes parameter defines the number of nodes in each hidden
// layer. The biases parameter outlines which layers should include
// bias units. The activations parameter determines the activation
// function for each layer. The batch parameter determines the number
// of inputs in a batch.
//
// Note that this constructor will always add an additional hidden
// layer (with a bias unit and no activation) such that the number of
// network outputs equals the number of actions in the environment.
// That is, regardless of the constructor arguments, an additional,
// final linear layer is added so that the output of the network
// equals the number of environmental actions.
//
// Because of this, it is easy to create a linear EGreedy policy by
// setting hiddenSizes to []int{}, biases to []bool{}, and activations
// to []*network.Activation{}.
func NewMultiHeadEGreedyMLP(epsilon float64, env env.Environment,
	batch int, g *G.ExprGraph, hiddenSizes []int, biases []bool,
	init G.InitWFn, activations []*network.Activation,
	seed uint64) (*MultiHeadEGreedyMLP, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, errors.Errorf("newMultiHeadEGreedyMLP: epsilon must "+
			"be in [0, 1], have(%v)", epsilon)
	}

	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return nil, errors.WithMessage(err, "newMultiHeadEGreedyMLP")
	}
	features := env.ObservationSpec().Features()

	net, err := network.NewMultiHeadMLP(features, batch, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, errors.WithMessage(err, "newMultiHeadEGreedyMLP: "+
			"could not create policy")
	}

	return newFromNet(net, epsilon, seed), nil
}

// newFromNet wraps a neural network in a MultiHeadEGreedyMLP with its
// own VM and random number generator
func newFromNet(net network.NeuralNet, epsilon float64,
	seed uint64) *MultiHeadEGreedyMLP {
	source := &rand.PCGSource{}
	source.Seed(seed)

	return &MultiHeadEGreedyMLP{
		NeuralNet: net,
		vm:        G.NewTapeMachine(net.Graph()),
		epsilon:   epsilon,
		source:    source,
		rng:       rand.New(source),
		seed:      seed,
	}
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// Clone clones a MultiHeadEGreedyMLP
func (e *MultiHeadEGreedyMLP) Clone() (agent.NNPolicy, error) {
	return e.CloneWithBatch(e.BatchSize())
}

// CloneWithBatch clones a MultiHeadEGreedyMLP with a new input
// batch size. The clone has a new VM and a random number generator
// seeded with the same seed as the original policy.
func (e *MultiHeadEGreedyMLP) CloneWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := e.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, errors.WithMessage(err, "cloneWithBatch: could not "+
			"clone policy")
	}

	clone := newFromNet(net, e.epsilon, e.seed)
	clone.eval = e.eval
	return clone, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *MultiHeadEGreedyMLP) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy.
func (e *MultiHeadEGreedyMLP) Epsilon() float64 {
	return e.epsilon
}

// Eval sets the policy to evaluation mode, in which actions are
// selected greedily
func (e *MultiHeadEGreedyMLP) Eval() {
	e.eval = true
}

// Train sets the policy to training mode
func (e *MultiHeadEGreedyMLP) Train() {
	e.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (e *MultiHeadEGreedyMLP) IsEval() bool {
	return e.eval
}

// ActionValues runs the policy's network on a batch of observations
// and returns the predicted action values, a row-major matrix with one
// row per observation and one column per action.
func (e *MultiHeadEGreedyMLP) ActionValues(obs []float64) (*mat.Dense,
	error) {
	if err := e.SetInput(obs); err != nil {
		return nil, errors.WithMessage(err, "actionValues")
	}

	defer e.vm.Reset()
	if err := e.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "actionValues: could not run "+
			"network")
	}

	values, ok := e.Output().Data().([]float64)
	if !ok {
		return nil, errors.New("actionValues: network does not predict " +
			"float64 values")
	}

	// Copy the output, since the VM reuses its backing data
	data := append([]float64(nil), values...)
	return mat.NewDense(e.BatchSize(), e.Outputs(), data), nil
}

// SelectAction selects an action in the state of the argument TimeStep.
// In training mode, with probability epsilon a uniform random action is
// selected, otherwise the action of maximum value is selected. In
// evaluation mode, the action of maximum value is always selected.
//
// The policy must have a batch size of 1 to select actions.
func (e *MultiHeadEGreedyMLP) SelectAction(t ts.TimeStep) (*mat.VecDense,
	error) {
	if e.BatchSize() != 1 {
		return nil, errors.Errorf("selectAction: policy must have batch "+
			"size 1 to select actions\n\twant(1)\n\thave(%v)", e.BatchSize())
	}

	// With probability epsilon return a random action
	if !e.eval && e.rng.Float64() < e.epsilon {
		return e.RandomAction(), nil
	}

	action, err := e.greedy(t.Observation.RawVector().Data)
	if err != nil {
		return nil, errors.WithMessage(err, "selectAction")
	}
	return mat.NewVecDense(1, []float64{float64(action)}), nil
}

// RandomAction returns an action selected uniformly randomly
func (e *MultiHeadEGreedyMLP) RandomAction() *mat.VecDense {
	action := e.rng.Intn(e.numActions())
	return mat.NewVecDense(1, []float64{float64(action)})
}

// greedy returns the action of maximum value in the argument state
func (e *MultiHeadEGreedyMLP) greedy(obs []float64) (int, error) {
	actionValues, err := e.ActionValues(obs)
	if err != nil {
		return 0, err
	}

	// If multiple actions have max value, return a random max-valued action
	_, maxIndices := floatutils.MaxSlice(actionValues.RawRowView(0))
	return maxIndices[e.rng.Intn(len(maxIndices))], nil
}

// numActions returns the number of actions that the policy chooses
// between.
func (e *MultiHeadEGreedyMLP) numActions() int {
	return e.Outputs()
}

// Close closes the policy's VM
func (e *MultiHeadEGreedyMLP) Close() error {
	return e.vm.Close()
}

// GobEncode implements the gob.GobEncoder interface
func (e *MultiHeadEGreedyMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(&e.NeuralNet); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode network")
	}
	if err := enc.Encode(e.epsilon); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode epsilon")
	}
	if err := enc.Encode(e.eval); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode mode")
	}
	if err := enc.Encode(e.seed); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode seed")
	}
	if err := enc.Encode(e.source); err != nil {
		return nil, errors.Wrap(err, "gobEncode: could not encode rng")
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadEGreedyMLP) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var net network.NeuralNet
	if err := dec.Decode(&net); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode network")
	}

	var epsilon float64
	if err := dec.Decode(&epsilon); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode epsilon")
	}

	var eval bool
	if err := dec.Decode(&eval); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode mode")
	}

	var seed uint64
	if err := dec.Decode(&seed); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode seed")
	}

	decoded := newFromNet(net, epsilon, seed)
	if err := dec.Decode(decoded.source); err != nil {
		return errors.Wrap(err, "gobDecode: could not decode rng")
	}
	decoded.eval = eval

	*e = *decoded
	return nil
}
