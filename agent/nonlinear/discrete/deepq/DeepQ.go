// Package deepq implements the deep Q-network (DQN) algorithm with an
// epsilon greedy behaviour policy, experience replay, and a Polyak
// averaged target network.
package deepq

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent/nonlinear/discrete/policy"
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/expreplay"
	"github.com/samuelfneumann/deepq/network"
	"github.com/samuelfneumann/deepq/solver"
	ts "github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var logger = slog.Default()

// SetLogger sets the logger used by the package
func SetLogger(l *slog.Logger) {
	logger = l
}

// DeepQ implements the deep Q-network algorithm. Actions are selected
// epsilon greedily, with epsilon decaying exponentially in the number
// of actions selected in training mode. Each update fits the online
// network to bootstrapped targets on batches sampled from experience
// replay using the MSE loss, and the target network is moved towards
// the online network using Polyak averaging:
//
//	y = r + γ * (1 - done) * bootstrap(s')
//	L = mean[(Q(s, a) - y)²]
//	θ_target ← τθ + (1 - τ)θ_target
type DeepQ struct {
	// Action selection policy with a batch size of 1, whose weights
	// mirror those of trainNet after each update
	behaviourPolicy *policy.MultiHeadEGreedyMLP
	epsilon         EpsilonSchedule

	// Network whose weights are adapted, which takes batches of inputs
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     *solver.Solver
	scheduler  *solver.Scheduler

	// Network that provides the update target
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// Copy of trainNet used to compute action values in the next
	// states, only needed by targets that require the online network
	onlineNextNet   network.NeuralNet
	onlineNextNetVM G.VM
	target          Target

	// Input nodes of the loss in the graph of trainNet
	selectedActions *G.Node // One-hot actions taken at the states
	updateTargets   *G.Node // Bootstrapped update targets
	lossVal         *G.Value

	// Variables to track target network updates
	tau                  float64 // Polyak averaging constant
	discount             float64
	targetUpdateInterval int // Gradient steps between target updates
	gradientSteps        int // Gradient steps per update
	updates              int // Gradient steps taken

	// Update schedule over timesteps
	timestep        int
	randomTimesteps int
	learningStarts  int
	updateInterval  int

	replay     expreplay.ExperienceReplayer
	numActions int
	batchSize  int

	// The current timestep in the episode, from which the next
	// transition is built
	step ts.TimeStep
	eval bool // Whether or not in evaluation mode
}

// New creates and returns a new DeepQ agent which constructs its
// experience replay buffer from the Config
func New(env environment.Environment, config Config,
	seed uint64) (*DeepQ, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessage(err, "new")
	}

	features := env.ObservationSpec().Features()
	replay, err := config.ExpReplay.Create(features, 1, seed)
	if err != nil {
		return nil, errors.WithMessage(err, "new: could not create "+
			"experience replay buffer")
	}

	return NewWithReplay(env, config, replay, seed)
}

// NewWithReplay creates and returns a new DeepQ agent which uses the
// argument experience replay buffer. The buffer must store actions as
// 1-dimensional action indices, and its batch size must equal the
// batch size of the Config. The ExpReplay field of the Config is only
// used to determine the batch size.
func NewWithReplay(env environment.Environment, config Config,
	replay expreplay.ExperienceReplayer, seed uint64) (*DeepQ, error) {
	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return nil, errors.WithMessage(err, "new")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessage(err, "new")
	}

	batchSize := config.BatchSize()
	if replay.BatchSize() != batchSize {
		return nil, errors.Errorf("new: invalid replay batch size"+
			"\n\twant(%v)\n\thave(%v)", batchSize, replay.BatchSize())
	}
	if replay.MinCapacity() < batchSize {
		return nil, errors.Errorf("new: minimum replay capacity (%v) must "+
			"be at least the batch size (%v)", replay.MinCapacity(),
			batchSize)
	}

	target, err := NewTarget(config.Target)
	if err != nil {
		return nil, errors.WithMessage(err, "new")
	}

	// Behaviour policy for selecting actions
	epsilon := config.EpsilonSchedule()
	behaviourPolicy, err := policy.NewMultiHeadEGreedyMLP(
		epsilon.At(0),
		env,
		1, // For behaviour policy, we only need to select a single action
		G.NewGraph(),
		config.PolicyLayers,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
		seed,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "new: could not create "+
			"behaviour policy")
	}

	// Create the target network which provides the update target
	targetNet, err := behaviourPolicy.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, errors.WithMessage(err, "new: could not create "+
			"target network")
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	var onlineNextNet network.NeuralNet
	var onlineNextNetVM G.VM
	if target.RequiresOnline() {
		onlineNextNet, err = behaviourPolicy.Network().CloneWithBatch(
			batchSize)
		if err != nil {
			return nil, errors.WithMessage(err, "new: could not create "+
				"next state online network")
		}
		onlineNextNetVM = G.NewTapeMachine(onlineNextNet.Graph())
	}

	// Create a training network which learns the weights
	trainNet, err := behaviourPolicy.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, errors.WithMessage(err, "new: could not create "+
			"learning network")
	}
	gTrain := trainNet.Graph()

	// Action selected in the previous state as a one-hot vector. This
	// is needed to compute the loss using the correct action value since
	// the network outputs N action values, one for each action
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
		G.WithInit(G.Zeroes()),
	)
	updateTargets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithName("updateTarget"),
		G.WithShape(batchSize),
		G.WithInit(G.Zeroes()),
	)

	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Compute the Mean Squarred TD error
	losses := G.Must(G.Sub(updateTargets, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))
	lossVal := new(G.Value)
	G.Read(cost, lossVal)

	// Compute the gradient with respect to the Mean Squarred TD error
	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "new: could not compute gradient")
	}

	// Compile the trainNet graph into a VM
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	// Each agent adapts its own copy of the solver so that agents
	// created from the same Config do not share solver state
	s, err := config.Solver.Clone()
	if err != nil {
		return nil, errors.WithMessage(err, "new: could not create solver")
	}
	var scheduler *solver.Scheduler
	if config.Scheduler != nil {
		scheduler, err = config.Scheduler.Create(s)
		if err != nil {
			return nil, errors.WithMessage(err, "new: could not create "+
				"learning rate scheduler")
		}
	}

	return &DeepQ{
		behaviourPolicy:      behaviourPolicy,
		epsilon:              epsilon,
		trainNet:             trainNet,
		trainNetVM:           trainNetVM,
		solver:               s,
		scheduler:            scheduler,
		targetNet:            targetNet,
		targetNetVM:          targetNetVM,
		onlineNextNet:        onlineNextNet,
		onlineNextNetVM:      onlineNextNetVM,
		target:               target,
		selectedActions:      selectedActions,
		updateTargets:        updateTargets,
		lossVal:              lossVal,
		tau:                  config.Tau,
		discount:             config.DiscountFactor,
		targetUpdateInterval: config.TargetUpdateInterval,
		gradientSteps:        config.GradientSteps,
		randomTimesteps:      config.RandomTimesteps,
		learningStarts:       config.LearningStarts,
		updateInterval:       config.UpdateInterval,
		replay:               replay,
		numActions:           numActions,
		batchSize:            batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		logger.Warn("observeFirst: should only be called on the first "+
			"timestep", "timestep", t.Number)
	}
	if t.Observation == nil {
		return errors.New("observeFirst: timestep has no observation")
	}
	d.step = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep. The transition from the previously observed timestep to
// nextStep is added to the replay buffer.
func (d *DeepQ) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if d.step.Observation == nil {
		return errors.New("observe: must call ObserveFirst before Observe")
	}
	if action.Len() != 1 {
		return errors.Errorf("observe: actions must be 1-dimensional"+
			"\n\twant(1)\n\thave(%v)", action.Len())
	}
	if a := int(action.AtVec(0)); a < 0 || a >= d.numActions ||
		float64(a) != action.AtVec(0) {
		return errors.Errorf("observe: illegal action %v", action.AtVec(0))
	}

	transition := ts.NewTransition(d.step,
		mat.VecDenseCopyOf(action), nextStep)
	if err := d.replay.Add(transition); err != nil {
		return errors.WithMessage(err, "observe")
	}

	d.step = nextStep
	return nil
}

// Step is called once after each environmental step and updates the
// weights of the agent once every UpdateInterval timesteps after
// LearningStarts timesteps.
func (d *DeepQ) Step() error {
	if d.timestep < d.learningStarts || d.timestep%d.updateInterval != 0 {
		return nil
	}

	loss, updated, err := d.Update()
	if err != nil {
		return errors.WithMessage(err, "step")
	}
	if updated {
		logger.Debug("update", "loss", loss, "epsilon", d.Epsilon(),
			"timestep", d.timestep)
	}
	return nil
}

// Update performs GradientSteps gradient steps, each on a batch newly
// sampled from the replay buffer. Update returns the mean loss over the
// gradient steps and whether any update was performed. If the replay
// buffer holds fewer samples than its minimum capacity, no update is
// performed and Update returns (0, false, nil).
func (d *DeepQ) Update() (float64, bool, error) {
	if d.replay.Len() == 0 || d.replay.Len() < d.replay.MinCapacity() {
		return 0, false, nil
	}

	totalLoss := 0.0
	for i := 0; i < d.gradientSteps; i++ {
		batch, err := d.replay.Sample()
		if expreplay.IsEmptyBuffer(err) ||
			expreplay.IsInsufficientSamples(err) {
			return 0, false, nil
		} else if err != nil {
			return 0, false, errors.WithMessage(err, "update")
		}

		loss, err := d.gradientStep(batch)
		if err != nil {
			return 0, false, errors.WithMessage(err, "update")
		}
		totalLoss += loss
	}

	if err := d.behaviourPolicy.Network().Set(d.trainNet); err != nil {
		return 0, false, errors.WithMessage(err, "update: could not set "+
			"behaviour policy")
	}

	return totalLoss / float64(d.gradientSteps), true, nil
}

// gradientStep performs a single gradient step on a batch and returns
// the loss on the batch before the step
func (d *DeepQ) gradientStep(batch expreplay.Batch) (float64, error) {
	if batch.Size != d.batchSize || batch.ActionDims != 1 {
		return 0, errors.Errorf("gradientStep: malformed batch of shape "+
			"(%v, %v)\n\twant(%v, 1)", batch.Size, batch.ActionDims,
			d.batchSize)
	}

	// Compute the next state-action values, with no gradient
	targetValues, err := predict(d.targetNet, d.targetNetVM,
		batch.NextState)
	if err != nil {
		return 0, errors.WithMessage(err, "gradientStep: could not "+
			"predict target values")
	}

	var onlineValues *mat.Dense
	if d.target.RequiresOnline() {
		if err := d.onlineNextNet.Set(d.trainNet); err != nil {
			return 0, errors.WithMessage(err, "gradientStep")
		}
		onlineValues, err = predict(d.onlineNextNet, d.onlineNextNetVM,
			batch.NextState)
		if err != nil {
			return 0, errors.WithMessage(err, "gradientStep: could not "+
				"predict online values")
		}
	}

	bootstrap := d.target.Bootstrap(targetValues, onlineValues)
	targets := Targets(batch.Reward, batch.Done, bootstrap, d.discount)
	if err := G.Let(d.updateTargets, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(targets),
	)); err != nil {
		return 0, errors.Wrap(err, "gradientStep: could not set update "+
			"targets")
	}

	// Previous action one-hot vectors
	oneHot := make([]float64, d.batchSize*d.numActions)
	for i, a := range batch.Action {
		action := int(a)
		if action < 0 || action >= d.numActions {
			return 0, errors.Errorf("gradientStep: illegal action %v in "+
				"batch", a)
		}
		oneHot[i*d.numActions+action] = 1.0
	}
	if err := G.Let(d.selectedActions, tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(oneHot),
	)); err != nil {
		return 0, errors.Wrap(err, "gradientStep: could not set actions")
	}

	if err := d.trainNet.SetInput(batch.State); err != nil {
		return 0, errors.WithMessage(err, "gradientStep")
	}

	// Run the learning step
	defer d.trainNetVM.Reset()
	if err := d.trainNetVM.RunAll(); err != nil {
		return 0, errors.Wrap(err, "gradientStep: could not run network")
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return 0, errors.Wrap(err, "gradientStep: could not step solver")
	}
	loss := (*d.lossVal).Data().(float64)
	d.updates++

	// Move the target network towards the newly learned weights
	if d.updates%d.targetUpdateInterval == 0 {
		if err := d.targetNet.Polyak(d.trainNet, d.tau); err != nil {
			return 0, errors.WithMessage(err, "gradientStep: could not "+
				"update target network")
		}
	}

	if d.scheduler != nil {
		if err := d.scheduler.Step(); err != nil {
			return 0, errors.WithMessage(err, "gradientStep")
		}
	}

	return loss, nil
}

// predict runs a network on an input and returns the predicted action
// values, one row per input
func predict(net network.NeuralNet, vm G.VM, input []float64) (*mat.Dense,
	error) {
	if err := net.SetInput(input); err != nil {
		return nil, err
	}

	defer vm.Reset()
	if err := vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "could not run network")
	}

	data := append([]float64(nil), net.Output().Data().([]float64)...)
	return mat.NewDense(net.BatchSize(), net.Outputs(), data), nil
}

// SelectAction returns an action selected by the behaviour policy.
// In training mode, each call advances the timestep counter and
// epsilon is decayed with the timestep. In evaluation mode actions
// are selected greedily and the timestep counter is not advanced.
func (d *DeepQ) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	if d.eval {
		action, err := d.behaviourPolicy.SelectAction(t)
		return action, errors.WithMessage(err, "selectAction")
	}

	timestep := d.timestep
	d.timestep++

	if timestep < d.randomTimesteps {
		return d.behaviourPolicy.RandomAction(), nil
	}

	d.behaviourPolicy.SetEpsilon(d.epsilon.At(timestep))
	action, err := d.behaviourPolicy.SelectAction(t)
	return action, errors.WithMessage(err, "selectAction")
}

// TdError calculates the TD error generated by the learner on some
// transition, using the online network for both the action value and
// the bootstrapped value of the next state:
//
//	δ = r + γ * (1 - done) * max Q(s', ·) - Q(s, a)
func (d *DeepQ) TdError(t ts.Transition) (float64, error) {
	values, err := d.behaviourPolicy.ActionValues(t.State.RawVector().Data)
	if err != nil {
		return 0, errors.WithMessage(err, "tdError")
	}

	action := int(t.Action.AtVec(0))
	if action < 0 || action >= d.numActions {
		return 0, errors.Errorf("tdError: illegal action %v",
			t.Action.AtVec(0))
	}
	actionValue := values.At(0, action)

	nextValues, err := d.behaviourPolicy.ActionValues(
		t.NextState.RawVector().Data)
	if err != nil {
		return 0, errors.WithMessage(err, "tdError")
	}
	bootstrap := dqnTarget{}.Bootstrap(nextValues, nil)

	target := Targets([]float64{t.Reward}, []float64{t.Terminal()},
		bootstrap, d.discount)[0]
	return target - actionValue, nil
}

// Epsilon returns the epsilon of the behaviour policy used at the next
// training mode action selection
func (d *DeepQ) Epsilon() float64 {
	return d.epsilon.At(d.timestep)
}

// Timestep returns the number of actions selected in training mode
func (d *DeepQ) Timestep() int {
	return d.timestep
}

// Policy returns the behaviour policy of the agent
func (d *DeepQ) Policy() *policy.MultiHeadEGreedyMLP {
	return d.behaviourPolicy
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
	d.behaviourPolicy.Eval()
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
	d.behaviourPolicy.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

// EndEpisode performs cleanup at the end of an episode
func (d *DeepQ) EndEpisode() {
	d.step = ts.TimeStep{}
}

// Close closes the VMs of the agent
func (d *DeepQ) Close() error {
	var firstErr error
	for _, vm := range []G.VM{d.trainNetVM, d.targetNetVM,
		d.onlineNextNetVM} {
		if vm == nil {
			continue
		}
		if err := vm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := d.behaviourPolicy.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return errors.Wrap(firstErr, "close")
}
