package deepq

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/expreplay"
	"github.com/samuelfneumann/deepq/initwfn"
	"github.com/samuelfneumann/deepq/network"
	"github.com/samuelfneumann/deepq/solver"
	"github.com/samuelfneumann/deepq/utils/intutils"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.EGreedyDeepQMLP, ConfigList{})
}

// ConfigList implements a list of Config's in a more efficient manner
// than simply using a slice of Config's. Each field holds the values
// swept over for the Config field of the same name.
type ConfigList struct {
	PolicyLayers [][]int                 // Layer sizes in neural net
	Biases       [][]bool                // Whether each layer should have a bias
	Activations  [][]*network.Activation // Activation of each layer
	InitWFn      []*initwfn.InitWFn      // Weight initialization
	Solver       []*solver.Solver        // Solver for learning weights

	// Learning rate schedules, nil for a constant learning rate
	Scheduler []*solver.SchedulerConfig

	// Behaviour policy epsilon decay
	InitialEpsilon   []float64
	FinalEpsilon     []float64
	EpsilonTimesteps []int

	// Update schedule
	RandomTimesteps []int
	LearningStarts  []int
	UpdateInterval  []int
	GradientSteps   []int

	// Experience replay parameters
	ExpReplay []expreplay.Config

	DiscountFactor []float64

	// Target net updates
	Tau                  []float64    // Polyak averaging constant
	TargetUpdateInterval []int        // Gradient steps between updates
	Target               []TargetType // Bootstrapping strategy
}

// NewConfigList returns a new ConfigList as an agent.TypedConfigList.
// Because the returned value is a TypedList, it can safely be JSON
// serialized and deserialized without specifying what the type of
// the ConfigList is.
func NewConfigList(configs ConfigList) agent.TypedConfigList {
	return agent.NewTypedConfigList(configs)
}

// NewConfigListFrom returns a ConfigList holding only the argument
// Config
func NewConfigListFrom(c Config) ConfigList {
	list := ConfigList{}
	listValue := reflect.ValueOf(&list).Elem()
	configValue := reflect.ValueOf(c)

	for i := 0; i < listValue.NumField(); i++ {
		field := listValue.Field(i)
		value := configValue.FieldByName(listValue.Type().Field(i).Name)
		slice := reflect.MakeSlice(field.Type(), 1, 1)
		slice.Index(0).Set(value)
		field.Set(slice)
	}
	return list
}

// Type returns the type of Config stored in the list
func (c ConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields returns the number of settable fields in a Config
func (c ConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config of the same type as that stored
// by the ConfigList
func (c ConfigList) Config() agent.Config {
	return Config{}
}

// Len returns the number of Config's in the list
func (c ConfigList) Len() int {
	rValue := reflect.ValueOf(c)
	lens := make([]int, rValue.NumField())
	for i := range lens {
		lens[i] = rValue.Field(i).Len()
	}
	return intutils.Prod(lens...)
}

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	InitWFn      *initwfn.InitWFn      // Weight initialization
	Solver       *solver.Solver        // Solver for learning weights

	// Scheduler is the learning rate schedule of the Solver, advanced
	// once per gradient step. A nil Scheduler keeps the learning rate
	// constant.
	Scheduler *solver.SchedulerConfig

	// Behaviour policy epsilon decays exponentially from InitialEpsilon
	// to FinalEpsilon with time constant EpsilonTimesteps
	InitialEpsilon   float64
	FinalEpsilon     float64
	EpsilonTimesteps int

	// RandomTimesteps is the number of initial timesteps on which
	// actions are selected uniformly randomly
	RandomTimesteps int

	// LearningStarts is the number of timesteps before Step performs
	// any update
	LearningStarts int

	// UpdateInterval is the number of timesteps between updates
	UpdateInterval int

	// GradientSteps is the number of gradient steps per update
	GradientSteps int

	// Experience replay parameters, the sample size is the batch size
	ExpReplay expreplay.Config

	DiscountFactor float64

	// Target net updates
	Tau                  float64    // Polyak averaging constant
	TargetUpdateInterval int        // Gradient steps between updates
	Target               TargetType // Bootstrapping strategy
}

// DefaultConfig returns the default configuration of a DeepQ agent
func DefaultConfig() (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, errors.WithMessage(err, "defaultConfig")
	}

	// The loss is averaged over the batch, so the solver does not
	// rescale gradients by the batch size
	s, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		return Config{}, errors.WithMessage(err, "defaultConfig")
	}

	return Config{
		PolicyLayers: []int{64, 64},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:      init,
		Solver:       s,

		InitialEpsilon:   1.0,
		FinalEpsilon:     0.05,
		EpsilonTimesteps: 1000,

		RandomTimesteps: 0,
		LearningStarts:  0,
		UpdateInterval:  1,
		GradientSteps:   1,

		ExpReplay: expreplay.Config{
			RemoveMethod:      expreplay.Fifo,
			SampleMethod:      expreplay.Uniform,
			RemoveSize:        1,
			SampleSize:        64,
			MinReplayCapacity: 64,
			MaxReplayCapacity: 10000,
		},

		DiscountFactor:       0.99,
		Tau:                  0.005,
		TargetUpdateInterval: 10,
		Target:               DQN,
	}, nil
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.EGreedyDeepQMLP
}

// EpsilonSchedule returns the epsilon decay schedule of the behaviour
// policy
func (c Config) EpsilonSchedule() EpsilonSchedule {
	return EpsilonSchedule{
		Initial:   c.InitialEpsilon,
		Final:     c.FinalEpsilon,
		Timesteps: c.EpsilonTimesteps,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return errors.Errorf("validate: invalid number of biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return errors.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}
	if c.InitWFn == nil {
		return errors.New("validate: no weight initializer")
	}
	if c.Solver == nil {
		return errors.New("validate: no solver")
	}
	if c.Scheduler != nil {
		if err := c.Scheduler.Validate(); err != nil {
			return errors.WithMessage(err, "validate: invalid learning "+
				"rate schedule")
		}
	}

	if c.InitialEpsilon < 0 || c.InitialEpsilon > 1 {
		return errors.Errorf("validate: initial epsilon must be in [0, 1], "+
			"have(%v)", c.InitialEpsilon)
	}
	if c.FinalEpsilon < 0 || c.FinalEpsilon > 1 {
		return errors.Errorf("validate: final epsilon must be in [0, 1], "+
			"have(%v)", c.FinalEpsilon)
	}
	if c.EpsilonTimesteps <= 0 {
		return errors.Errorf("validate: epsilon timesteps must be "+
			"positive, have(%v)", c.EpsilonTimesteps)
	}

	if c.RandomTimesteps < 0 {
		return errors.Errorf("validate: random timesteps must be "+
			"non-negative, have(%v)", c.RandomTimesteps)
	}
	if c.LearningStarts < 0 {
		return errors.Errorf("validate: learning starts must be "+
			"non-negative, have(%v)", c.LearningStarts)
	}
	if c.UpdateInterval < 1 {
		return errors.Errorf("validate: update interval must be "+
			"positive, have(%v)", c.UpdateInterval)
	}
	if c.GradientSteps < 1 {
		return errors.Errorf("validate: gradient steps must be "+
			"positive, have(%v)", c.GradientSteps)
	}

	if err := c.ExpReplay.Validate(); err != nil {
		return errors.WithMessage(err, "validate: invalid experience "+
			"replay")
	}
	if c.ExpReplay.MinReplayCapacity < c.BatchSize() {
		return errors.Errorf("validate: minimum replay capacity (%v) must "+
			"be at least the batch size (%v)", c.ExpReplay.MinReplayCapacity,
			c.BatchSize())
	}

	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return errors.Errorf("validate: discount factor must be in [0, 1], "+
			"have(%v)", c.DiscountFactor)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return errors.Errorf("validate: tau must be in (0, 1], have(%v)",
			c.Tau)
	}
	if c.TargetUpdateInterval < 1 {
		return errors.Errorf("validate: target update interval must be "+
			"positive, have(%v)", c.TargetUpdateInterval)
	}
	if _, err := NewTarget(c.Target); err != nil {
		return errors.WithMessage(err, "validate")
	}

	return nil
}

// ValidAgent returns true if the argument agent can be constructed
// from the Config and false otherwise.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DeepQ)
	return ok
}

// CreateAgent creates a DeepQ agent
func (c Config) CreateAgent(e env.Environment,
	seed uint64) (agent.Agent, error) {
	return New(e, c, seed)
}
