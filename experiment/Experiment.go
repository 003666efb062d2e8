// Package experiment implements functionality for running an experiment
package experiment

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent"
	"github.com/samuelfneumann/deepq/environment/envconfig"
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/tracker"
)

var logger = slog.Default()

// SetLogger sets the logger used by the package
func SetLogger(l *slog.Logger) {
	logger = l
}

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to their Trackers, which cache the
// data in RAM until Save is called. Run runs episodes until the
// maximum timestep limit is reached, and RunEpisode runs a single
// episode.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error) // Returns whether the step limit was reached

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}

// Type is the type of an Experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment. AgentConf holds
// a list of agent configurations, of which a single one is run by
// each Experiment created from the Config.
type Config struct {
	Type
	MaxSteps  uint
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfigList
}

// Validate returns an error describing the first invalid field of the
// Config, if any
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return errors.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.MaxSteps == 0 {
		return errors.New("validate: experiment must run for at least " +
			"one step")
	}
	if c.AgentConf.ConfigList == nil {
		return errors.New("validate: no agent configurations")
	}
	if c.AgentConf.Len() == 0 {
		return errors.New("validate: empty agent configuration list")
	}
	return nil
}

// CreateExp creates the Experiment which runs the agent configuration
// at index i of the Config's agent configuration list. The returned
// Agent should be closed by the caller once the Experiment is finished.
func (c Config) CreateExp(i int, seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (Experiment, agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, errors.WithMessage(err, "createExp")
	}

	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "createExp")
	}

	agentConf, err := c.AgentConf.At(i)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "createExp")
	}
	a, err := agentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "createExp: could not create agent")
	}

	return NewOnline(env, a, c.MaxSteps, t, check), a, nil
}
