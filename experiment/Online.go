package experiment

import (
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/tracker"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      uint
	currentSteps  uint
	episodes      int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, the t parameter determines
// what data is tracked, and the c parameter determines what is
// checkpointed after each timestep.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:   e,
		Agent:         a,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
	}
}

// SetProgressBar sets a progress bar which is incremented on each
// timestep of the experiment. A nil progress bar disables progress
// display.
func (o *Online) SetProgressBar(p *progressbar.ManualProgressBar) {
	o.progress = p
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RegisterCheckpointer registers a checkpointer.Checkpointer which is
// passed each TimeStep of the experiment after the agent has stepped
func (o *Online) RegisterCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step := o.Environment.Reset()
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, errors.WithMessage(err, "runEpisode")
	}
	o.track(step)

	episodeReturn := 0.0
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action, err := o.Agent.SelectAction(step)
		if err != nil {
			return false, errors.WithMessage(err, "runEpisode")
		}
		step, _ = o.Environment.Step(action)
		episodeReturn += step.Reward
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return false, errors.WithMessage(err, "runEpisode")
		}
		if err := o.Agent.Step(); err != nil {
			return false, errors.WithMessage(err, "runEpisode")
		}

		if err := o.checkpoint(step); err != nil {
			return false, errors.WithMessage(err, "runEpisode")
		}

		if o.progress != nil {
			o.progress.Increment()
			o.progress.Display()
		}
	}
	o.Agent.EndEpisode()

	if step.Last() {
		o.episodes++
		logger.Debug("episode finished", "episode", o.episodes,
			"return", episodeReturn, "length", step.Number,
			"end", step.EndType(), "steps", o.currentSteps)
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return errors.WithMessage(err, "run")
		}
		if ended {
			break
		}
	}

	if o.progress != nil {
		o.progress.Close()
	}
	logger.Info("experiment finished", "steps", o.currentSteps,
		"episodes", o.episodes)
	return nil
}

// Steps returns the number of timesteps run so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// Episodes returns the number of episodes finished so far
func (o *Online) Episodes() int {
	return o.episodes
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return errors.WithMessage(err, "save")
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// checkpoint passes the current timestep to each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}
