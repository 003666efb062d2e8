package solver

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// SchedulerType describes the learning rate schedules available
type SchedulerType string

// Available learning rate schedules
const (
	// StepDecay multiplies the learning rate by Gamma every StepSize
	// steps
	StepDecay SchedulerType = "Step"

	// ExponentialDecay multiplies the learning rate by Gamma every step
	ExponentialDecay SchedulerType = "Exponential"

	// LinearDecay linearly interpolates the learning rate from its
	// initial value to FinalFactor times its initial value over
	// StepSize steps, after which it stays constant
	LinearDecay SchedulerType = "Linear"
)

// SchedulerConfig describes a learning rate schedule. Only the fields
// relevant to Type are used.
type SchedulerConfig struct {
	Type        SchedulerType
	StepSize    int
	Gamma       float64
	FinalFactor float64
}

// NewStepScheduler returns a config that multiplies the learning rate
// by gamma every stepSize steps
func NewStepScheduler(stepSize int, gamma float64) SchedulerConfig {
	return SchedulerConfig{Type: StepDecay, StepSize: stepSize, Gamma: gamma}
}

// NewExponentialScheduler returns a config that multiplies the
// learning rate by gamma every step
func NewExponentialScheduler(gamma float64) SchedulerConfig {
	return SchedulerConfig{Type: ExponentialDecay, Gamma: gamma}
}

// NewLinearScheduler returns a config that linearly decays the
// learning rate to finalFactor times its initial value over steps steps
func NewLinearScheduler(steps int, finalFactor float64) SchedulerConfig {
	return SchedulerConfig{Type: LinearDecay, StepSize: steps,
		FinalFactor: finalFactor}
}

// Validate returns an error if the config is invalid
func (c SchedulerConfig) Validate() error {
	switch c.Type {
	case StepDecay:
		if c.StepSize < 1 {
			return errors.Errorf("validate: step size must be positive, "+
				"have(%v)", c.StepSize)
		}
		fallthrough

	case ExponentialDecay:
		if c.Gamma <= 0 || c.Gamma > 1 {
			return errors.Errorf("validate: gamma must be in (0, 1], "+
				"have(%v)", c.Gamma)
		}

	case LinearDecay:
		if c.StepSize < 1 {
			return errors.Errorf("validate: step size must be positive, "+
				"have(%v)", c.StepSize)
		}
		if c.FinalFactor <= 0 {
			return errors.Errorf("validate: final factor must be "+
				"positive, have(%v)", c.FinalFactor)
		}

	default:
		return errors.Errorf("validate: no such scheduler type %q", c.Type)
	}
	return nil
}

// Create returns a Scheduler which adjusts the learning rate of s
func (c SchedulerConfig) Create(s *Solver) (*Scheduler, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.WithMessage(err, "create")
	}
	if s == nil {
		return nil, errors.New("create: cannot schedule a nil solver")
	}

	return &Scheduler{
		config:      c,
		solver:      s,
		initialRate: s.LearningRate(),
	}, nil
}

func (c SchedulerConfig) String() string {
	data, _ := json.Marshal(c)
	return string(data)
}

// Scheduler adjusts the learning rate of a Solver as a function of the
// number of times Step has been called.
type Scheduler struct {
	config      SchedulerConfig
	solver      *Solver
	initialRate float64
	steps       int
}

// Step advances the schedule by one step and updates the learning rate
// of the scheduled Solver
func (s *Scheduler) Step() error {
	s.steps++
	if err := s.solver.SetLearningRate(s.LearningRate()); err != nil {
		return errors.WithMessage(err, "step")
	}
	return nil
}

// Steps returns the number of steps taken by the Scheduler
func (s *Scheduler) Steps() int {
	return s.steps
}

// LearningRate returns the learning rate for the current step
func (s *Scheduler) LearningRate() float64 {
	switch s.config.Type {
	case StepDecay:
		decays := s.steps / s.config.StepSize
		return s.initialRate * math.Pow(s.config.Gamma, float64(decays))

	case ExponentialDecay:
		return s.initialRate * math.Pow(s.config.Gamma, float64(s.steps))

	case LinearDecay:
		frac := math.Min(float64(s.steps)/float64(s.config.StepSize), 1.0)
		factor := 1.0 + frac*(s.config.FinalFactor-1.0)
		return s.initialRate * factor
	}
	panic(fmt.Sprintf("learningRate: no such scheduler type %v",
		s.config.Type))
}
