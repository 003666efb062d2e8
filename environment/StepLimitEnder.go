package environment

import "github.com/samuelfneumann/deepq/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits. Episodes ended by a StepLimit are timeouts, not
// terminal.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) *StepLimit {
	return &StepLimit{episodeSteps}
}

// End reports whether the current episode has reached the step limit.
// If so, t is marked as the last step with a Timeout EndType.
func (s *StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		t.SetEnd(timestep.Timeout)
		return true
	}
	return false
}

// EpisodeSteps returns the maximum number of steps in an episode
func (s *StepLimit) EpisodeSteps() int {
	return s.episodeSteps
}
