package tracker

import (
	"github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/timestep"
)

// registeredTracker registers an Environment with some Tracker so
// that the Tracker tracks data from the registered Environment only.
// The argument to Track is ignored and the most recent TimeStep of the
// registered Environment is tracked instead.
//
// This is useful when an experiment runs on an Environment wrapper but
// the data of the wrapped Environment should be tracked, for example
// the raw Observations under a wrappers.OneHot.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register registers a new Tracker with an Environment, to track data
// from the registered Environment only.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering an Environment with a Tracker.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track() on the embedded Tracker using the most recent
// TimeStep from the registered Environment.
func (r *registeredTracker) Track(timestep.TimeStep) {
	r.Tracker.Track(r.env.CurrentTimeStep())
}

// Data returns the data of the embedded Tracker, or nil if it does not
// report its data
func (r *registeredTracker) Data() []float64 {
	if d, ok := r.Tracker.(Data); ok {
		return d.Data()
	}
	return nil
}
