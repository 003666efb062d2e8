package environment

import (
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in a feature vector leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
	endType   timestep.EndType
}

// NewIntervalLimit creates and returns a new interval limit, where
// feature obsIndices[i] must stay within limits[i]. The endType argument
// determines what the episode end should be considered as.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int,
	endType timestep.EndType) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic("limits should have same length as observation indices")
	}

	return &IntervalLimit{limits, obsIndices, endType}
}

// End reports whether any tracked feature has left its interval. If so,
// t is marked as the last step with the limit's EndType.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for index, feature := range i.indices {
		interval := i.intervals[index]
		value := t.Observation.AtVec(feature)

		if value > interval.Max || value < interval.Min {
			t.StepType = timestep.Last
			t.SetEnd(i.endType)
			return true
		}
	}
	return false
}
