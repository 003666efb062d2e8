package environment

import (
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// FunctionEnder ends an episode whenever a predicate on the observation
// of a TimeStep returns true.
type FunctionEnder struct {
	end     func(*mat.VecDense) bool
	endType timestep.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func(*mat.VecDense) bool,
	endType timestep.EndType) *FunctionEnder {
	return &FunctionEnder{f, endType}
}

// End reports whether the current episode should be ended. If so, t is
// marked as the last step with the ender's EndType.
func (f *FunctionEnder) End(t *timestep.TimeStep) bool {
	if f.end(t.Observation) {
		t.StepType = timestep.Last
		t.SetEnd(f.endType)
		return true
	}
	return false
}
