// Package wrappers implements environment wrappers which alter the
// observations of the environments they wrap
package wrappers

import (
	"fmt"

	"github.com/pkg/errors"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/spec"
	ts "github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// OneHot converts the Discrete observations of an environment into
// one-hot vectors. An observation with value i in {0, 1, ..., n-1}
// becomes a vector of n features with feature i set to 1. Dict
// observations of Discrete fields have each field one-hot encoded, the
// encodings being concatenated in the order the fields are flattened.
//
// OneHot itself implements the environment.Environment interface.
type OneHot struct {
	env.Environment
	obsSpec  spec.Environment
	sizes    []int
	features int

	currentTimeStep ts.TimeStep
}

// NewOneHot returns a new OneHot environment wrapper
func NewOneHot(e env.Environment) (*OneHot, ts.TimeStep, error) {
	obsSpec := e.ObservationSpec()

	var sizes []int
	switch obsSpec.Cardinality {
	case spec.Discrete:
		n, err := discreteSize(obsSpec)
		if err != nil {
			return nil, ts.TimeStep{}, errors.WithMessage(err, "newOneHot")
		}
		sizes = []int{n}

	case spec.Dict:
		for _, key := range obsSpec.Keys() {
			field := obsSpec.Fields[key]
			if field.Cardinality != spec.Discrete {
				return nil, ts.TimeStep{}, errors.Errorf("newOneHot: cannot "+
					"one-hot encode %v field %q", field.Cardinality, key)
			}
			n, err := discreteSize(field)
			if err != nil {
				return nil, ts.TimeStep{}, errors.WithMessagef(err,
					"newOneHot: field %q", key)
			}
			sizes = append(sizes, n)
		}

	default:
		return nil, ts.TimeStep{}, errors.Errorf("newOneHot: cannot one-hot "+
			"encode %v observations", obsSpec.Cardinality)
	}

	features := 0
	for _, n := range sizes {
		features += n
	}

	o := &OneHot{
		Environment: e,
		obsSpec:     obsSpec,
		sizes:       sizes,
		features:    features,
	}

	step, err := o.convert(e.CurrentTimeStep())
	if err != nil {
		return nil, ts.TimeStep{}, errors.WithMessage(err, "newOneHot")
	}
	o.currentTimeStep = step

	return o, step, nil
}

// discreteSize returns the number of values in a Discrete space
func discreteSize(s spec.Environment) (int, error) {
	if s.Shape.Len() != 1 {
		return 0, errors.Errorf("observations must be 1-dimensional"+
			"\n\twant(1)\n\thave(%v)", s.Shape.Len())
	}
	if s.LowerBound.AtVec(0) != 0 {
		return 0, errors.New("observations must be enumerated starting " +
			"from 0")
	}
	return int(s.UpperBound.AtVec(0)) + 1, nil
}

// Reset resets the environment to some starting state
func (o *OneHot) Reset() ts.TimeStep {
	step, err := o.convert(o.Environment.Reset())
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	o.currentTimeStep = step
	return step
}

// Step takes one environmental step given some action
func (o *OneHot) Step(action *mat.VecDense) (ts.TimeStep, bool) {
	step, last := o.Environment.Step(action)

	step, err := o.convert(step)
	if err != nil {
		panic(fmt.Sprintf("step: %v", err))
	}

	o.currentTimeStep = step
	return step, last
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (o *OneHot) CurrentTimeStep() ts.TimeStep {
	return o.currentTimeStep
}

// ObservationSpec returns the observation specification of the
// environment, a Box of one-hot vectors
func (o *OneHot) ObservationSpec() spec.Environment {
	lower := make([]float64, o.features)
	upper := make([]float64, o.features)
	for i := range upper {
		upper[i] = 1.0
	}
	return spec.NewBox(spec.Observation, lower, upper)
}

func (o *OneHot) String() string {
	return fmt.Sprintf("OneHot(%v)", o.Environment)
}

// convert returns a copy of step with a one-hot encoded observation
func (o *OneHot) convert(step ts.TimeStep) (ts.TimeStep, error) {
	if !o.obsSpec.Contains(step.Observation) {
		return ts.TimeStep{}, errors.Errorf("observation %v ∉ %v space",
			mat.Formatted(step.Observation.T()), o.obsSpec.Cardinality)
	}

	obs := mat.NewVecDense(o.features, nil)
	offset := 0
	for i, n := range o.sizes {
		obs.SetVec(offset+int(step.Observation.AtVec(i)), 1.0)
		offset += n
	}
	step.Observation = obs
	return step, nil
}
