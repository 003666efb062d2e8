// Package spec implements specifications of the spaces that actions,
// observations, and rewards of an environment live in.
//
// Three kinds of space are supported. A Discrete space holds a single
// integer in [LowerBound, UpperBound]. A Continuous (Box) space holds a
// real vector bounded element-wise by LowerBound and UpperBound. A Dict
// space is a structured space composed of named sub-spaces. Dict
// observations are flattened into a single vector by concatenating each
// sub-space in sorted key order.
package spec

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	default:
		return "Reward"
	}
}

// Cardinality determines the cardinality of a space
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
	Dict       Cardinality = "Dict"
)

// Environment implements a specification, which tells the type, shape,
// and bounds of an action, observation, or reward in an environment
type Environment struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality

	// Fields holds the sub-spaces of a Dict space and is nil otherwise
	Fields map[string]Environment
}

// NewEnvironment constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// argument describes whether the values that the spec describes are
// continuous or discrete.
func NewEnvironment(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Environment {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	if cardinality == Dict {
		panic("use NewDict to construct Dict specifications")
	}
	return Environment{
		Shape:       shape,
		Type:        t,
		LowerBound:  lowerBound,
		UpperBound:  upperBound,
		Cardinality: cardinality,
	}
}

// NewDiscrete returns the specification of a single discrete value in
// {0, 1, ..., n-1}
func NewDiscrete(t SpecType, n int) Environment {
	if n < 1 {
		panic(fmt.Sprintf("discrete space must have at least 1 element, "+
			"have(%v)", n))
	}
	return NewEnvironment(
		mat.NewVecDense(1, nil),
		t,
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(n - 1)}),
		Discrete,
	)
}

// NewBox returns the specification of a bounded continuous vector space
func NewBox(t SpecType, lower, upper []float64) Environment {
	if len(lower) != len(upper) {
		panic(fmt.Sprintf("lower bound length %v must match upper "+
			"bound length %v", len(lower), len(upper)))
	}
	return NewEnvironment(
		mat.NewVecDense(len(lower), nil),
		t,
		mat.NewVecDense(len(lower), lower),
		mat.NewVecDense(len(upper), upper),
		Continuous,
	)
}

// NewDict returns the specification of a structured space composed of
// the named sub-spaces in fields.
func NewDict(t SpecType, fields map[string]Environment) Environment {
	if len(fields) == 0 {
		panic("dict space must have at least one field")
	}

	copied := make(map[string]Environment, len(fields))
	features := 0
	for key, field := range fields {
		copied[key] = field
		features += field.Features()
	}

	return Environment{
		Shape:       mat.NewVecDense(features, nil),
		Type:        t,
		Cardinality: Dict,
		Fields:      copied,
	}
}

// Features returns the number of features in a flattened element of the
// space.
func (e Environment) Features() int {
	if e.Cardinality != Dict {
		return e.Shape.Len()
	}

	features := 0
	for _, field := range e.Fields {
		features += field.Features()
	}
	return features
}

// Keys returns the keys of a Dict space in the order in which they are
// flattened. Keys returns nil for non-Dict spaces.
func (e Environment) Keys() []string {
	if e.Cardinality != Dict {
		return nil
	}

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NumActions returns the number of actions in a Discrete action space.
// Actions must be 1-dimensional and enumerated from 0.
func (e Environment) NumActions() (int, error) {
	if e.Cardinality != Discrete {
		return 0, errors.Errorf("numActions: cannot use %v actions",
			e.Cardinality)
	}
	if e.Shape.Len() != 1 {
		return 0, errors.Errorf("numActions: actions must be 1-dimensional"+
			"\n\twant(1)\n\thave(%v)", e.Shape.Len())
	}
	if e.LowerBound.AtVec(0) != 0.0 {
		return 0, errors.New("numActions: actions must be enumerated " +
			"starting from 0")
	}
	return int(e.UpperBound.AtVec(0)) + 1, nil
}

// Contains returns whether a flattened vector is an element of the space
func (e Environment) Contains(v mat.Vector) bool {
	if v.Len() != e.Features() {
		return false
	}

	if e.Cardinality == Dict {
		offset := 0
		for _, key := range e.Keys() {
			field := e.Fields[key]
			n := field.Features()
			sub := mat.NewVecDense(n, nil)
			for i := 0; i < n; i++ {
				sub.SetVec(i, v.AtVec(offset+i))
			}
			if !field.Contains(sub) {
				return false
			}
			offset += n
		}
		return true
	}

	for i := 0; i < v.Len(); i++ {
		value := v.AtVec(i)
		if value < e.LowerBound.AtVec(i) || value > e.UpperBound.AtVec(i) {
			return false
		}
		if e.Cardinality == Discrete && value != math.Trunc(value) {
			return false
		}
	}
	return true
}

// Flatten flattens a structured observation of a Dict space into a
// single vector by concatenating each field in sorted key order.
func Flatten(e Environment, obs map[string]*mat.VecDense) (*mat.VecDense,
	error) {
	if e.Cardinality != Dict {
		return nil, errors.Errorf("flatten: cannot flatten %v space",
			e.Cardinality)
	}
	if len(obs) != len(e.Fields) {
		return nil, errors.Errorf("flatten: invalid number of fields"+
			"\n\twant(%v)\n\thave(%v)", len(e.Fields), len(obs))
	}

	data := make([]float64, 0, e.Features())
	for _, key := range e.Keys() {
		value, ok := obs[key]
		if !ok {
			return nil, errors.Errorf("flatten: missing field %q", key)
		}
		if want := e.Fields[key].Features(); value.Len() != want {
			return nil, errors.Errorf("flatten: invalid size for field %q"+
				"\n\twant(%v)\n\thave(%v)", key, want, value.Len())
		}
		for i := 0; i < value.Len(); i++ {
			data = append(data, value.AtVec(i))
		}
	}

	return mat.NewVecDense(len(data), data), nil
}
