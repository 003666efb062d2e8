// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be JSON serialized into configuration files. The
// learning rate of a Solver can be adjusted during training, usually by
// a Scheduler.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// configTypes maps each solver Type to the Config type describing it
var configTypes = map[Type]reflect.Type{
	Adam:    reflect.TypeOf(AdamConfig{}),
	Vanilla: reflect.TypeOf(VanillaConfig{}),
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the Config is invalid
	Validate() error

	// LearningRate returns the learning rate of the configured solver
	LearningRate() float64

	// WithLearningRate returns a copy of the Config with the learning
	// rate replaced
	WithLearningRate(float64) Config
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, errors.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "newSolver: invalid %v "+
			"configuration", t)
	}

	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// SetLearningRate sets the learning rate of the Solver in place. The
// state accumulated by the wrapped solver, such as the moment estimates
// of Adam, is kept.
func (s *Solver) SetLearningRate(lr float64) error {
	if lr == s.LearningRate() {
		return nil
	}

	config := s.Config.WithLearningRate(lr)
	if err := config.Validate(); err != nil {
		return errors.WithMessage(err, "setLearningRate")
	}

	s.Config = config
	G.WithLearnRate(lr)(s.Solver)
	return nil
}

// Clone returns a new Solver with the same configuration. The clone
// does not share any solver state, such as moment estimates, with s.
func (s *Solver) Clone() (*Solver, error) {
	clone, err := newSolver(s.Type, s.Config)
	if err != nil {
		return nil, errors.WithMessage(err, "clone")
	}
	return clone, nil
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type, s.Config)
}

// MarshalJSON implements the json.Marshaler interface
func (s *Solver) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Type
		Config Config
	}{s.Type, s.Config})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "unmarshalJSON")
	}

	ty, ok := configTypes[raw.Type]
	if !ok {
		return errors.Errorf("unmarshalJSON: no such solver type %q",
			raw.Type)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
		return errors.Wrapf(err, "unmarshalJSON: could not unmarshal %v "+
			"config", raw.Type)
	}

	solver, err := newSolver(raw.Type, value.Elem().Interface().(Config))
	if err != nil {
		return errors.WithMessage(err, "unmarshalJSON")
	}

	*s = *solver
	return nil
}

// validateCommon validates the hyperparameters all solvers share
func validateCommon(stepSize float64, batch int) error {
	if stepSize <= 0 {
		return errors.Errorf("step size must be positive, have(%v)",
			stepSize)
	}
	if batch < 1 {
		return errors.Errorf("batch size must be positive, have(%v)", batch)
	}
	return nil
}
