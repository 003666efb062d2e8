package agent

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the Type of agent the Config creates
	Type() Type
}

// ConfigList implements a list of Configs for hyperparameter sweeps.
// A ConfigList is a struct whose fields are slices; each field holds
// the values swept over for the Config field of the same name. The
// Configs in the list are the Cartesian product of these values.
type ConfigList interface {
	// Type returns the Type of the Configs in the list
	Type() Type

	// Config returns an empty Config of the type stored in the list
	Config() Config

	// Len returns the number of Configs in the list
	Len() int

	// NumFields returns the number of swept fields
	NumFields() int
}

// PolicyType represents a type of distribution that a policy could be
type PolicyType string

const (
	EGreedy PolicyType = "EGreedy"
)

// ConfigAt returns the Config at index i in the ConfigList. Indices
// wrap around, so that index i and i + list.Len() refer to the same
// Config; this lets i enumerate runs of each hyperparameter setting.
//
// The first field of the list varies fastest: for a list with fields
// A = [a0, a1] and B = [b0, b1], indices 0, 1, 2, 3 give (a0, b0),
// (a1, b0), (a0, b1), (a1, b1).
func ConfigAt(i int, list ConfigList) (Config, error) {
	if i < 0 {
		return nil, errors.Errorf("configAt: index must be non-negative, "+
			"have(%v)", i)
	}
	if list.Len() == 0 {
		return nil, errors.New("configAt: empty config list")
	}
	i %= list.Len()

	listValue := reflect.ValueOf(list)
	if listValue.Kind() == reflect.Ptr {
		listValue = listValue.Elem()
	}
	if listValue.Kind() != reflect.Struct {
		return nil, errors.Errorf("configAt: config list must be a struct, "+
			"have(%T)", list)
	}

	configValue := reflect.New(reflect.TypeOf(list.Config())).Elem()

	stride := 1
	for f := 0; f < listValue.NumField(); f++ {
		field := listValue.Field(f)
		name := listValue.Type().Field(f).Name
		if field.Kind() != reflect.Slice {
			continue
		}

		dest := configValue.FieldByName(name)
		if !dest.IsValid() || !dest.CanSet() {
			return nil, errors.Errorf("configAt: config %T has no settable "+
				"field %v", list.Config(), name)
		}

		n := field.Len()
		value := field.Index((i / stride) % n)
		if !value.Type().AssignableTo(dest.Type()) {
			return nil, errors.Errorf("configAt: cannot assign %v to field "+
				"%v of type %v", value.Type(), name, dest.Type())
		}
		dest.Set(value)
		stride *= n
	}

	return configValue.Interface().(Config), nil
}
