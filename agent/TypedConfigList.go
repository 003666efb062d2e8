package agent

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

// TypedConfigList implements functionality for typing a ConfigList.
// In this way, a ConfigList can explicitly have its type stored so
// that when deserializing the ConfigList, we can deserialize it into
// its concrete type without knowing beforehand or declaring beforehand
// a variable of its concrete type.
type TypedConfigList struct {
	Type
	ConfigList
}

// NewTypedConfigList types the argument ConfigList and returns it
// as a TypedConfigList which explicitly holds its Type.
func NewTypedConfigList(c ConfigList) TypedConfigList {
	return TypedConfigList{Type: c.Type(), ConfigList: c}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfigList) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       Type
		ConfigList json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "unmarshalJSON")
	}

	ty, ok := registered(raw.Type)
	if !ok {
		return errors.Errorf("unmarshalJSON: agent type %q not registered",
			raw.Type)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(raw.ConfigList, value.Interface()); err != nil {
		return errors.Wrapf(err, "unmarshalJSON: could not unmarshal %v "+
			"config list", raw.Type)
	}

	t.Type = raw.Type
	t.ConfigList = value.Elem().Interface().(ConfigList)
	return nil
}

// At returns the Config at index i in the TypedConfigList
func (t TypedConfigList) At(i int) (Config, error) {
	return ConfigAt(i, t.ConfigList)
}
