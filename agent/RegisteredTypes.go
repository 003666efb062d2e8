package agent

import (
	"reflect"
	"sync"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
//
// For example, if a Config has Type EGreedyDeepQMLP, then the Config is
// used to construct DeepQ agents using epsilon greedy MLP policies.
type Type string

const (
	EGreedyDeepQMLP Type = "EGreedyDeepQ-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a Config or ConfigList with that type can be created.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var (
	registeredTypes   = make(map[Type]reflect.Type)
	registeredTypesMu sync.RWMutex
)

// Register registers an agent's Type with a concrete ConfigList type
// so that upon deserialization of a TypedConfigList, ConfigLists of
// type agentType are deserialized into the concrete type of configs.
//
// Note that each package is required to register its own Config's
// with an agentType separately. This package registers no agentTypes
// with any Config's. This is to avoid circular imports.
func Register(agentType Type, configs ConfigList) {
	registeredTypesMu.Lock()
	defer registeredTypesMu.Unlock()

	registeredTypes[agentType] = reflect.TypeOf(configs)
}

// registered returns the ConfigList type registered with agentType
func registered(agentType Type) (reflect.Type, bool) {
	registeredTypesMu.RLock()
	defer registeredTypesMu.RUnlock()

	ty, ok := registeredTypes[agentType]
	return ty, ok
}
