package driver

import (
	"fmt"
	"sort"
	"sync"
)

// OpenFunc creates a driver instance.
type OpenFunc func() (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]OpenFunc)
)

// Register makes a driver available under name. Driver packages call it from
// init. Registering the same name twice panics.
func Register(name string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if open == nil {
		panic("driver: Register open func is nil")
	}
	if _, dup := registry[name]; dup {
		panic("driver: Register called twice for driver " + name)
	}
	registry[name] = open
}

// Open creates the driver registered under name.
func Open(name string) (Driver, error) {
	registryMu.RLock()
	open, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownDriver, name, Names())
	}
	return open()
}

// Names returns the registered driver names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
