package ch347

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Opener opens the bridge found at path
type Opener func(path string) (Device, error)

var (
	driversMutex sync.Mutex
	drivers      = make(map[string]Opener)
)

// Register makes a driver available to Open. Registering the same name twice
// fails.
func Register(name string, opener Opener) error {
	if opener == nil {
		return fmt.Errorf("driver %q: nil opener", name)
	}

	driversMutex.Lock()
	defer driversMutex.Unlock()

	if _, ok := drivers[name]; ok {
		return fmt.Errorf("driver %q is already registered", name)
	}
	drivers[name] = opener
	return nil
}

// Unregister removes a driver
func Unregister(name string) {
	driversMutex.Lock()
	delete(drivers, name)
	driversMutex.Unlock()
}

// Drivers returns the registered driver names, sorted
func Drivers() []string {
	driversMutex.Lock()
	defer driversMutex.Unlock()

	var names []string
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens path using the named driver
func Open(driver string, path string) (Device, error) {
	driversMutex.Lock()
	opener, ok := drivers[driver]
	driversMutex.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrorUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}

	return opener(path)
}
