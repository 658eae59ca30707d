package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config is passed to a driver when connecting.
type Config struct {
	Token       string
	EventBuffer int // gateway event channel sizing hint; 0 means driver default
}

// DriverFunc builds a Client from a Config.
type DriverFunc func(cfg Config) (Client, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFunc{}
)

// Register makes a platform driver available under a name.
// Intended to be called from driver package init(), like database/sql drivers.
func Register(name string, fn DriverFunc) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || fn == nil {
		panic("platform: Register with empty name or nil driver")
	}
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("platform: Register called twice for driver " + name)
	}
	drivers[name] = fn
}

// Connect builds a Client using the named driver.
func Connect(name string, cfg Config) (Client, error) {
	driversMu.RLock()
	fn := drivers[strings.ToLower(strings.TrimSpace(name))]
	driversMu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("unknown platform driver %q (linked: %s)", name, strings.Join(Drivers(), ","))
	}
	return fn(cfg)
}

// Drivers lists the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
