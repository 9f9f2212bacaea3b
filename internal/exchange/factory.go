package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds an adapter from a validated settings map.
type Constructor func(cfg map[string]string) (Exchange, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a venue constructor available to New. Adapter packages call
// it from init; registering the same name twice is a programming error.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name = strings.ToLower(strings.TrimSpace(name))
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("exchange: constructor for %q registered twice", name))
	}
	registry[name] = ctor
}

// New constructs the named adapter from a string-keyed settings map. The map
// is validated eagerly; a missing or malformed field fails here with a
// configuration error and no network call.
func New(name string, cfg map[string]string) (Exchange, error) {
	registryMu.RLock()
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	registryMu.RUnlock()

	if !ok {
		return nil, NewError(KindInvalidRequest, name,
			fmt.Sprintf("unsupported exchange %q, supported: %s", name, strings.Join(Supported(), ", ")))
	}
	return ctor(cfg)
}

// Supported lists the registered venue names, sorted.
func Supported() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
