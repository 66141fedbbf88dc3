package scraper

import (
	"sort"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Definition{}
)

// Register adds d under its lowercased name, replacing any earlier entry.
// Site packages call it from init.
func Register(d Definition) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(d.Name())] = d
}

func Get(name string) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[strings.ToLower(name)]
	return d, ok
}

// Names lists the registered sites in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
