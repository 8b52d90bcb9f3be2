// Package source keeps the registry of entry readers by format id. Lookup
// hands out a new reader each time so concurrent conversions do not share
// counters.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

// ErrUnknownFormat is returned by Lookup for an unregistered format id.
var ErrUnknownFormat = errors.New("unknown source format")

var (
	mu       sync.RWMutex
	registry = map[string]types.Factory{}
)

// Register makes newSource available under id. Registering the same id
// twice panics.
func Register(id string, newSource types.Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[id]; dup {
		panic(fmt.Sprintf("source: format %q registered twice", id))
	}
	registry[id] = newSource
}

// Lookup returns a new reader for id.
func Lookup(id string) (types.Source, error) {
	mu.RLock()
	defer mu.RUnlock()
	if newSource, ok := registry[id]; ok {
		return newSource(), nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownFormat, id, strings.Join(formatsLocked(), ", "))
}

// Formats lists registered format ids in sorted order.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	return formatsLocked()
}

func formatsLocked() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
