package format

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/framestack/pkg/reader"
)

// ErrUnsupportedFormat is returned when no registered backend matches the
// filename extension and requested mode. This is a hard failure: silently
// falling back to a possibly-wrong backend would corrupt downstream
// shape and dtype assumptions.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrBackendUnavailable is returned by constructors registered for a
// backend whose runtime dependency is missing. The wrapped message names
// the dependency so the caller gets an actionable error rather than one
// that looks like a missing-file problem.
var ErrBackendUnavailable = errors.New("backend unavailable")

type entry struct {
	descriptor  Descriptor
	constructor Constructor
}

// Registry is an ordered table of backend registrations. Registration
// order is the tie-break: when several entries match, the first
// registered one wins, so preferred backends register first and generic
// fallbacks later.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a backend. No uniqueness check is performed: later
// registrations for overlapping extensions are consulted only when
// earlier ones do not match.
func (r *Registry) Register(descriptor Descriptor, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry{descriptor: descriptor, constructor: constructor})
}

// Resolve returns the constructor of the first registered backend whose
// descriptor matches the filename's extension (case-insensitive) and the
// requested mode. ModeAny matches any declared mode.
func (r *Registry) Resolve(filename string, mode Mode) (Constructor, error) {
	ext := Ext(filename)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.descriptor.matches(ext, mode) {
			return e.constructor, nil
		}
	}

	return nil, fmt.Errorf("%w: no backend for extension %q", ErrUnsupportedFormat, ext)
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		descriptors[i] = e.descriptor
	}

	return descriptors
}

// Unavailable returns a constructor that always fails with
// ErrBackendUnavailable, naming the missing dependency. Backends whose
// runtime dependency is probed once at process start register this in
// place of their real constructor when the probe fails.
func Unavailable(name, requirement string) Constructor {
	return func(string, Options) (reader.Reader, error) {
		return nil, fmt.Errorf("%w: %s requires %s", ErrBackendUnavailable, name, requirement)
	}
}
