package domain

import (
	"errors"
	"fmt"
	"sort"
)

// =============================================================================
// Option Errors
// =============================================================================

var (
	// ErrUnknownOption is returned when reading an option that was never set.
	ErrUnknownOption = errors.New("unknown option")
)

// =============================================================================
// Options
// =============================================================================

// Options holds deployment configuration values keyed by dotted identifiers
// (app.id, mysql.user.name, ...). Reads of unset options are errors; the
// installer relies on this strictness to catch typos early.
type Options struct {
	values map[string]string
}

// NewOptions returns an empty option set.
func NewOptions() *Options {
	return &Options{values: make(map[string]string)}
}

// OptionsFromMap returns an option set seeded with the given values.
func OptionsFromMap(values map[string]string) *Options {
	o := NewOptions()
	for id, value := range values {
		o.Set(id, value)
	}
	return o
}

// Has reports whether the option has been set.
func (o *Options) Has(id string) bool {
	_, ok := o.values[id]
	return ok
}

// Get returns the option value, or ErrUnknownOption if it was never set.
func (o *Options) Get(id string) (string, error) {
	value, ok := o.values[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOption, id)
	}
	return value, nil
}

// Set stores the option value, overwriting any previous value.
func (o *Options) Set(id, value string) {
	o.values[id] = value
}

// SetDefault stores the value only when the option is not already set.
// Loaded state therefore wins over generated defaults, which is what keeps
// generated secrets stable across reruns.
func (o *Options) SetDefault(id, value string) {
	if !o.Has(id) {
		o.Set(id, value)
	}
}

// IDs returns all option identifiers in sorted order.
func (o *Options) IDs() []string {
	ids := make([]string, 0, len(o.values))
	for id := range o.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the underlying values.
func (o *Options) Snapshot() map[string]string {
	out := make(map[string]string, len(o.values))
	for id, value := range o.values {
		out[id] = value
	}
	return out
}

// Len returns the number of options set.
func (o *Options) Len() int {
	return len(o.values)
}
