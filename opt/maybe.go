// Package opt provides an optional value type for metrics and lookups that
// may legitimately have no value.
package opt

import "fmt"

// Maybe is a simple implementation of an optional value type.
type Maybe[V any] struct {
	defined bool
	value   V
}

// Some returns a Maybe that has a defined value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

// None returns a Maybe with no value.
func None[V any]() Maybe[V] { return Maybe[V]{} }

// IsDefined returns true if the Maybe has a value.
func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the value if a value is defined, or the zero value for the type otherwise.
func (m Maybe[V]) Value() V { return m.value }

// Get returns the value and whether it is defined.
func (m Maybe[V]) Get() (V, bool) { return m.value, m.defined }

// OrElse returns the value of the Maybe if any, or valueIfUndefined otherwise.
func (m Maybe[V]) OrElse(valueIfUndefined V) V {
	if m.defined {
		return m.value
	}

	return valueIfUndefined
}

// String returns fmt's "%v" form of the value, or "[none]" if undefined.
func (m Maybe[V]) String() string {
	if m.defined {
		return fmt.Sprintf("%v", m.value)
	}

	return "[none]"
}

// First returns the first defined Maybe produced by fns, calling them in
// order and stopping at the first hit. It returns None if every fn misses.
func First[V any](fns ...func() Maybe[V]) Maybe[V] {
	for _, fn := range fns {
		if m := fn(); m.defined {
			return m
		}
	}

	return None[V]()
}
