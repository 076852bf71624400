package bsonwalk

import "github.com/go-json-experiment/json/jsontext"

// A Registration installs directives on a Registry, or switches one of its
// decoding options. Nothing is registered at import time; callers name the
// sets they want when building a codec:
//
//	codec, err := bsonwalk.NewCodec(bsonwalk.ExtendedJSON(), bsonwalk.LegacyBinaryStrings)
type Registration func(r *Registry) error

// NewDirective registers fn under name. fn is handed the decoder positioned
// on the sentinel's value (the hex string of {"$oid": "..."}) and returns
// the decoded value.
func NewDirective[T any](name string, fn func(dec *jsontext.Decoder) (T, error)) Registration {
	return func(r *Registry) error {
		return r.Register(name, decodeInto(fn))
	}
}

// decodeInto adapts a value-returning decoder to the pointer form that
// Register checks for.
func decodeInto[T any](fn func(*jsontext.Decoder) (T, error)) func(*jsontext.Decoder, *T) error {
	return func(dec *jsontext.Decoder, dst *T) error {
		v, err := fn(dec)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// Group bundles registrations into one, as ExtendedJSON does.
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// When returns reg if enabled is true and a registration that does nothing
// otherwise.
func When(enabled bool, reg Registration) Registration {
	if !enabled {
		return func(*Registry) error { return nil }
	}
	return reg
}

// Apply runs regs against r in order. Nil entries are skipped. The first
// failure stops the run; directives registered before it stay registered.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if reg == nil {
			continue
		}
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns an empty registry with regs applied.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}

// LegacyBinaryStrings makes plain strings of the form "$binary:<base64>"
// decode as binary values, as older tooling wrote them.
var LegacyBinaryStrings Registration = func(r *Registry) error {
	r.setLegacyBinaryStrings(true)
	return nil
}
