package bsonwalk

import "errors"

var (
	// ErrMalformedInput reports bytes or text that do not parse as the
	// expected format.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnsupportedType reports a value with no representation in the
	// target format.
	ErrUnsupportedType = errors.New("unsupported type")
)
