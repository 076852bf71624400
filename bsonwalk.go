// Package bsonwalk converts BSON documents to and from JSON text while
// keeping field order, and carries BSON-only values through JSON as
// extended JSON sentinel objects of the form {"$name": ...}.
package bsonwalk

import "go.mongodb.org/mongo-driver/v2/bson"

// Document represents a document, defined as an ordered collection of key-value pairs.
// Each entry in the document is represented by an Entry.
type Document []Entry

// Array represents an array, defined as a slice of values of any type.
type Array []any

// Entry represents a single entry in a document. It consists of a string key and an
// associated value of any type.
type Entry struct {
	Key   string
	Value any
}

// Number is a JSON number literal that has no BSON representation, such as
// an integer outside the int64 range. It survives a JSON round trip
// verbatim but cannot be encoded to BSON.
type Number string

// Get returns the value stored under key and whether it was found. When
// the key occurs more than once the first occurrence wins.
func (d Document) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Kind is the variant of a document value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindBinary
	KindArray
	KindDocument
	// KindOpaque covers BSON-specific values (object ids, timestamps,
	// decimals...) that are carried through without interpretation.
	KindOpaque
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindBinary:   "binary",
	KindArray:    "array",
	KindDocument: "document",
	KindOpaque:   "opaque",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf classifies v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil, bson.Null:
		return KindNull
	case bool:
		return KindBool
	case int, int32, int64, float64, Number:
		return KindNumber
	case string:
		return KindString
	case bson.Binary:
		return KindBinary
	case Array:
		return KindArray
	case Document:
		return KindDocument
	default:
		return KindOpaque
	}
}
