package bsonwalk

import (
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/x/bsonx/bsoncore"
)

// minDocumentSize is the length prefix plus the terminating null byte.
const minDocumentSize = 5

// DecodeBSON decodes every document concatenated in data. Each element of
// the result is a Document. Empty input yields an empty Array.
func DecodeBSON(data []byte) (Array, error) {
	docs := Array{}
	rem := data
	for len(rem) > 0 {
		offset := len(data) - len(rem)
		raw, rest, ok := bsoncore.ReadDocument(rem)
		if !ok || len(raw) < minDocumentSize {
			return nil, fmt.Errorf("%w: bson: truncated document at offset %d", ErrMalformedInput, offset)
		}
		doc, err := decodeRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("document at offset %d: %w", offset, err)
		}
		docs = append(docs, doc)
		rem = rest
	}
	return docs, nil
}

// DecodeBSONDocument decodes data holding exactly one document.
func DecodeBSONDocument(data []byte) (Document, error) {
	raw, rest, ok := bsoncore.ReadDocument(data)
	if !ok || len(raw) < minDocumentSize {
		return nil, fmt.Errorf("%w: bson: truncated document", ErrMalformedInput)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: bson: %d trailing bytes after document", ErrMalformedInput, len(rest))
	}
	return decodeRaw(raw)
}

// Validate checks that data is a sequence of well formed documents without
// decoding them.
func Validate(data []byte) error {
	rem := data
	for len(rem) > 0 {
		offset := len(data) - len(rem)
		raw, rest, ok := bsoncore.ReadDocument(rem)
		if !ok || len(raw) < minDocumentSize {
			return fmt.Errorf("%w: bson: truncated document at offset %d", ErrMalformedInput, offset)
		}
		if err := bson.Raw(raw).Validate(); err != nil {
			return fmt.Errorf("%w: bson: document at offset %d: %w", ErrMalformedInput, offset, err)
		}
		rem = rest
	}
	return nil
}

func decodeRaw(raw []byte) (Document, error) {
	if err := bson.Raw(raw).Validate(); err != nil {
		return nil, fmt.Errorf("%w: bson: %w", ErrMalformedInput, err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: bson: %w", ErrMalformedInput, err)
	}
	return fromD(d)
}

// EncodeBSON encodes a Document as one BSON document, or an Array of
// Documents as the concatenation of their encodings. Nothing is returned
// on failure.
func EncodeBSON(v any) ([]byte, error) {
	switch root := v.(type) {
	case Document:
		return encodeDocument(root)
	case Array:
		var out []byte
		for i, elem := range root {
			d, ok := elem.(Document)
			if !ok {
				return nil, fmt.Errorf("%w: bson: array element %d is %s, want document", ErrUnsupportedType, i, KindOf(elem))
			}
			b, err := encodeDocument(d)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out = append(out, b...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: bson: top-level value is %s, want document", ErrUnsupportedType, KindOf(v))
	}
}

func encodeDocument(d Document) ([]byte, error) {
	bd, err := toD(d)
	if err != nil {
		return nil, err
	}
	out, err := bson.Marshal(bd)
	if err != nil {
		return nil, fmt.Errorf("%w: bson: %w", ErrUnsupportedType, err)
	}
	return out, nil
}

func fromD(d bson.D) (Document, error) {
	doc := make(Document, 0, len(d))
	for _, e := range d {
		v, err := fromValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		doc = append(doc, Entry{Key: e.Key, Value: v})
	}
	return doc, nil
}

func fromA(a bson.A) (Array, error) {
	arr := make(Array, 0, len(a))
	for i, v := range a {
		vv, err := fromValue(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		arr = append(arr, vv)
	}
	return arr, nil
}

func fromValue(v any) (any, error) {
	switch val := v.(type) {
	case bson.D:
		return fromD(val)
	case bson.A:
		return fromA(val)
	case bson.Null:
		return nil, nil
	case bson.CodeWithScope:
		scope, err := fromScope(val.Scope)
		if err != nil {
			return nil, err
		}
		return bson.CodeWithScope{Code: val.Code, Scope: scope}, nil
	}
	if isScalar(v) {
		return v, nil
	}
	return nil, fmt.Errorf("%w: bson value of type %T", ErrUnsupportedType, v)
}

func fromScope(scope any) (Document, error) {
	switch s := scope.(type) {
	case nil:
		return Document{}, nil
	case bson.D:
		return fromD(s)
	case bson.Raw:
		return decodeRaw(s)
	case Document:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: code scope of type %T", ErrUnsupportedType, scope)
	}
}

// isScalar reports whether v is a leaf value stored as is on both sides of
// the codec.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, int32, int64, float64, string,
		bson.Binary, bson.ObjectID, bson.Timestamp, bson.DateTime, bson.Decimal128,
		bson.Regex, bson.JavaScript, bson.Symbol, bson.MinKey, bson.MaxKey,
		bson.Undefined, bson.DBPointer:
		return true
	default:
		return false
	}
}

func toD(doc Document) (bson.D, error) {
	d := make(bson.D, 0, len(doc))
	for _, e := range doc {
		v, err := toValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		d = append(d, bson.E{Key: e.Key, Value: v})
	}
	return d, nil
}

func toA(arr Array) (bson.A, error) {
	a := make(bson.A, 0, len(arr))
	for i, v := range arr {
		vv, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		a = append(a, vv)
	}
	return a, nil
}

func toValue(v any) (any, error) {
	switch val := v.(type) {
	case Document:
		return toD(val)
	case Array:
		return toA(val)
	case Number:
		return nil, fmt.Errorf("%w: number %s is out of range for bson", ErrUnsupportedType, string(val))
	case bson.Null:
		return nil, nil
	case int:
		if val >= math.MinInt32 && val <= math.MaxInt32 {
			return int32(val), nil
		}
		return int64(val), nil
	case bson.CodeWithScope:
		scope, err := fromScope(val.Scope)
		if err != nil {
			return nil, err
		}
		d, err := toD(scope)
		if err != nil {
			return nil, fmt.Errorf("code scope: %w", err)
		}
		return bson.CodeWithScope{Code: val.Code, Scope: d}, nil
	}
	if isScalar(v) {
		return v, nil
	}
	return nil, fmt.Errorf("%w: go value of type %T", ErrUnsupportedType, v)
}
