package bsonwalk

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const legacyBinaryPrefix = "$binary:"

// Unmarshalers returns the full set of bsonwalk unmarshalers allowing decoding
// into:
//   - any/interface{} -> objects as Document, arrays as Array, numbers as
//     int32/int64/float64/Number, directive objects dispatched
//   - *Document       -> direct ordered object decoding
//   - *Array          -> direct array decoding
func Unmarshalers(r *Registry) *json.Unmarshalers {
	return json.JoinUnmarshalers(
		unmarshalValue(r), // *any (objects, arrays, numbers, directives)
		unmarshalDocument(),
		unmarshalArray(),
	)
}

// unmarshalValue returns a custom JSON unmarshaler that:
//   - Wraps JSON objects as Document rather than map[string]any
//   - Wraps JSON arrays as Array so callers can distinguish from []any
//   - Detects directive objects of the form {"$<name>": <value>[, ...ignored...]}
//     and dispatches to the registered directive. Any extra fields after
//     the directive root field are skipped. Objects whose first key names
//     no registered directive (e.g. DBRefs, {"$ref": ..., "$id": ...}) are
//     kept as plain documents.
//   - Narrows numbers to the smallest BSON numeric type that holds them.
//   - Leaves the remaining primitives to the default logic by returning
//     json.SkipFunc.
//
// Empty objects ({}) produce an empty Document; empty arrays ([]) produce an empty Array.
func unmarshalValue(r *Registry) *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *any) error {
		switch dec.PeekKind() {
		case '{':
			val, err := decodeObject(dec, r, true)
			if err != nil {
				return err
			}
			*v = val
			return nil
		case '[':
			arr, err := decodeArray(dec)
			if err != nil {
				return err
			}
			*v = arr
			return nil
		case '0':
			raw, err := dec.ReadValue()
			if err != nil {
				return fmt.Errorf("read number: %w", err)
			}
			*v = parseNumber(string(raw))
			return nil
		case '"':
			if !r.legacyStrings() {
				return json.SkipFunc
			}
			var s string
			if err := json.UnmarshalDecode(dec, &s); err != nil {
				return fmt.Errorf("read string: %w", err)
			}
			if !strings.HasPrefix(s, legacyBinaryPrefix) {
				*v = s
				return nil
			}
			data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, legacyBinaryPrefix))
			if err != nil {
				return fmt.Errorf("legacy binary string: %w", err)
			}
			*v = bson.Binary{Data: data}
			return nil
		default:
			return json.SkipFunc
		}
	})
}

// unmarshalDocument provides decoding of a JSON object into a *Document when
// the target type is *Document (ordered key preservation). Directive objects
// are NOT interpreted at the root here; that only happens when decoding into
// interface{} via unmarshalValue. Nested values still decode through it.
func unmarshalDocument() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Document) error {
		if dec.PeekKind() != '{' {
			return json.SkipFunc
		}
		val, err := decodeObject(dec, nil, false)
		if err != nil {
			return err
		}
		*v = val.(Document)
		return nil
	})
}

// unmarshalArray provides decoding of a JSON array into an *Array when the
// target type is *Array.
func unmarshalArray() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Array) error {
		if dec.PeekKind() != '[' {
			return json.SkipFunc
		}
		arr, err := decodeArray(dec)
		if err != nil {
			return err
		}
		*v = arr
		return nil
	})
}

// parseNumber maps a JSON number literal onto int32, int64 or float64,
// falling back to Number when no BSON numeric type holds it.
func parseNumber(lit string) any {
	if !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return Number(lit)
		}
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n)
		}
		return n
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Number(lit)
	}
	return f
}

// decodeObject decodes a JSON object into a Document or directive value. If
// handleDirectives is true and the first key names a registered directive,
// it returns the directive's value.
func decodeObject(dec *jsontext.Decoder, r *Registry, handleDirectives bool) (any, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("read object open: %w", err)
	}
	if dec.PeekKind() == '}' { // empty
		if _, err := dec.ReadToken(); err != nil { // '}'
			return nil, fmt.Errorf("read object close: %w", err)
		}
		return Document{}, nil
	}
	// read first key
	var firstKey string
	if err := json.UnmarshalDecode(dec, &firstKey); err != nil {
		return nil, fmt.Errorf("read object first key: %w", err)
	}
	if handleDirectives && r != nil && strings.HasPrefix(firstKey, "$") {
		if _, ok := r.Lookup(firstKey[1:]); ok {
			return decodeDirective(dec, r, firstKey)
		}
	}
	// regular object path
	var firstVal any
	if err := json.UnmarshalDecode(dec, &firstVal); err != nil {
		return nil, fmt.Errorf("read object value for key %q: %w", firstKey, err)
	}
	res := Document{{Key: firstKey, Value: firstVal}}
	for dec.PeekKind() != '}' {
		var k string
		if err := json.UnmarshalDecode(dec, &k); err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		var vv any
		if err := json.UnmarshalDecode(dec, &vv); err != nil {
			return nil, fmt.Errorf("read object value for key %q: %w", k, err)
		}
		res = append(res, Entry{Key: k, Value: vv})
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("read object close: %w", err)
	}
	return res, nil
}

func decodeDirective(dec *jsontext.Decoder, r *Registry, key string) (any, error) {
	val, err := r.Exec(key[1:], dec)
	if err != nil {
		return nil, fmt.Errorf("directive %q call: %w", key, err)
	}
	// skip any extra fields in the object so the decoder is left in a
	// valid state. a directive that wants them must read them itself.
	for dec.PeekKind() != '}' {
		if err := dec.SkipValue(); err != nil {
			return nil, fmt.Errorf("directive %q skip extra field: %w", key, err)
		}
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, fmt.Errorf("directive %q read object close: %w", key, err)
	}
	return val, nil
}

// decodeArray decodes a JSON array into Array.
func decodeArray(dec *jsontext.Decoder) (Array, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	arr := Array{}
	for dec.PeekKind() != ']' {
		var elem any
		if err := json.UnmarshalDecode(dec, &elem); err != nil {
			return nil, fmt.Errorf("read array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return arr, nil
}
