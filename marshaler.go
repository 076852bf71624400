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

const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Marshalers returns the marshalers that print Document and Array in stored
// order and BSON-specific values as extended JSON sentinel objects. The
// output decodes back to the same values through Unmarshalers with the
// ExtendedJSON directives registered.
func Marshalers() *json.Marshalers {
	return json.JoinMarshalers(
		json.MarshalToFunc(marshalDocument),
		json.MarshalToFunc(marshalArray),
		json.MarshalToFunc(marshalFloat),
		json.MarshalToFunc(marshalInt64),
		json.MarshalToFunc(func(enc *jsontext.Encoder, n Number) error {
			return enc.WriteValue(jsontext.Value(n))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, _ bson.Null) error {
			return enc.WriteToken(jsontext.Null)
		}),
		json.MarshalToFunc(marshalBinary),
		json.MarshalToFunc(func(enc *jsontext.Encoder, oid bson.ObjectID) error {
			return writeSentinel(enc, "$oid", jsontext.String(oid.Hex()))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, ts bson.Timestamp) error {
			return writeSentinelFunc(enc, "$timestamp", func() error {
				return writeTokens(enc,
					jsontext.BeginObject,
					jsontext.String("t"), jsontext.Uint(uint64(ts.T)),
					jsontext.String("i"), jsontext.Uint(uint64(ts.I)),
					jsontext.EndObject,
				)
			})
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, d bson.Decimal128) error {
			return writeSentinel(enc, "$numberDecimal", jsontext.String(d.String()))
		}),
		json.MarshalToFunc(marshalDateTime),
		json.MarshalToFunc(func(enc *jsontext.Encoder, re bson.Regex) error {
			return writeSentinelFunc(enc, "$regularExpression", func() error {
				return writeTokens(enc,
					jsontext.BeginObject,
					jsontext.String("pattern"), jsontext.String(re.Pattern),
					jsontext.String("options"), jsontext.String(re.Options),
					jsontext.EndObject,
				)
			})
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, js bson.JavaScript) error {
			return writeSentinel(enc, "$code", jsontext.String(string(js)))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, cws bson.CodeWithScope) error {
			if err := writeTokens(enc,
				jsontext.BeginObject,
				jsontext.String("$code"), jsontext.String(string(cws.Code)),
				jsontext.String("$scope"),
			); err != nil {
				return err
			}
			scope := cws.Scope
			if scope == nil {
				scope = Document{}
			}
			if err := json.MarshalEncode(enc, scope); err != nil {
				return fmt.Errorf("write code scope: %w", err)
			}
			return enc.WriteToken(jsontext.EndObject)
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, sym bson.Symbol) error {
			return writeSentinel(enc, "$symbol", jsontext.String(string(sym)))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, _ bson.MinKey) error {
			return writeSentinel(enc, "$minKey", jsontext.Int(1))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, _ bson.MaxKey) error {
			return writeSentinel(enc, "$maxKey", jsontext.Int(1))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, _ bson.Undefined) error {
			return writeSentinel(enc, "$undefined", jsontext.True)
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, p bson.DBPointer) error {
			return writeSentinelFunc(enc, "$dbPointer", func() error {
				return writeTokens(enc,
					jsontext.BeginObject,
					jsontext.String("$ref"), jsontext.String(p.DB),
					jsontext.String("$id"),
					jsontext.BeginObject, jsontext.String("$oid"), jsontext.String(p.Pointer.Hex()), jsontext.EndObject,
					jsontext.EndObject,
				)
			})
		}),
	)
}

func marshalDocument(enc *jsontext.Encoder, d Document) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, e := range d {
		if err := enc.WriteToken(jsontext.String(e.Key)); err != nil {
			return fmt.Errorf("write key %q: %w", e.Key, err)
		}
		if err := json.MarshalEncode(enc, e.Value); err != nil {
			return fmt.Errorf("write value for key %q: %w", e.Key, err)
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

func marshalArray(enc *jsontext.Encoder, a Array) error {
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for i, v := range a {
		if err := json.MarshalEncode(enc, v); err != nil {
			return fmt.Errorf("write array element %d: %w", i, err)
		}
	}
	return enc.WriteToken(jsontext.EndArray)
}

// marshalFloat writes finite doubles with a fraction or exponent so they
// decode back as doubles rather than integers. NaN and infinities have no
// JSON literal and are written as $numberDouble sentinels.
func marshalFloat(enc *jsontext.Encoder, f float64) error {
	switch {
	case math.IsNaN(f):
		return writeSentinel(enc, "$numberDouble", jsontext.String("NaN"))
	case math.IsInf(f, 1):
		return writeSentinel(enc, "$numberDouble", jsontext.String("Infinity"))
	case math.IsInf(f, -1):
		return writeSentinel(enc, "$numberDouble", jsontext.String("-Infinity"))
	}
	return enc.WriteValue(jsontext.Value(formatFloat(f)))
}

// marshalInt64 writes int64 values small enough to read back as int32 as
// $numberLong sentinels so they keep their width. Larger values are plain
// numbers, which already decode as int64.
func marshalInt64(enc *jsontext.Encoder, n int64) error {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return enc.WriteToken(jsontext.Int(n))
	}
	return writeSentinel(enc, "$numberLong", jsontext.String(strconv.FormatInt(n, 10)))
}

func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		if n := len(s); n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func marshalBinary(enc *jsontext.Encoder, b bson.Binary) error {
	encoded := base64.StdEncoding.EncodeToString(b.Data)
	if b.Subtype == 0x00 {
		return writeSentinel(enc, "$binary", jsontext.String(encoded))
	}
	return writeSentinelFunc(enc, "$binary", func() error {
		return writeTokens(enc,
			jsontext.BeginObject,
			jsontext.String("base64"), jsontext.String(encoded),
			jsontext.String("subType"), jsontext.String(fmt.Sprintf("%02x", b.Subtype)),
			jsontext.EndObject,
		)
	})
}

func marshalDateTime(enc *jsontext.Encoder, dt bson.DateTime) error {
	t := dt.Time().UTC()
	if y := t.Year(); y >= 1970 && y <= 9999 {
		return writeSentinel(enc, "$date", jsontext.String(t.Format(dateLayout)))
	}
	return writeSentinelFunc(enc, "$date", func() error {
		return writeTokens(enc,
			jsontext.BeginObject,
			jsontext.String("$numberLong"), jsontext.String(strconv.FormatInt(int64(dt), 10)),
			jsontext.EndObject,
		)
	})
}

func writeSentinel(enc *jsontext.Encoder, name string, tok jsontext.Token) error {
	return writeSentinelFunc(enc, name, func() error { return enc.WriteToken(tok) })
}

func writeSentinelFunc(enc *jsontext.Encoder, name string, value func() error) error {
	if err := writeTokens(enc, jsontext.BeginObject, jsontext.String(name)); err != nil {
		return err
	}
	if err := value(); err != nil {
		return err
	}
	return enc.WriteToken(jsontext.EndObject)
}

func writeTokens(enc *jsontext.Encoder, toks ...jsontext.Token) error {
	for _, tok := range toks {
		if err := enc.WriteToken(tok); err != nil {
			return err
		}
	}
	return nil
}
