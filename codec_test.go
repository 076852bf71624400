package bsonwalk

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestCodec(t *testing.T, regs ...Registration) *Codec {
	t.Helper()
	c, err := NewCodec(regs...)
	require.NoError(t, err)
	return c
}

func TestCodec_DecodeJSON(t *testing.T) {
	c := newTestCodec(t, ExtendedJSON())

	t.Run("object keeps key order", func(t *testing.T) {
		v, err := c.DecodeJSON([]byte(`{"z": 1, "a": "x", "m": null}`))
		require.NoError(t, err)
		require.Equal(t, Document{
			{Key: "z", Value: int32(1)},
			{Key: "a", Value: "x"},
			{Key: "m", Value: nil},
		}, v)
	})

	t.Run("duplicate names kept in order", func(t *testing.T) {
		v, err := c.DecodeJSON([]byte(`{"a": 1, "a": 2}`))
		require.NoError(t, err)
		require.Equal(t, Document{{Key: "a", Value: int32(1)}, {Key: "a", Value: int32(2)}}, v)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := c.DecodeJSON([]byte(`{"a": `))
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("trailing garbage", func(t *testing.T) {
		_, err := c.DecodeJSON([]byte(`{} x`))
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("bad directive payload is malformed", func(t *testing.T) {
		_, err := c.DecodeJSON([]byte(`{"$oid": "not-hex"}`))
		require.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestCodec_EncodeJSON(t *testing.T) {
	c := newTestCodec(t, ExtendedJSON())

	t.Run("compact", func(t *testing.T) {
		out, err := c.EncodeJSON(Document{
			{Key: "b", Value: int32(1)},
			{Key: "a", Value: Array{true, nil, "s"}},
		}, false)
		require.NoError(t, err)
		require.Equal(t, `{"b":1,"a":[true,null,"s"]}`, string(out))
	})

	t.Run("pretty uses four spaces and a trailing newline", func(t *testing.T) {
		out, err := c.EncodeJSON(Array{Document{{Key: "a", Value: int32(1)}}}, true)
		require.NoError(t, err)
		s := string(out)
		assert.True(t, strings.HasPrefix(s, "[\n    {\n        \"a\":"), s)
		assert.True(t, strings.HasSuffix(s, "\n    }\n]\n"), s)
	})

	t.Run("integral double keeps fraction", func(t *testing.T) {
		out, err := c.EncodeJSON(Document{{Key: "d", Value: 3.0}}, false)
		require.NoError(t, err)
		require.Equal(t, `{"d":3.0}`, string(out))
	})

	t.Run("nan and infinities", func(t *testing.T) {
		out, err := c.EncodeJSON(Array{math.NaN(), math.Inf(1), math.Inf(-1)}, false)
		require.NoError(t, err)
		require.Equal(t, `[{"$numberDouble":"NaN"},{"$numberDouble":"Infinity"},{"$numberDouble":"-Infinity"}]`, string(out))
	})

	t.Run("int64 keeps its width", func(t *testing.T) {
		out, err := c.EncodeJSON(Array{int64(5), int64(-2147483649), int32(5)}, false)
		require.NoError(t, err)
		require.Equal(t, `[{"$numberLong":"5"},-2147483649,5]`, string(out))

		back, err := c.DecodeJSON(out)
		require.NoError(t, err)
		require.Equal(t, Array{int64(5), int64(-2147483649), int32(5)}, back)
	})

	t.Run("oversized number printed verbatim", func(t *testing.T) {
		out, err := c.EncodeJSON(Document{{Key: "n", Value: Number("99999999999999999999")}}, false)
		require.NoError(t, err)
		require.Equal(t, `{"n":99999999999999999999}`, string(out))
	})

	t.Run("unsupported go value", func(t *testing.T) {
		_, err := c.EncodeJSON(Document{{Key: "ch", Value: make(chan int)}}, false)
		require.ErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestCodec_NoMatchingKeysReserializesUnchanged(t *testing.T) {
	c := newTestCodec(t, ExtendedJSON())
	src := `{"room":{"music":"on","count":3,"ratio":0.5,"tags":["a","b"],"none":null}}`

	v, err := c.DecodeJSON([]byte(src))
	require.NoError(t, err)
	out, err := c.EncodeJSON(v, false)
	require.NoError(t, err)
	require.Equal(t, src, string(out))
}

func TestCodec_ExtendedJSONRoundTrip(t *testing.T) {
	c := newTestCodec(t, ExtendedJSON())
	oid, err := bson.ObjectIDFromHex("5f1b2c3d4e5f6a7b8c9d0e1f")
	require.NoError(t, err)
	dec, err := bson.ParseDecimal128("12345.6789")
	require.NoError(t, err)

	cases := []struct {
		name string
		val  any
		json string
	}{
		{"binary generic", bson.Binary{Data: []byte("hi")}, `{"$binary":"aGk="}`},
		{"binary subtype", bson.Binary{Subtype: 0x04, Data: []byte("hi")}, `{"$binary":{"base64":"aGk=","subType":"04"}}`},
		{"object id", oid, `{"$oid":"5f1b2c3d4e5f6a7b8c9d0e1f"}`},
		{"timestamp", bson.Timestamp{T: 1700000000, I: 7}, `{"$timestamp":{"t":1700000000,"i":7}}`},
		{"decimal", dec, `{"$numberDecimal":"12345.6789"}`},
		{"date", bson.NewDateTimeFromTime(time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.UTC)), `{"$date":"2024-05-06T07:08:09.123Z"}`},
		{"date before epoch", bson.DateTime(-62135596800000), `{"$date":{"$numberLong":"-62135596800000"}}`},
		{"regex", bson.Regex{Pattern: "^a", Options: "i"}, `{"$regularExpression":{"pattern":"^a","options":"i"}}`},
		{"code", bson.JavaScript("return 1"), `{"$code":"return 1"}`},
		{"symbol", bson.Symbol("sym"), `{"$symbol":"sym"}`},
		{"min key", bson.MinKey{}, `{"$minKey":1}`},
		{"max key", bson.MaxKey{}, `{"$maxKey":1}`},
		{"undefined", bson.Undefined{}, `{"$undefined":true}`},
		{"db pointer", bson.DBPointer{DB: "db.coll", Pointer: oid}, `{"$dbPointer":{"$ref":"db.coll","$id":{"$oid":"5f1b2c3d4e5f6a7b8c9d0e1f"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := c.EncodeJSON(tc.val, false)
			require.NoError(t, err)
			require.Equal(t, tc.json, string(out))

			back, err := c.DecodeJSON(out)
			require.NoError(t, err)
			require.Equal(t, tc.val, back)
		})
	}
}

func TestCodec_WithoutDirectives(t *testing.T) {
	for name, c := range map[string]*Codec{
		"no registrations": newTestCodec(t),
		"plain codec":      PlainCodec(),
	} {
		t.Run(name, func(t *testing.T) {
			v, err := c.DecodeJSON([]byte(`{"$oid": "5f1b2c3d4e5f6a7b8c9d0e1f"}`))
			require.NoError(t, err)
			require.Equal(t, Document{{Key: "$oid", Value: "5f1b2c3d4e5f6a7b8c9d0e1f"}}, v)

			out, err := c.EncodeJSON(Array{3.0, Document{}}, false)
			require.NoError(t, err)
			require.Equal(t, `[3.0,{}]`, string(out))
		})
	}
}
