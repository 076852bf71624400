package bsonwalk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func decodeExt(t *testing.T, src string) any {
	t.Helper()
	c := newTestCodec(t, ExtendedJSON())
	v, err := c.DecodeJSON([]byte(src))
	require.NoError(t, err)
	return v
}

func TestExtendedJSON_Registers(t *testing.T) {
	r, err := NewRegistry(ExtendedJSON())
	require.NoError(t, err)

	for _, name := range []string{
		"binary", "oid", "timestamp", "numberDecimal", "date", "numberLong",
		"numberInt", "numberDouble", "regularExpression", "code", "symbol",
		"minKey", "maxKey", "undefined", "dbPointer",
	} {
		full, ok := r.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, "ext."+name, full)
	}

	_, ok := r.Lookup("ref")
	require.False(t, ok)
}

func TestExtendedJSON_AlternateForms(t *testing.T) {
	t.Run("binary object without subtype", func(t *testing.T) {
		require.Equal(t, bson.Binary{Data: []byte("hi")}, decodeExt(t, `{"$binary":{"base64":"aGk="}}`))
	})

	t.Run("binary bad subtype", func(t *testing.T) {
		c := newTestCodec(t, ExtendedJSON())
		_, err := c.DecodeJSON([]byte(`{"$binary":{"base64":"aGk=","subType":"zz"}}`))
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("legacy type field ignored", func(t *testing.T) {
		require.Equal(t, bson.Binary{Data: []byte("hi")}, decodeExt(t, `{"$binary":"aGk=","$type":"00"}`))
	})

	t.Run("date from millis", func(t *testing.T) {
		require.Equal(t, bson.DateTime(1000), decodeExt(t, `{"$date":1000}`))
	})

	t.Run("date with offset", func(t *testing.T) {
		want := bson.NewDateTimeFromTime(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
		require.Equal(t, want, decodeExt(t, `{"$date":"2024-01-01T12:00:00+02:00"}`))
	})

	t.Run("number long", func(t *testing.T) {
		require.Equal(t, int64(5), decodeExt(t, `{"$numberLong":"5"}`))
	})

	t.Run("number int", func(t *testing.T) {
		require.Equal(t, int32(-5), decodeExt(t, `{"$numberInt":"-5"}`))
	})

	t.Run("number int overflow", func(t *testing.T) {
		c := newTestCodec(t, ExtendedJSON())
		_, err := c.DecodeJSON([]byte(`{"$numberInt":"2147483648"}`))
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("number double", func(t *testing.T) {
		require.Equal(t, 2.5, decodeExt(t, `{"$numberDouble":"2.5"}`))
	})

	t.Run("code without scope", func(t *testing.T) {
		require.Equal(t, bson.JavaScript("f()"), decodeExt(t, `{"$code":"f()","note":[1]}`))
	})

	t.Run("code with scope", func(t *testing.T) {
		oid, err := bson.ObjectIDFromHex("5f1b2c3d4e5f6a7b8c9d0e1f")
		require.NoError(t, err)
		require.Equal(t, bson.CodeWithScope{
			Code:  "f(id)",
			Scope: Document{{Key: "id", Value: oid}},
		}, decodeExt(t, `{"$code":"f(id)","$scope":{"id":{"$oid":"5f1b2c3d4e5f6a7b8c9d0e1f"}}}`))
	})

	t.Run("scope must be a document", func(t *testing.T) {
		c := newTestCodec(t, ExtendedJSON())
		_, err := c.DecodeJSON([]byte(`{"$code":"f()","$scope":3}`))
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("dbref stays a document", func(t *testing.T) {
		v := decodeExt(t, `{"$ref":"users","$id":{"$oid":"5f1b2c3d4e5f6a7b8c9d0e1f"}}`)
		d, ok := v.(Document)
		require.True(t, ok)
		require.Equal(t, "$ref", d[0].Key)
		require.IsType(t, bson.ObjectID{}, d[1].Value)
	})
}
