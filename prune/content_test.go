package prune_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/calumari/bsonwalk"
	"github.com/calumari/bsonwalk/prune"
)

func record(payload string, subtype byte) bsonwalk.Document {
	return bsonwalk.Document{
		{Key: "Name", Value: "room"},
		{Key: "Content", Value: bson.Binary{Subtype: subtype, Data: []byte(payload)}},
	}
}

func TestContentFilter_Drops(t *testing.T) {
	f := prune.DefaultContentFilter()

	cases := []struct {
		name string
		elem any
		want bool
	}{
		{"asset name contains key", bsonwalk.Document{{Key: "AssetName", Value: "big_pet_cat"}}, true},
		{"inventory reference", bsonwalk.Document{{Key: "InventoryId", Value: int32(9)}}, true},
		{"null inventory", bsonwalk.Document{{Key: "AssetName", Value: "chair"}, {Key: "InventoryId", Value: nil}}, false},
		{"case sensitive", bsonwalk.Document{{Key: "AssetName", Value: "Pet"}}, false},
		{"non string asset name", bsonwalk.Document{{Key: "AssetName", Value: int32(1)}}, false},
		{"not a document", "pet", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, f.Drops(tc.elem))
		})
	}
}

func TestContentFilter_Apply(t *testing.T) {
	f := prune.DefaultContentFilter()

	t.Run("filters embedded elements", func(t *testing.T) {
		in := bsonwalk.Array{record(`{"Version":2,"Elements":[{"AssetName":"pet_dog"},{"AssetName":"lamp","InventoryId":null},{"AssetName":"sofa","InventoryId":"x"}]}`, 0x00)}

		out, rep := f.Apply(in)
		require.Equal(t, 2, rep.Filtered)
		require.Equal(t, 1, rep.Rewritten)
		require.Empty(t, rep.Skipped)

		doc := out.(bsonwalk.Array)[0].(bsonwalk.Document)
		bin, ok := doc.Get("Content")
		require.True(t, ok)
		require.Equal(t, `{"Version":2,"Elements":[{"AssetName":"lamp","InventoryId":null}]}`, string(bin.(bson.Binary).Data))
	})

	t.Run("keeps subtype", func(t *testing.T) {
		out, _ := f.Apply(record(`{"Elements":[{"AssetName":"pet"}]}`, 0x80))
		bin, _ := out.(bsonwalk.Document).Get("Content")
		require.Equal(t, byte(0x80), bin.(bson.Binary).Subtype)
		require.Equal(t, `{"Elements":[]}`, string(bin.(bson.Binary).Data))
	})

	t.Run("nothing dropped keeps bytes", func(t *testing.T) {
		payload := `{ "Elements" : [ {"AssetName": "lamp"} ] }`
		out, rep := f.Apply(record(payload, 0x00))
		bin, _ := out.(bsonwalk.Document).Get("Content")
		require.Equal(t, payload, string(bin.(bson.Binary).Data))
		require.Zero(t, rep.Rewritten)
	})

	t.Run("non json payload skipped", func(t *testing.T) {
		in := bsonwalk.Document{{Key: "wrap", Value: record("\x00\x01binary", 0x00)}}
		out, rep := f.Apply(in)
		require.Equal(t, in, out)
		require.Len(t, rep.Skipped, 1)
		assert.Equal(t, "$.wrap.Content", rep.Skipped[0].Path)
		assert.ErrorIs(t, rep.Skipped[0].Err, bsonwalk.ErrMalformedInput)
	})

	t.Run("non document payload skipped", func(t *testing.T) {
		_, rep := f.Apply(record(`[1,2]`, 0x00))
		require.Len(t, rep.Skipped, 1)
		assert.Equal(t, "$.Content", rep.Skipped[0].Path)
	})

	t.Run("custom search key", func(t *testing.T) {
		custom := f
		custom.SearchKey = "lamp"
		out, rep := custom.Apply(record(`{"Elements":[{"AssetName":"pet"},{"AssetName":"lamp"}]}`, 0x00))
		require.Equal(t, 1, rep.Filtered)
		bin, _ := out.(bsonwalk.Document).Get("Content")
		require.Equal(t, `{"Elements":[{"AssetName":"pet"}]}`, string(bin.(bson.Binary).Data))
	})
}
