package prune

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/calumari/bsonwalk"
)

// ContentFilter drops entries from the element list embedded in UGC
// records. A record stores its scene as JSON text inside a binary field;
// elements whose asset name contains SearchKey, or that reference an
// inventory item, are removed from that embedded list.
type ContentFilter struct {
	Field       string // binary field holding the embedded JSON
	Elements    string // array of elements inside the embedded JSON
	AssetName   string
	InventoryID string
	SearchKey   string
}

// DefaultContentFilter matches the layout of exported UGC records.
func DefaultContentFilter() ContentFilter {
	return ContentFilter{
		Field:       "Content",
		Elements:    "Elements",
		AssetName:   "AssetName",
		InventoryID: "InventoryId",
		SearchKey:   "pet",
	}
}

// Report summarises a ContentFilter run.
type Report struct {
	Filtered  int // elements dropped
	Rewritten int // binary payloads replaced
	Skipped   []SkippedContent
}

// SkippedContent is a payload left untouched because it could not be read.
type SkippedContent struct {
	Path string
	Err  error
}

// Drops reports whether an embedded element is removed.
func (f ContentFilter) Drops(elem any) bool {
	doc, ok := elem.(bsonwalk.Document)
	if !ok {
		return false
	}
	if name, ok := doc.Get(f.AssetName); ok {
		if s, ok := name.(string); ok && strings.Contains(s, f.SearchKey) {
			return true
		}
	}
	inv, ok := doc.Get(f.InventoryID)
	return ok && inv != nil
}

// Apply returns a copy of v in which every binary payload stored under
// f.Field has its element list filtered. Payloads that are not JSON
// documents are kept byte for byte and listed in the report. Payloads
// with nothing to drop are also kept byte for byte.
func (f ContentFilter) Apply(v any) (any, Report) {
	a := &applier{filter: f, codec: bsonwalk.PlainCodec()}
	out := a.value(nil, v)
	return out, a.report
}

type applier struct {
	filter ContentFilter
	codec  *bsonwalk.Codec
	report Report
}

func (a *applier) value(path []string, v any) any {
	switch val := v.(type) {
	case bsonwalk.Document:
		out := make(bsonwalk.Document, 0, len(val))
		for _, e := range val {
			child := append(path[:len(path):len(path)], e.Key)
			if bin, ok := e.Value.(bson.Binary); ok && e.Key == a.filter.Field {
				out = append(out, bsonwalk.Entry{Key: e.Key, Value: a.rewrite(child, bin)})
				continue
			}
			out = append(out, bsonwalk.Entry{Key: e.Key, Value: a.value(child, e.Value)})
		}
		return out
	case bsonwalk.Array:
		out := make(bsonwalk.Array, len(val))
		for i, elem := range val {
			out[i] = a.value(append(path[:len(path):len(path)], strconv.Itoa(i)), elem)
		}
		return out
	default:
		return v
	}
}

func (a *applier) rewrite(path []string, bin bson.Binary) bson.Binary {
	payload, err := a.codec.DecodeJSON(bin.Data)
	if err != nil {
		a.skip(path, err)
		return bin
	}
	doc, ok := payload.(bsonwalk.Document)
	if !ok {
		a.skip(path, fmt.Errorf("payload is %s, want document", bsonwalk.KindOf(payload)))
		return bin
	}

	out := make(bsonwalk.Document, 0, len(doc))
	dropped := 0
	for _, e := range doc {
		elems, ok := e.Value.(bsonwalk.Array)
		if !ok || e.Key != a.filter.Elements {
			out = append(out, e)
			continue
		}
		kept := make(bsonwalk.Array, 0, len(elems))
		for _, elem := range elems {
			if a.filter.Drops(elem) {
				dropped++
				continue
			}
			kept = append(kept, elem)
		}
		out = append(out, bsonwalk.Entry{Key: e.Key, Value: kept})
	}
	if dropped == 0 {
		return bin
	}

	data, err := a.codec.EncodeJSON(out, false)
	if err != nil {
		a.skip(path, err)
		return bin
	}
	a.report.Filtered += dropped
	a.report.Rewritten++
	return bson.Binary{Subtype: bin.Subtype, Data: data}
}

func (a *applier) skip(path []string, err error) {
	a.report.Skipped = append(a.report.Skipped, SkippedContent{Path: bsonwalk.FormatPath(path), Err: err})
}
