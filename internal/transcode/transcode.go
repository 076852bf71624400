// Package transcode wires the codec and the prune transforms into the
// conversions the commands run.
package transcode

import (
	"maps"
	"slices"

	"github.com/calumari/bsonwalk"
	"github.com/calumari/bsonwalk/internal/logging"
	"github.com/calumari/bsonwalk/prune"
)

// Options configures a Transcoder.
type Options struct {
	// LegacyBinaryStrings decodes "$binary:<base64>" strings as binary.
	LegacyBinaryStrings bool
	Rules               prune.Rules
	// Content is the embedded element filter; nil disables it.
	Content *prune.ContentFilter
}

// Transcoder converts between BSON and JSON and prunes documents.
type Transcoder struct {
	codec   *bsonwalk.Codec
	rules   prune.Rules
	content *prune.ContentFilter
	logger  logging.Logger
}

// New builds a Transcoder.
func New(opts Options, logger logging.Logger) (*Transcoder, error) {
	codec, err := bsonwalk.NewCodec(
		bsonwalk.ExtendedJSON(),
		bsonwalk.When(opts.LegacyBinaryStrings, bsonwalk.LegacyBinaryStrings),
	)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Transcoder{
		codec:   codec,
		rules:   opts.Rules,
		content: opts.Content,
		logger:  logger,
	}, nil
}

// BSONToJSON decodes every document in data and prints them as a pretty
// JSON array.
func (t *Transcoder) BSONToJSON(data []byte) ([]byte, error) {
	docs, err := bsonwalk.DecodeBSON(data)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("decoded bson", logging.Int("documents", len(docs)), logging.Int("bytes", len(data)))
	return t.codec.EncodeJSON(docs, true)
}

// JSONToBSON parses a JSON document, or an array of documents, and encodes
// it as BSON.
func (t *Transcoder) JSONToBSON(data []byte) ([]byte, error) {
	v, err := t.codec.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	out, err := bsonwalk.EncodeBSON(v)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("encoded bson", logging.String("root", bsonwalk.KindOf(v).String()), logging.Int("bytes", len(out)))
	return out, nil
}

// PruneJSON parses JSON text, prunes it and prints it back pretty.
func (t *Transcoder) PruneJSON(data []byte) ([]byte, error) {
	v, err := t.codec.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return t.codec.EncodeJSON(t.Prune(v), true)
}

// Clean runs the whole round trip in memory: BSON in, pruned BSON out.
func (t *Transcoder) Clean(data []byte) ([]byte, error) {
	docs, err := bsonwalk.DecodeBSON(data)
	if err != nil {
		return nil, err
	}
	return bsonwalk.EncodeBSON(t.Prune(docs))
}

// Prune applies the content filter, when configured, and then the field
// rules. v is not modified.
func (t *Transcoder) Prune(v any) any {
	if t.content != nil {
		var report prune.Report
		v, report = t.content.Apply(v)
		for _, s := range report.Skipped {
			t.logger.Warn("embedded content left unchanged",
				logging.String("path", s.Path),
				logging.Error(s.Err),
			)
		}
		t.logger.Info("filtered embedded content",
			logging.String("search_key", t.content.SearchKey),
			logging.Int("elements_removed", report.Filtered),
			logging.Int("payloads_rewritten", report.Rewritten),
		)
	}

	counts := prune.Count(v, t.rules)
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		t.logger.Debug("pruning field", logging.String("field", key), logging.Int("occurrences", counts[key]))
	}
	t.logger.Info("pruned fields",
		logging.Strings("remove", t.rules.Removed()),
		logging.Strings("preserve", t.rules.Preserved()),
		logging.Int("matches", total(counts)),
	)
	return prune.Value(v, t.rules)
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
