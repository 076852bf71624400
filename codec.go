package bsonwalk

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

const indent = "    "

// Codec converts between JSON text and the in-memory document model.
type Codec struct {
	unmarshalers *json.Unmarshalers
	marshalers   *json.Marshalers
}

// NewCodec builds a codec whose decoder dispatches sentinel objects to the
// given registrations. With no registrations every object decodes as a
// plain Document.
func NewCodec(regs ...Registration) (*Codec, error) {
	r, err := NewRegistry(regs...)
	if err != nil {
		return nil, err
	}
	return newCodec(r), nil
}

// PlainCodec returns a codec with no directives. Every object decodes as a
// Document, so "$oid" and friends stay plain keys. Output still uses the
// extended JSON forms.
func PlainCodec() *Codec {
	return newCodec(newRegistry())
}

func newCodec(r *Registry) *Codec {
	return &Codec{
		unmarshalers: Unmarshalers(r),
		marshalers:   Marshalers(),
	}
}

// DecodeJSON parses data into a Document, Array or scalar. Repeated
// object names are kept in order.
func (c *Codec) DecodeJSON(data []byte) (any, error) {
	var v any
	err := json.Unmarshal(data, &v,
		json.WithUnmarshalers(c.unmarshalers),
		jsontext.AllowDuplicateNames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrMalformedInput, err)
	}
	return v, nil
}

// EncodeJSON prints v in stored order. Pretty output is indented by four
// spaces and terminated by a newline.
func (c *Codec) EncodeJSON(v any, pretty bool) ([]byte, error) {
	opts := []json.Options{
		json.WithMarshalers(c.marshalers),
		jsontext.AllowDuplicateNames(true),
	}
	if pretty {
		opts = append(opts, jsontext.WithIndent(indent))
	}
	out, err := json.Marshal(v, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrUnsupportedType, err)
	}
	if pretty {
		out = append(out, '\n')
	}
	return out, nil
}
