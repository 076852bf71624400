package bsonwalk

import (
	"errors"
	"strconv"
	"strings"
)

// SkipChildren is returned by a WalkFunc to skip the children of the
// current value. Walk itself never returns it.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every value reached by Walk. path holds the keys
// (and decimal array indices) leading to v; the root has an empty path.
type WalkFunc func(path []string, v any) error

// Walk visits v and every value nested inside it depth first, in stored
// order.
func Walk(v any, fn WalkFunc) error {
	return walk(nil, v, fn)
}

func walk(path []string, v any, fn WalkFunc) error {
	if err := fn(path, v); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	switch val := v.(type) {
	case Document:
		for _, e := range val {
			if err := walk(appendPath(path, e.Key), e.Value, fn); err != nil {
				return err
			}
		}
	case Array:
		for i, elem := range val {
			if err := walk(appendPath(path, strconv.Itoa(i)), elem, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendPath never writes into path's spare capacity, so sibling paths do
// not share storage.
func appendPath(path []string, elem string) []string {
	return append(path[:len(path):len(path)], elem)
}

// FormatPath renders a path as a dotted string, "$" for the root.
func FormatPath(path []string) string {
	if len(path) == 0 {
		return "$"
	}
	return "$." + strings.Join(path, ".")
}
