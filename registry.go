package bsonwalk

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-json-experiment/json/jsontext"
)

const namespaceSeparator = "."

var errNotRegistered = errors.New("not registered")

type funcEntry struct {
	fn   reflect.Value
	elem reflect.Type
}

// Registry holds the directives used to decode sentinel objects. A directive
// is addressed by its fully qualified name ("ext.oid") or, when unique, by
// its short name ("oid").
type Registry struct {
	mu      sync.RWMutex
	entries map[string]funcEntry
	short   map[string][]string

	legacyBinaryStrings bool
}

func newRegistry() *Registry {
	return &Registry{
		entries: make(map[string]funcEntry),
		short:   make(map[string][]string),
	}
}

var (
	jsontextDecoderType = reflect.TypeOf((*jsontext.Decoder)(nil))
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
)

func validateName(name string) error {
	if !strings.Contains(name, namespaceSeparator) {
		return nil
	}
	ns, short, _ := strings.Cut(name, namespaceSeparator)
	if ns == "" || short == "" || strings.Contains(short, namespaceSeparator) {
		return fmt.Errorf("directive %q invalid namespace (expected \"name\" or \"ns.name\")", name)
	}
	return nil
}

func shortName(name string) string {
	if i := strings.LastIndex(name, namespaceSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}

func validateFuncSignature(name string, fn any) (reflect.Value, reflect.Type, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return fnVal, nil, fmt.Errorf("directive %q invalid function signature (got %T)", name, fn)
	}
	typ := fnVal.Type()
	if typ.NumIn() != 2 || typ.NumOut() != 1 {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (expected 2 inputs, 1 output; got %d, %d)", name, typ.NumIn(), typ.NumOut())
	}
	if typ.In(0) != jsontextDecoderType {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (first param must be *jsontext.Decoder; got %s)", name, typ.In(0))
	}
	arg := typ.In(1)
	if arg.Kind() != reflect.Pointer || arg.Elem().Kind() == reflect.Invalid {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (second param must be pointer to concrete type; got %s)", name, arg)
	}
	if typ.Out(0) != errorType {
		return fnVal, typ, fmt.Errorf("directive %q invalid function signature (return type must be error; got %s)", name, typ.Out(0))
	}
	return fnVal, arg.Elem(), nil
}

// Register adds a directive. fn must have the signature
// func(*jsontext.Decoder, *T) error.
func (r *Registry) Register(name string, fn any) error {
	if err := validateName(name); err != nil {
		return err
	}
	fnVal, elemType, err := validateFuncSignature(name, fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("directive %q already registered", name)
	}
	r.entries[name] = funcEntry{fn: fnVal, elem: elemType}
	if strings.Contains(name, namespaceSeparator) {
		s := shortName(name)
		r.short[s] = append(r.short[s], name)
	}
	return nil
}

// Lookup resolves name to the fully qualified name of a registered
// directive.
func (r *Registry) Lookup(name string) (string, bool) {
	full, err := r.resolve(name)
	return full, err == nil
}

func (r *Registry) resolve(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.entries[name]; ok {
		return name, nil
	}
	candidates := r.short[name]
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("directive %q %w", name, errNotRegistered)
	case 1:
		return candidates[0], nil
	default:
		sorted := slices.Clone(candidates)
		slices.Sort(sorted)
		return "", fmt.Errorf("directive %q ambiguous (candidates: %s)", name, strings.Join(sorted, ", "))
	}
}

// Exec runs the directive registered under name against the value at the
// decoder's current position.
func (r *Registry) Exec(name string, dec *jsontext.Decoder) (any, error) {
	full, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	ent := r.entries[full]
	r.mu.RUnlock()

	argv := reflect.New(ent.elem)
	results := ent.fn.Call([]reflect.Value{reflect.ValueOf(dec), argv})
	if errVal := results[0].Interface(); errVal != nil {
		return nil, fmt.Errorf("directive %q execution: %w", full, errVal.(error))
	}
	return argv.Elem().Interface(), nil
}

func (r *Registry) setLegacyBinaryStrings(enabled bool) {
	r.mu.Lock()
	r.legacyBinaryStrings = enabled
	r.mu.Unlock()
}

func (r *Registry) legacyStrings() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.legacyBinaryStrings
}
