package rule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// rootNode is the node whose children report their errors unqualified.
const rootNode = "rule"

// Kind is the coercion type of a field.
type Kind int

// Field kinds.
const (
	KindAny Kind = iota
	KindString
	KindInt
	KindBool
	KindStrings
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStrings:
		return "string list"
	case KindNode:
		return "object"
	default:
		return "any"
	}
}

// FieldSpec describes one configurable field of a node.
type FieldSpec struct {
	Key      string
	Aliases  []string
	Kind     Kind
	Required bool
	Default  any

	// Build constructs the nested node of a KindNode field.
	Build func(raw map[string]any) (Node, error)
}

// fields holds the resolved value of every FieldSpec of a node.
// A nil entry means absent.
type fields map[string]any

// lookup returns the raw value under key or one of its aliases.
// An explicit null counts as absent.
func (f FieldSpec) lookup(raw map[string]any) (any, bool) {
	if v, ok := raw[f.Key]; ok && v != nil {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := raw[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f FieldSpec) coerce(v any) (any, error) {
	switch f.Kind {
	case KindString:
		return cast.ToStringE(v)
	case KindInt:
		return toInt(v)
	case KindBool:
		return cast.ToBoolE(v)
	case KindStrings:
		if s, ok := v.(string); ok {
			return []string{s}, nil
		}
		return cast.ToStringSliceE(v)
	case KindNode:
		return cast.ToStringMapE(v)
	default:
		return v, nil
	}
}

// toInt reads decimal strings and integral numbers.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
	case float32:
		if float64(n) != math.Trunc(float64(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
	}
	return cast.ToIntE(v)
}

// resolve builds the field values of node from raw, in table order.
// The first failing field aborts the whole node.
func resolve(node string, raw map[string]any, specs []FieldSpec) (fields, error) {
	out := make(fields, len(specs))
	for _, spec := range specs {
		v, ok := spec.lookup(raw)
		switch {
		case ok:
			coerced, err := spec.coerce(v)
			if err != nil {
				return nil, &CoercionError{Node: node, Key: spec.Key, Kind: spec.Kind, Value: v, Err: err}
			}
			if s, isStr := coerced.(string); spec.Required && isStr && strings.TrimSpace(s) == "" {
				return nil, &MissingFieldError{Node: node, Key: spec.Key, Empty: true}
			}
			v = coerced
		case spec.Required:
			return nil, &MissingFieldError{Node: node, Key: spec.Key}
		default:
			v = spec.Default
		}

		if spec.Kind == KindNode && v != nil {
			sub, _ := v.(map[string]any)
			child, err := spec.Build(sub)
			if err != nil {
				return nil, qualify(node, err)
			}
			v = child
		}
		out[spec.Key] = v
	}
	return out, nil
}

// qualify prefixes the node path of a nested construction error with parent.
func qualify(parent string, err error) error {
	if parent == rootNode {
		return err
	}
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		missing.Node = parent + "." + missing.Node
		return err
	}
	var coercion *CoercionError
	if errors.As(err, &coercion) {
		coercion.Node = parent + "." + coercion.Node
	}
	return err
}

func (f fields) str(key string) string {
	s, _ := f[key].(string)
	return s
}

func (f fields) int(key string) int {
	i, _ := f[key].(int)
	return i
}

func (f fields) intPtr(key string) *int {
	i, ok := f[key].(int)
	if !ok {
		return nil
	}
	return &i
}

func (f fields) bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

func (f fields) strs(key string) []string {
	s, _ := f[key].([]string)
	return s
}
