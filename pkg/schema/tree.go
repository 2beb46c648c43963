package schema

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type valueKind int

const (
	kindScalar valueKind = iota
	kindObject
	kindArray
)

// value is an order-preserving generic document tree shared by the JSON and
// YAML decoders. Plain maps lose key order, which defines render order here.
type value struct {
	kind   valueKind
	keys   []string
	fields map[string]*value
	dups   []string
	items  []*value
	scalar any
}

func newObject() *value {
	return &value{kind: kindObject, fields: make(map[string]*value)}
}

func (v *value) set(key string, child *value) {
	if _, exists := v.fields[key]; exists {
		v.dups = append(v.dups, key)
		v.fields[key] = child
		return
	}
	v.keys = append(v.keys, key)
	v.fields[key] = child
}

func (v *value) get(key string) (*value, bool) {
	if v == nil || v.kind != kindObject {
		return nil, false
	}
	child, ok := v.fields[key]
	return child, ok
}

func (v *value) str() (string, bool) {
	if v == nil || v.kind != kindScalar {
		return "", false
	}
	s, ok := v.scalar.(string)
	return s, ok
}

// plain converts the subtree into map[string]any / []any / scalars.
func (v *value) plain() any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case kindObject:
		out := make(map[string]any, len(v.keys))
		for _, key := range v.keys {
			out[key] = v.fields[key].plain()
		}
		return out
	case kindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.plain()
		}
		return out
	default:
		return v.scalar
	}
}

func decodeTree(raw []byte) (*value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("schema: document is empty")
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if tree, err := decodeJSONTree(trimmed); err == nil {
			return tree, nil
		}
	}
	tree, err := decodeYAMLTree(trimmed)
	if err != nil {
		return nil, errors.New("schema: invalid JSON or YAML")
	}
	return tree, nil
}

func decodeJSONTree(raw []byte) (*value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tree, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("schema: trailing data after document")
	}
	return tree, nil
}

func readJSONValue(dec *json.Decoder) (*value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("schema: expected object key, got %v", keyTok)
				}
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &value{kind: kindArray}
			for dec.More() {
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("schema: unexpected delimiter %q", t)
		}
	case float64:
		return &value{kind: kindScalar, scalar: normalizeNumber(t)}, nil
	default:
		return &value{kind: kindScalar, scalar: t}, nil
	}
}

// normalizeNumber keeps integral JSON numbers as int so JSON and YAML
// documents produce the same default values.
func normalizeNumber(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func decodeYAMLTree(raw []byte) (*value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, errors.New("schema: document is empty")
	}
	return fromYAML(&root)
}

func fromYAML(node *yaml.Node) (*value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, errors.New("schema: document is empty")
		}
		return fromYAML(node.Content[0])
	case yaml.AliasNode:
		return fromYAML(node.Alias)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			child, err := fromYAML(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.set(key, child)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := &value{kind: kindArray}
		for _, item := range node.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			arr.items = append(arr.items, child)
		}
		return arr, nil
	default:
		var scalar any
		if err := node.Decode(&scalar); err != nil {
			return nil, fmt.Errorf("schema: line %d: %w", node.Line, err)
		}
		return &value{kind: kindScalar, scalar: scalar}, nil
	}
}
