package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Class groups node kinds by the role they play in the walk.
type Class int

const (
	// ClassStructural nodes gate their subtree and own no value.
	ClassStructural Class = iota
	// ClassLeaf nodes own a value slot and a validator.
	ClassLeaf
	// ClassComposite nodes own a value slot and also gate child nodes.
	ClassComposite
	// ClassAction nodes (submit, reset) own no value but expose props.
	ClassAction
)

func (c Class) String() string {
	switch c {
	case ClassStructural:
		return "structural"
	case ClassLeaf:
		return "leaf"
	case ClassComposite:
		return "composite"
	case ClassAction:
		return "action"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// OwnsValue reports whether nodes of this class hold a store slot.
func (c Class) OwnsValue() bool {
	return c == ClassLeaf || c == ClassComposite
}

// Handler interprets one node kind.
type Handler interface {
	Class() Class
	// Normalize converts a raw collaborator value into the canonical form
	// stored for the field. nil means "no value".
	Normalize(raw any) (any, error)
}

// Seeder is implemented by handlers that derive a default from the node
// itself when neither defaultValues nor the node declare one.
type Seeder interface {
	Seed(node *schema.Node) (any, bool)
}

// Boolean is implemented by handlers whose `false` value does not satisfy a
// required rule.
type Boolean interface {
	Boolean() bool
}

// Ranged is implemented by handlers whose value is a {from, to} pair. A
// required rule on such a field needs both bounds.
type Ranged interface {
	Ranged() bool
}

// Constrainer is implemented by handlers that add implicit validation rules
// derived from the node, on top of the rules the document declares.
type Constrainer interface {
	Constraints(node *schema.Node) []schema.Rule
}

// Restricter is implemented by handlers whose values must come from the
// node's options.
type Restricter interface {
	Restrict(node *schema.Node, value any) (any, error)
}

// ErrInvalidValue is returned by handlers when a raw value cannot be
// normalized.
var ErrInvalidValue = errors.New("engine: invalid value")

// KindRegistry maps kind tags to handlers. It is safe for concurrent use and
// can be shared between forms.
type KindRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewKindRegistry returns a registry with the built-in kinds registered.
func NewKindRegistry() *KindRegistry {
	reg := &KindRegistry{handlers: make(map[string]Handler)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the handler for kind.
func (r *KindRegistry) Register(kind string, handler Handler) {
	if r == nil || handler == nil {
		return
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Lookup returns the handler for kind.
func (r *KindRegistry) Lookup(kind string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Known reports whether kind has a handler.
func (r *KindRegistry) Known(kind string) bool {
	_, ok := r.Lookup(kind)
	return ok
}

// Kinds lists registered kinds, sorted.
func (r *KindRegistry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// KindHandler is a Handler assembled from plain functions. A nil
// NormalizeFunc stores raw values unchanged.
type KindHandler struct {
	Role            Class
	NormalizeFunc   func(raw any) (any, error)
	SeedFunc        func(node *schema.Node) (any, bool)
	ConstraintsFunc func(node *schema.Node) []schema.Rule
	RestrictFunc    func(node *schema.Node, value any) (any, error)
	BooleanKind     bool
	RangeKind       bool
}

func (h KindHandler) Class() Class { return h.Role }

func (h KindHandler) Normalize(raw any) (any, error) {
	if h.NormalizeFunc == nil {
		return raw, nil
	}
	return h.NormalizeFunc(raw)
}

func (h KindHandler) Seed(node *schema.Node) (any, bool) {
	if h.SeedFunc == nil {
		return nil, false
	}
	return h.SeedFunc(node)
}

func (h KindHandler) Constraints(node *schema.Node) []schema.Rule {
	if h.ConstraintsFunc == nil {
		return nil
	}
	return h.ConstraintsFunc(node)
}

func (h KindHandler) Restrict(node *schema.Node, value any) (any, error) {
	if h.RestrictFunc == nil {
		return value, nil
	}
	return h.RestrictFunc(node, value)
}

func (h KindHandler) Boolean() bool { return h.BooleanKind }

func (h KindHandler) Ranged() bool { return h.RangeKind }

func (r *KindRegistry) registerBuiltins() {
	structural := KindHandler{Role: ClassStructural}
	for _, kind := range []string{"div", "section", "fieldset", "header", "footer", "span", "p", "filter-item"} {
		r.Register(kind, structural)
	}

	action := KindHandler{Role: ClassAction}
	r.Register("submit", action)
	r.Register("reset", action)

	text := KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeText}
	for _, kind := range []string{"text-field", "textarea", "email-field", "date-field"} {
		r.Register(kind, text)
	}

	choice := KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeScalar, RestrictFunc: restrictChoice}
	r.Register("select", choice)
	r.Register("radio", choice)

	r.Register("numeric-field", KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeNumber})

	toggle := KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeBool, BooleanKind: true}
	r.Register("checkbox", toggle)
	r.Register("switch", toggle)

	list := KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeList, RestrictFunc: restrictChoices}
	r.Register("multi-select", list)
	r.Register("chips", list)

	r.Register("file-upload", KindHandler{Role: ClassLeaf})
	r.Register("histogram-slider", KindHandler{
		Role:            ClassLeaf,
		NormalizeFunc:   normalizeRange,
		SeedFunc:        seedRange,
		ConstraintsFunc: rangeConstraints,
		RangeKind:       true,
	})

	composite := KindHandler{Role: ClassComposite, NormalizeFunc: normalizeObject}
	r.Register("filter", composite)
	r.Register("chips-with-text", composite)
}

func normalizeText(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case map[string]any, []any:
		return nil, fmt.Errorf("%w: expected text, got %T", ErrInvalidValue, raw)
	default:
		return values.String(v), nil
	}
}

func normalizeScalar(raw any) (any, error) {
	switch raw.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("%w: expected a single option, got %T", ErrInvalidValue, raw)
	}
	return raw, nil
}

func normalizeNumber(raw any) (any, error) {
	if values.IsEmpty(raw) {
		return nil, nil
	}
	n, ok := values.Number(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidValue, raw)
	}
	return canonicalNumber(n), nil
}

func canonicalNumber(n float64) any {
	if n == float64(int64(n)) {
		return int(n)
	}
	return n
}

func normalizeBool(raw any) (any, error) {
	if raw == nil {
		return false, nil
	}
	b, ok := values.Bool(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a boolean", ErrInvalidValue, raw)
	}
	return b, nil
}

func normalizeList(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if list, ok := values.List(raw); ok {
		return values.Clone(list), nil
	}
	if _, ok := raw.(map[string]any); ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidValue, raw)
	}
	return []any{raw}, nil
}

func normalizeObject(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidValue, raw)
	}
	return values.Clone(obj), nil
}

// normalizeRange accepts {from, to} objects or two element lists.
func normalizeRange(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var from, to any
	switch v := raw.(type) {
	case map[string]any:
		from, to = v["from"], v["to"]
	default:
		list, ok := values.List(raw)
		if !ok || len(list) != 2 {
			return nil, fmt.Errorf("%w: expected {from, to}, got %v", ErrInvalidValue, raw)
		}
		from, to = list[0], list[1]
	}
	out := make(map[string]any, 2)
	for key, bound := range map[string]any{"from": from, "to": to} {
		if values.IsEmpty(bound) {
			out[key] = nil
			continue
		}
		n, ok := values.Number(bound)
		if !ok {
			return nil, fmt.Errorf("%w: %s bound %v is not a number", ErrInvalidValue, key, bound)
		}
		out[key] = canonicalNumber(n)
	}
	return out, nil
}

// restrictChoice rejects a value that is not one of the node's options.
// Nodes without options accept anything.
func restrictChoice(node *schema.Node, value any) (any, error) {
	if value == nil || len(node.Options) == 0 {
		return value, nil
	}
	if !hasOption(node.Options, value) {
		return nil, fmt.Errorf("%w: %v is not an option", ErrInvalidValue, value)
	}
	return value, nil
}

// restrictChoices drops list items that are not among the node's options.
func restrictChoices(node *schema.Node, value any) (any, error) {
	list, ok := value.([]any)
	if !ok || len(node.Options) == 0 {
		return value, nil
	}
	kept := make([]any, 0, len(list))
	for _, item := range list {
		if hasOption(node.Options, item) {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func hasOption(options []schema.Option, value any) bool {
	for _, opt := range options {
		if values.Equal(opt.Value, value) {
			return true
		}
	}
	return false
}

// rangeExtent derives the selectable extent of a histogram slider. Bins are
// {minValue} buckets of a fixed interval, so the extent runs from the lowest
// minValue to the highest minValue plus one interval. Explicit min/max props
// win over bins; bins carrying {min, max} are read as written.
func rangeExtent(node *schema.Node) (lo, hi, step float64, ok bool) {
	if raw, has := node.Prop("interval"); has {
		step, _ = values.Number(raw)
	}
	minRaw, okMin := node.Prop("min")
	maxRaw, okMax := node.Prop("max")
	if okMin && okMax {
		from, okFrom := values.Number(minRaw)
		to, okTo := values.Number(maxRaw)
		return from, to, step, okFrom && okTo && to > from
	}

	raw, has := node.Prop("bins")
	if !has {
		return 0, 0, 0, false
	}
	bins, isList := values.List(raw)
	if !isList || len(bins) == 0 {
		return 0, 0, 0, false
	}

	if step > 0 {
		found := false
		for _, bin := range bins {
			obj, _ := bin.(map[string]any)
			n, isNum := values.Number(obj["minValue"])
			if !isNum {
				continue
			}
			if !found || n < lo {
				lo = n
			}
			if !found || n > hi {
				hi = n
			}
			found = true
		}
		if found {
			return lo, hi + step, step, true
		}
	}

	first, _ := bins[0].(map[string]any)
	last, _ := bins[len(bins)-1].(map[string]any)
	lo, okLo := values.Number(first["min"])
	hi, okHi := values.Number(last["max"])
	return lo, hi, step, okLo && okHi && hi > lo
}

// seedRange defaults a histogram slider to its full extent.
func seedRange(node *schema.Node) (any, bool) {
	lo, hi, _, ok := rangeExtent(node)
	if !ok {
		return nil, false
	}
	return map[string]any{"from": canonicalNumber(lo), "to": canonicalNumber(hi)}, true
}

// rangeConstraints keeps a selected range increasing, inside the extent and
// on interval steps.
func rangeConstraints(node *schema.Node) []schema.Rule {
	lo, hi, step, ok := rangeExtent(node)
	if !ok {
		return []schema.Rule{{Kind: schema.RuleCustom, Value: "increasingRange"}}
	}
	params := map[string]any{"min": canonicalNumber(lo), "max": canonicalNumber(hi)}
	if step > 0 {
		params["interval"] = canonicalNumber(step)
	}
	return []schema.Rule{{Kind: schema.RuleCustom, Value: "binRange", Params: params}}
}
