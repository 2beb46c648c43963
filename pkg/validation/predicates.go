package validation

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/internal/values"
)

// Predicate is a named custom check referenced from a `custom` rule.
type Predicate struct {
	Test    func(value any, params map[string]any) bool
	Message string
}

// Predicates is a concurrency safe catalogue of custom predicates. One
// catalogue can be shared by many forms.
type Predicates struct {
	mu    sync.RWMutex
	items map[string]Predicate
}

// NewPredicates returns a catalogue seeded with the built-in predicates.
func NewPredicates() *Predicates {
	p := &Predicates{items: make(map[string]Predicate)}
	p.Register("email", Predicate{Test: isEmail, Message: "Enter a valid email address"})
	p.Register("increasingRange", Predicate{Test: isIncreasingRange, Message: "The upper bound must be greater than the lower bound"})
	p.Register("binRange", Predicate{Test: isBinRange, Message: "Select a range that starts and ends on a bin boundary"})
	p.Register("nonEmptyList", Predicate{Test: isNonEmptyList, Message: "Select at least one option"})
	return p
}

// Register adds or replaces a predicate.
func (p *Predicates) Register(name string, predicate Predicate) {
	name = strings.TrimSpace(name)
	if name == "" || predicate.Test == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[name] = predicate
}

// Lookup returns the predicate registered under name.
func (p *Predicates) Lookup(name string) (Predicate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	predicate, ok := p.items[name]
	return predicate, ok
}

// Known reports whether name is registered. It matches the signature
// expected by schema.WithKnownPredicates.
func (p *Predicates) Known(name string) bool {
	_, ok := p.Lookup(name)
	return ok
}

// Names lists the registered predicate names, sorted.
func (p *Predicates) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.items))
	for name := range p.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isEmail(value any, _ map[string]any) bool {
	s, ok := value.(string)
	return ok && emailPattern.MatchString(strings.TrimSpace(s))
}

// isIncreasingRange accepts {from, to} objects where both bounds are numbers
// and to is strictly greater than from. The key names can be overridden with
// the fromKey and toKey params.
func isIncreasingRange(value any, params map[string]any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	fromKey, toKey := "from", "to"
	if k, ok := params["fromKey"].(string); ok && k != "" {
		fromKey = k
	}
	if k, ok := params["toKey"].(string); ok && k != "" {
		toKey = k
	}
	rawFrom, rawTo := obj[fromKey], obj[toKey]
	if values.IsEmpty(rawFrom) && values.IsEmpty(rawTo) {
		return true
	}
	from, okFrom := values.Number(rawFrom)
	to, okTo := values.Number(rawTo)
	return okFrom && okTo && to > from
}

// isBinRange accepts {from, to} ranges that increase, stay within the min and
// max params and, when an interval param is set, sit on interval steps
// counted from min. Ranges with a missing bound are left to required.
func isBinRange(value any, params map[string]any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	from, okFrom := values.Number(obj["from"])
	to, okTo := values.Number(obj["to"])
	if !okFrom || !okTo {
		return true
	}
	if from >= to {
		return false
	}
	lo, okLo := values.Number(params["min"])
	if okLo && from < lo {
		return false
	}
	if hi, okHi := values.Number(params["max"]); okHi && to > hi {
		return false
	}
	step, _ := values.Number(params["interval"])
	if step <= 0 || !okLo {
		return true
	}
	return onStep(from-lo, step) && onStep(to-lo, step)
}

func onStep(offset, step float64) bool {
	q := offset / step
	return math.Abs(q-math.Round(q)) < 1e-9
}

func isNonEmptyList(value any, _ map[string]any) bool {
	list, ok := values.List(value)
	if !ok {
		return false
	}
	for _, item := range list {
		if !values.IsEmpty(item) {
			return true
		}
	}
	return false
}
