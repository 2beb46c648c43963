// Package visibility decides whether schema nodes are shown given the current
// form values. Evaluation is pure: it reads values and never mutates them.
package visibility

import (
	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Evaluator determines whether a node should be visible based on its
// rule-groups and the current form values.
type Evaluator interface {
	Visible(nodeID string, groups []schema.RuleGroup, ctx Context) bool
}

// Context provides inputs to an Evaluator. Values holds the current form
// values keyed by field identifier. Mounted, when set, reports whether a
// dependee is currently mounted; unmounted dependees are treated as absent.
type Context struct {
	Values  map[string]any
	Mounted func(id string) bool
}

// Lookup resolves a dependee path. Paths may address nested composite values
// ("range.from").
func (c Context) Lookup(path string) (any, bool) {
	owner := path
	if _, ok := c.Values[path]; !ok {
		owner = schema.RootID(path)
	}
	if c.Mounted != nil && !c.Mounted(owner) {
		return nil, false
	}
	v, ok := values.Lookup(c.Values, path)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(nodeID string, groups []schema.RuleGroup, ctx Context) bool

// Visible delegates to the underlying function.
func (fn EvaluatorFunc) Visible(nodeID string, groups []schema.RuleGroup, ctx Context) bool {
	return fn(nodeID, groups, ctx)
}

// Default is the rule-group evaluator: absent rules mean visible, otherwise
// at least one group must have every condition hold.
var Default Evaluator = EvaluatorFunc(func(_ string, groups []schema.RuleGroup, ctx Context) bool {
	return IsVisible(groups, ctx)
})

// IsVisible applies OR-of-AND semantics to groups.
func IsVisible(groups []schema.RuleGroup, ctx Context) bool {
	if len(groups) == 0 {
		return true
	}
	for _, group := range groups {
		if GroupHolds(group, ctx) {
			return true
		}
	}
	return false
}

// GroupHolds reports whether every condition in group holds. An empty group
// holds vacuously.
func GroupHolds(group schema.RuleGroup, ctx Context) bool {
	for _, cond := range group {
		if !Holds(cond, ctx) {
			return false
		}
	}
	return true
}

// Holds evaluates a single condition. Unknown operators never hold.
func Holds(cond schema.Condition, ctx Context) bool {
	op, ok := operators[cond.Operator]
	if !ok {
		return false
	}
	got, present := ctx.Lookup(cond.Field)
	return op(got, present, cond.Value)
}
