package validation

import (
	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Validator is the executable form of a field's rules. It owns no external
// resources and is safe to call repeatedly.
type Validator struct {
	field  string
	rules  []schema.Rule
	checks []check
	deps   []string
	traits Traits
}

type check struct {
	rule    schema.Rule
	test    func(value any, ctx visibility.Context) bool
	message func(value any) string
}

// Traits describe how the owning field's value should be interpreted.
type Traits struct {
	// Boolean marks checkbox/switch style fields where `false` does not
	// satisfy a required rule.
	Boolean bool
	// Range marks {from, to} fields where a value with either bound unset
	// does not satisfy a required rule.
	Range bool
}

// Field returns the identifier the validator was compiled for.
func (v *Validator) Field() string {
	return v.field
}

// Rules returns the declarative rules the validator was compiled from.
func (v *Validator) Rules() []schema.Rule {
	return append([]schema.Rule(nil), v.rules...)
}

// Dependencies lists the other fields whose values can change the outcome.
func (v *Validator) Dependencies() []string {
	return append([]string(nil), v.deps...)
}

// Validate runs the checks in declaration order and returns the first failure
// message, or "" when value passes. Other fields are read through ctx.
// Optional empty values only go through required checks.
func (v *Validator) Validate(value any, ctx visibility.Context) string {
	if v == nil {
		return ""
	}
	empty := isMissing(value, v.traits)
	for _, c := range v.checks {
		if len(c.rule.When) > 0 && !visibility.IsVisible(c.rule.When, ctx) {
			continue
		}
		if empty && c.rule.Kind != schema.RuleRequired {
			continue
		}
		if !c.test(value, ctx) {
			return c.message(value)
		}
	}
	return ""
}

func isMissing(value any, traits Traits) bool {
	if values.IsEmpty(value) {
		return true
	}
	if traits.Boolean {
		if b, ok := values.Bool(value); ok && !b {
			return true
		}
	}
	if traits.Range {
		obj, ok := value.(map[string]any)
		return !ok || values.IsEmpty(obj["from"]) || values.IsEmpty(obj["to"])
	}
	return false
}
