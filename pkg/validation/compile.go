package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Compiler turns declarative rules into Validators.
type Compiler struct {
	predicates *Predicates
	messages   map[schema.RuleKind]MessageFunc
}

// CompilerOption customises a Compiler.
type CompilerOption func(*Compiler)

// WithPredicates replaces the predicate catalogue used for custom rules.
func WithPredicates(predicates *Predicates) CompilerOption {
	return func(c *Compiler) {
		if predicates != nil {
			c.predicates = predicates
		}
	}
}

// WithMessage overrides the default message for a rule kind. Rules carrying
// their own errorMessage still take precedence.
func WithMessage(kind schema.RuleKind, fn MessageFunc) CompilerOption {
	return func(c *Compiler) {
		if fn != nil {
			c.messages[kind] = fn
		}
	}
}

// NewCompiler constructs a Compiler with the built-in predicates and
// messages.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		predicates: NewPredicates(),
		messages:   make(map[schema.RuleKind]MessageFunc, len(defaultMessages)),
	}
	for kind, fn := range defaultMessages {
		c.messages[kind] = fn
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Predicates exposes the catalogue backing custom rules.
func (c *Compiler) Predicates() *Predicates {
	return c.predicates
}

// Compile builds a Validator for field. A `required: false` rule compiles to
// nothing.
func (c *Compiler) Compile(field string, rules []schema.Rule, traits Traits) (*Validator, error) {
	v := &Validator{
		field:  field,
		rules:  append([]schema.Rule(nil), rules...),
		traits: traits,
	}
	seen := make(map[string]struct{})
	for _, rule := range rules {
		if rule.Kind == schema.RuleRequired {
			if enabled, ok := values.Bool(rule.Value); ok && !enabled {
				continue
			}
		}
		chk, err := c.compileRule(rule, traits)
		if err != nil {
			return nil, fmt.Errorf("validation: field %q: %w", field, err)
		}
		v.checks = append(v.checks, chk)
		for _, dep := range rule.Dependencies() {
			if _, dup := seen[dep]; dup || dep == field {
				continue
			}
			seen[dep] = struct{}{}
			v.deps = append(v.deps, dep)
		}
	}
	return v, nil
}

func (c *Compiler) compileRule(rule schema.Rule, traits Traits) (check, error) {
	chk := check{rule: rule}
	message := c.messages[rule.Kind]
	if message == nil {
		message = func(schema.Rule, any) string { return "Invalid value" }
	}

	switch rule.Kind {
	case schema.RuleRequired:
		chk.test = func(value any, _ visibility.Context) bool {
			return !isMissing(value, traits)
		}

	case schema.RuleMin, schema.RuleMax, schema.RuleLength:
		limit, ok := values.Number(rule.Value)
		if !ok {
			return check{}, fmt.Errorf("%w: %s needs a numeric operand, got %v", ErrInvalidRule, rule.Kind, rule.Value)
		}
		chk.test = boundTest(rule.Kind, limit)

	case schema.RulePattern:
		expr := strings.TrimSpace(values.String(rule.Value))
		re, err := regexp.Compile(expr)
		if expr == "" || err != nil {
			return check{}, fmt.Errorf("%w: pattern %q", ErrInvalidRule, expr)
		}
		chk.test = func(value any, _ visibility.Context) bool {
			s, ok := value.(string)
			return ok && re.MatchString(s)
		}

	case schema.RuleCustom:
		name := strings.TrimSpace(values.String(rule.Value))
		predicate, ok := c.predicates.Lookup(name)
		if !ok {
			return check{}, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
		}
		params := rule.Params
		chk.test = func(value any, _ visibility.Context) bool {
			return predicate.Test(value, params)
		}
		if predicate.Message != "" {
			text := predicate.Message
			message = func(schema.Rule, any) string { return text }
		}

	case schema.RuleEqualsField, schema.RuleMoreThanField, schema.RuleLessThanField:
		ref := rule.Ref()
		if ref == "" {
			return check{}, fmt.Errorf("%w: %s needs a field reference", ErrInvalidRule, rule.Kind)
		}
		chk.test = crossFieldTest(rule.Kind, ref)

	default:
		return check{}, fmt.Errorf("%w: %q", ErrUnknownRule, rule.Kind)
	}

	if custom := sanitizeMessage(rule.ErrorMessage); custom != "" {
		chk.message = func(any) string { return custom }
	} else {
		chk.message = func(value any) string { return message(rule, value) }
	}
	return chk, nil
}

func boundTest(kind schema.RuleKind, limit float64) func(any, visibility.Context) bool {
	return func(value any, _ visibility.Context) bool {
		got, ok := values.Magnitude(value)
		if !ok {
			return false
		}
		switch kind {
		case schema.RuleMin:
			return got >= limit
		case schema.RuleMax:
			return got <= limit
		default:
			return got == limit
		}
	}
}

// crossFieldTest compares against another field's value. A missing or
// hidden counterpart cannot fail the rule.
func crossFieldTest(kind schema.RuleKind, ref string) func(any, visibility.Context) bool {
	return func(value any, ctx visibility.Context) bool {
		other, ok := ctx.Lookup(ref)
		if !ok || values.IsEmpty(other) {
			return true
		}
		if kind == schema.RuleEqualsField {
			return values.Equal(value, other)
		}
		a, okA := values.Number(value)
		b, okB := values.Number(other)
		if !okA || !okB {
			return false
		}
		if kind == schema.RuleMoreThanField {
			return a > b
		}
		return a < b
	}
}
