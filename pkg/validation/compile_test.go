package validation

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

func mustCompile(t *testing.T, rules []schema.Rule, traits Traits) *Validator {
	t.Helper()
	v, err := NewCompiler().Compile("field", rules, traits)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return v
}

func TestValidatorRules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		rules  []schema.Rule
		traits Traits
		value  any
		want   string
	}{
		{name: "required missing", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, value: nil, want: "This field is required"},
		{name: "required blank string", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, value: "  ", want: "This field is required"},
		{name: "required zero is a value", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, value: 0, want: ""},
		{name: "required false on text field", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, value: false, want: ""},
		{name: "required false on checkbox", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, traits: Traits{Boolean: true}, value: false, want: "This field is required"},
		{name: "required disabled", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: false}}, value: nil, want: ""},
		{name: "min number", rules: []schema.Rule{{Kind: schema.RuleMin, Value: 3}}, value: 2, want: "Must be at least 3"},
		{name: "min string length", rules: []schema.Rule{{Kind: schema.RuleMin, Value: 3}}, value: "ab", want: "Must be at least 3 characters"},
		{name: "max list count", rules: []schema.Rule{{Kind: schema.RuleMax, Value: 1}}, value: []any{"a", "b"}, want: "Select at most 1 options"},
		{name: "length exact", rules: []schema.Rule{{Kind: schema.RuleLength, Value: 4}}, value: "1234", want: ""},
		{name: "pattern mismatch", rules: []schema.Rule{{Kind: schema.RulePattern, Value: `^\d+$`}}, value: "12a", want: "Invalid format"},
		{name: "optional empty skips rules", rules: []schema.Rule{{Kind: schema.RuleMin, Value: 3}}, value: "", want: ""},
		{name: "first failure wins", rules: []schema.Rule{
			{Kind: schema.RuleMin, Value: 5, ErrorMessage: "too short"},
			{Kind: schema.RulePattern, Value: `^\d+$`, ErrorMessage: "digits only"},
		}, value: "ab", want: "too short"},
		{name: "custom message sanitized", rules: []schema.Rule{{Kind: schema.RuleMin, Value: 5, ErrorMessage: "<b>Too</b> short<script>x()</script>"}}, value: "ab", want: "Too short"},
		{name: "email predicate", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "email"}}, value: "nope", want: "Enter a valid email address"},
		{name: "increasing range ok", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "increasingRange"}}, value: map[string]any{"from": 10, "to": 15}, want: ""},
		{name: "increasing range equal", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "increasingRange", ErrorMessage: "bad range"}}, value: map[string]any{"from": 10, "to": 10}, want: "bad range"},
		{name: "required half-open range", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, traits: Traits{Range: true}, value: map[string]any{"from": 5, "to": nil}, want: "This field is required"},
		{name: "required range present", rules: []schema.Rule{{Kind: schema.RuleRequired, Value: true}}, traits: Traits{Range: true}, value: map[string]any{"from": 5, "to": 10}, want: ""},
		{name: "bin range on step", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "binRange", Params: map[string]any{"min": 0, "max": 15, "interval": 5}}}, value: map[string]any{"from": 5, "to": 15}, want: ""},
		{name: "bin range off step", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "binRange", Params: map[string]any{"min": 0, "max": 15, "interval": 5}}}, value: map[string]any{"from": 3, "to": 10}, want: "Select a range that starts and ends on a bin boundary"},
		{name: "bin range past max", rules: []schema.Rule{{Kind: schema.RuleCustom, Value: "binRange", Params: map[string]any{"min": 0, "max": 15}}}, value: map[string]any{"from": 0, "to": 20}, want: "Select a range that starts and ends on a bin boundary"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := mustCompile(t, tc.rules, tc.traits)
			if got := v.Validate(tc.value, visibility.Context{}); got != tc.want {
				t.Fatalf("Validate(%v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestValidatorWhenClause(t *testing.T) {
	t.Parallel()

	rules := []schema.Rule{{
		Kind:  schema.RuleRequired,
		Value: true,
		When:  []schema.RuleGroup{{{Field: "b", Operator: schema.OpEquals, Value: "yes"}}},
	}}
	v := mustCompile(t, rules, Traits{})

	if got := v.Validate(nil, visibility.Context{Values: map[string]any{"b": "no"}}); got != "" {
		t.Fatalf("expected rule to be inactive, got %q", got)
	}
	if got := v.Validate(nil, visibility.Context{Values: map[string]any{"b": "yes"}}); got == "" {
		t.Fatalf("expected required failure when b=yes")
	}
	if deps := v.Dependencies(); len(deps) != 1 || deps[0] != "b" {
		t.Fatalf("unexpected dependencies %v", deps)
	}
}

func TestValidatorCrossField(t *testing.T) {
	t.Parallel()

	v := mustCompile(t, []schema.Rule{{Kind: schema.RuleMoreThanField, Value: "from"}}, Traits{})
	ctx := visibility.Context{Values: map[string]any{"from": 10}}
	if got := v.Validate(5, ctx); got != "Must be greater than from" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := v.Validate(11, ctx); got != "" {
		t.Fatalf("expected pass, got %q", got)
	}

	hidden := visibility.Context{Values: ctx.Values, Mounted: func(string) bool { return false }}
	if got := v.Validate(5, hidden); got != "" {
		t.Fatalf("unmounted counterpart must not fail the rule, got %q", got)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rule schema.Rule
		want error
	}{
		{name: "unknown kind", rule: schema.Rule{Kind: "between"}, want: ErrUnknownRule},
		{name: "non numeric min", rule: schema.Rule{Kind: schema.RuleMin, Value: "many"}, want: ErrInvalidRule},
		{name: "bad pattern", rule: schema.Rule{Kind: schema.RulePattern, Value: "("}, want: ErrInvalidRule},
		{name: "missing predicate", rule: schema.Rule{Kind: schema.RuleCustom, Value: "luhn"}, want: ErrUnknownPredicate},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCompiler().Compile("x", []schema.Rule{tc.rule}, Traits{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCustomPredicateRegistration(t *testing.T) {
	t.Parallel()

	predicates := NewPredicates()
	predicates.Register("even", Predicate{
		Test: func(value any, _ map[string]any) bool {
			n, ok := value.(int)
			return ok && n%2 == 0
		},
		Message: "Must be even",
	})
	compiler := NewCompiler(WithPredicates(predicates))
	v, err := compiler.Compile("n", []schema.Rule{{Kind: schema.RuleCustom, Value: "even"}}, Traits{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := v.Validate(3, visibility.Context{}); got != "Must be even" {
		t.Fatalf("unexpected message %q", got)
	}
	if !predicates.Known("email") {
		t.Fatalf("expected builtin predicates to remain registered")
	}
}
