package validation

import (
	"fmt"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// MessageFunc builds the default failure message for a rule given the
// offending value.
type MessageFunc func(rule schema.Rule, value any) string

var defaultMessages = map[schema.RuleKind]MessageFunc{
	schema.RuleRequired: func(schema.Rule, any) string { return "This field is required" },
	schema.RuleMin: func(rule schema.Rule, value any) string {
		return boundMessage("at least", rule.Value, value)
	},
	schema.RuleMax: func(rule schema.Rule, value any) string {
		return boundMessage("at most", rule.Value, value)
	},
	schema.RuleLength: func(rule schema.Rule, value any) string {
		return boundMessage("exactly", rule.Value, value)
	},
	schema.RulePattern: func(schema.Rule, any) string { return "Invalid format" },
	schema.RuleCustom:  func(schema.Rule, any) string { return "Invalid value" },
	schema.RuleEqualsField: func(rule schema.Rule, _ any) string {
		return fmt.Sprintf("Must match %s", rule.Ref())
	},
	schema.RuleMoreThanField: func(rule schema.Rule, _ any) string {
		return fmt.Sprintf("Must be greater than %s", rule.Ref())
	},
	schema.RuleLessThanField: func(rule schema.Rule, _ any) string {
		return fmt.Sprintf("Must be less than %s", rule.Ref())
	},
}

func boundMessage(qualifier string, limit, value any) string {
	n := values.String(limit)
	if _, isList := values.List(value); isList {
		return fmt.Sprintf("Select %s %s options", qualifier, n)
	}
	if _, isString := value.(string); isString {
		return fmt.Sprintf("Must be %s %s characters", qualifier, n)
	}
	return fmt.Sprintf("Must be %s %s", qualifier, n)
}
