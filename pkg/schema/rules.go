package schema

import "strings"

// RuleKind names a declarative validation rule.
type RuleKind string

const (
	RuleRequired      RuleKind = "required"
	RuleMin           RuleKind = "min"
	RuleMax           RuleKind = "max"
	RuleLength        RuleKind = "length"
	RulePattern       RuleKind = "pattern"
	RuleCustom        RuleKind = "custom"
	RuleEqualsField   RuleKind = "equalsField"
	RuleMoreThanField RuleKind = "moreThanField"
	RuleLessThanField RuleKind = "lessThanField"
)

var knownRuleKinds = map[RuleKind]struct{}{
	RuleRequired:      {},
	RuleMin:           {},
	RuleMax:           {},
	RuleLength:        {},
	RulePattern:       {},
	RuleCustom:        {},
	RuleEqualsField:   {},
	RuleMoreThanField: {},
	RuleLessThanField: {},
}

// Known reports whether the rule kind is part of the supported vocabulary.
func (k RuleKind) Known() bool {
	_, ok := knownRuleKinds[k]
	return ok
}

// CrossField reports whether the rule compares against another field.
func (k RuleKind) CrossField() bool {
	switch k {
	case RuleEqualsField, RuleMoreThanField, RuleLessThanField:
		return true
	default:
		return false
	}
}

// Rule is a single declarative validation constraint. Value holds the
// threshold, expression, predicate name or referenced field depending on
// Kind. When, if present, limits the rule to values for which at least one
// group holds.
type Rule struct {
	Kind         RuleKind
	Value        any
	Params       map[string]any
	ErrorMessage string
	When         []RuleGroup
}

// Ref returns the referenced field identifier for cross-field rules.
func (r Rule) Ref() string {
	if !r.Kind.CrossField() {
		return ""
	}
	s, _ := r.Value.(string)
	return strings.TrimSpace(s)
}

// Dependencies lists every other field whose value can change the outcome of
// the rule.
func (r Rule) Dependencies() []string {
	var deps []string
	if ref := r.Ref(); ref != "" {
		deps = append(deps, ref)
	}
	deps = append(deps, Dependees(r.When)...)
	return dedupe(deps)
}

// Required returns the first enabled required rule, if any.
func Required(rules []Rule) (Rule, bool) {
	for _, rule := range rules {
		if rule.Kind != RuleRequired {
			continue
		}
		if on, ok := rule.Value.(bool); ok && !on {
			continue
		}
		return rule, true
	}
	return Rule{}, false
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
