package schema

import "strings"

// Operator names a visibility comparison.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "notEquals"
	OpOneOf     Operator = "oneOf"
	OpNotOneOf  Operator = "notOneOf"
	OpIncludes  Operator = "includes"
	OpFilled    Operator = "filled"
	OpExists    Operator = "exists"
	OpEmpty     Operator = "empty"
	OpNotExists Operator = "notExists"
	OpMin       Operator = "min"
	OpMax       Operator = "max"
	OpMoreThan  Operator = "moreThan"
	OpLessThan  Operator = "lessThan"
	OpLength    Operator = "length"
	OpMatches   Operator = "matches"
)

var knownOperators = map[Operator]struct{}{
	OpEquals: {}, OpNotEquals: {}, OpOneOf: {}, OpNotOneOf: {}, OpIncludes: {},
	OpFilled: {}, OpExists: {}, OpEmpty: {}, OpNotExists: {},
	OpMin: {}, OpMax: {}, OpMoreThan: {}, OpLessThan: {}, OpLength: {}, OpMatches: {},
}

// Known reports whether the operator is part of the visibility vocabulary.
func (o Operator) Known() bool {
	_, ok := knownOperators[o]
	return ok
}

// Condition is one (dependee, operator, value) triple.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// RuleGroup is an AND-combination of conditions. A node is visible when any
// of its groups holds.
type RuleGroup []Condition

// Dependees lists the distinct dependee identifiers referenced by groups, in
// declaration order.
func Dependees(groups []RuleGroup) []string {
	var out []string
	for _, group := range groups {
		for _, cond := range group {
			out = append(out, cond.Field)
		}
	}
	return dedupe(out)
}

// RootID returns the first segment of a dotted dependee path, which is the
// identifier of the node owning the value.
func RootID(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.IndexByte(path, '.'); idx > 0 {
		return path[:idx]
	}
	return path
}
