// Package validation compiles declarative field rules into validators and
// keeps them in a per-form Registry.
//
// A Registry is owned by exactly one form instance. Fields are registered
// when they mount and unregistered when they unmount, so ValidateAll only
// ever looks at mounted fields. Rules are compiled once per distinct rule
// list; registering the same rules again keeps the existing Validator.
//
// Cross-field rules (equalsField, moreThanField, lessThanField) and rules
// with a `when` clause declare dependencies on other fields. MarkChanged
// marks the changed field and every validator depending on it as stale so
// ValidateStale can re-run just those.
package validation
