package validation

import "errors"

var (
	// ErrUnknownRule is returned when a rule kind is outside the vocabulary.
	ErrUnknownRule = errors.New("validation: unknown rule")
	// ErrInvalidRule is returned when a rule's operand cannot be used.
	ErrInvalidRule = errors.New("validation: invalid rule")
	// ErrUnknownPredicate is returned for custom rules naming an unregistered predicate.
	ErrUnknownPredicate = errors.New("validation: unknown predicate")
)
