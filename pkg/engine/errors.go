package engine

import "errors"

var (
	// ErrUnknownField is returned for identifiers that are not in the schema.
	ErrUnknownField = errors.New("engine: unknown field")
	// ErrNotValueField is returned when a structural or action node is used
	// where a value-owning field is expected.
	ErrNotValueField = errors.New("engine: node does not hold a value")
	// ErrFieldNotMounted is returned for fields that are currently hidden.
	ErrFieldNotMounted = errors.New("engine: field not mounted")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("engine: form closed")
)
