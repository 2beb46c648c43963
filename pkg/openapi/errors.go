package openapi

import "errors"

var (
	// ErrOperationNotFound is returned when the requested operationId does
	// not exist in the document.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without an object request
	// body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)
