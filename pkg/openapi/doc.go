// Package openapi imports form schema documents from OpenAPI 3 operations.
// The request body schema of an operation becomes the field tree; JSON
// Schema constraints become validation rules and defaults become
// defaultValues.
package openapi
