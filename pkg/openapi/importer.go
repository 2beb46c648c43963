package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Operation summarises an importable operation.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
}

// Importer converts OpenAPI operations into schema documents.
type Importer struct {
	options ImporterOptions
}

// NewImporter constructs an Importer.
func NewImporter(options ...ImporterOption) *Importer {
	return &Importer{options: NewImporterOptions(options...)}
}

// Operations lists the operations of an OpenAPI document sorted by id.
// Operations without an operationId are named "<method>:<path>".
func (i *Importer) Operations(ctx context.Context, raw []byte) ([]Operation, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return nil, err
	}
	var out []Operation
	for _, entry := range collect(spec) {
		out = append(out, entry.Operation)
	}
	return out, nil
}

// Import converts the request body of operationID into a Document whose id
// is the operation id.
func (i *Importer) Import(ctx context.Context, raw []byte, operationID string) (schema.Document, error) {
	spec, err := i.load(ctx, raw)
	if err != nil {
		return schema.Document{}, err
	}
	for _, entry := range collect(spec) {
		if entry.ID != operationID {
			continue
		}
		body := requestSchema(entry.op)
		if body == nil || body.Value == nil || !body.Value.Type.Is(openapi3.TypeObject) {
			return schema.Document{}, fmt.Errorf("%w: %s", ErrNoRequestBody, operationID)
		}
		conv := converter{maxDepth: i.options.MaxDepth, defaults: make(map[string]any)}
		fields := conv.properties(body.Value, "", 1)
		return schema.NewDocument(operationID, fields, conv.defaults), nil
	}
	return schema.Document{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
}

// ImportSource loads the OpenAPI document through loader before importing.
func (i *Importer) ImportSource(ctx context.Context, loader schema.Loader, src schema.Source, operationID string) (schema.Document, error) {
	if loader == nil {
		return schema.Document{}, errors.New("openapi: loader is nil")
	}
	raw, err := loader.Load(ctx, src)
	if err != nil {
		return schema.Document{}, err
	}
	return i.Import(ctx, raw.Raw(), operationID)
}

func (i *Importer) load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: i.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if i.options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return spec, nil
}

type operationEntry struct {
	Operation
	op *openapi3.Operation
}

func collect(spec *openapi3.T) []operationEntry {
	if spec == nil || spec.Paths == nil {
		return nil
	}
	var out []operationEntry
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, operationEntry{
				Operation: Operation{ID: id, Method: strings.ToUpper(method), Path: path, Summary: op.Summary},
				op:        op,
			})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func requestSchema(op *openapi3.Operation) *openapi3.SchemaRef {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	for _, mt := range content {
		if mt != nil {
			return mt.Schema
		}
	}
	return nil
}
