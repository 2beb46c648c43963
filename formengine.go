// Package formengine is the entry point for building interactive forms from
// declarative documents. It wires the loader, schema decoder and form engine
// so callers can go from a source to a live Form in one call.
package formengine

import (
	"context"
	"strings"

	"github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Form aliases engine.Form for callers that only import the root package.
type Form = engine.Form

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return loader.New(schema.NewLoaderOptions(options...))
}

// ParseSource turns a CLI style argument into a Source. http(s) prefixes
// produce URL sources, everything else is treated as a file path.
func ParseSource(raw string) schema.Source {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path)
	}
	return schema.SourceFromFile(path)
}

// LoadDocument fetches and decodes a form document.
func LoadDocument(ctx context.Context, src schema.Source, options ...schema.LoaderOption) (schema.Document, error) {
	return schema.Load(ctx, NewLoader(options...), src)
}

// NewForm loads src and builds a Form from it.
func NewForm(ctx context.Context, src schema.Source, loaderOptions []schema.LoaderOption, options ...engine.Option) (*Form, error) {
	doc, err := LoadDocument(ctx, src, loaderOptions...)
	if err != nil {
		return nil, err
	}
	return engine.New(doc, options...)
}

// ImportOpenAPI converts the request body of an OpenAPI operation into a
// form document.
func ImportOpenAPI(ctx context.Context, src schema.Source, operationID string, loaderOptions []schema.LoaderOption, options ...openapi.ImporterOption) (schema.Document, error) {
	return openapi.NewImporter(options...).ImportSource(ctx, NewLoader(loaderOptions...), src, operationID)
}
