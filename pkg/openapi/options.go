package openapi

// ImporterOptions configures an Importer.
type ImporterOptions struct {
	// ResolveReferences validates the document and resolves $ref pointers
	// before conversion. Defaults to true.
	ResolveReferences bool
	// MaxDepth bounds nesting of object schemas, which also breaks
	// recursive references. Defaults to 8.
	MaxDepth int
}

// ImporterOption mutates ImporterOptions.
type ImporterOption func(*ImporterOptions)

// WithReferenceResolution toggles validation and reference resolution.
func WithReferenceResolution(enabled bool) ImporterOption {
	return func(opts *ImporterOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithMaxDepth overrides the nesting bound.
func WithMaxDepth(depth int) ImporterOption {
	return func(opts *ImporterOptions) {
		if depth > 0 {
			opts.MaxDepth = depth
		}
	}
}

// NewImporterOptions applies options over the defaults.
func NewImporterOptions(options ...ImporterOption) ImporterOptions {
	cfg := ImporterOptions{
		ResolveReferences: true,
		MaxDepth:          8,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
