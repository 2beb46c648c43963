package engine

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Option configures a Form.
type Option func(*Options)

// Options holds the resolved configuration for a Form.
type Options struct {
	Kinds            *KindRegistry
	Compiler         *validation.Compiler
	Evaluator        visibility.Evaluator
	HiddenPolicy     HiddenPolicy
	ValidateOnChange bool
	Logger           *zap.Logger
}

// WithKinds supplies a kind registry, typically one with custom handlers.
func WithKinds(kinds *KindRegistry) Option {
	return func(o *Options) {
		if kinds != nil {
			o.Kinds = kinds
		}
	}
}

// WithCompiler supplies the rule compiler, e.g. one with custom predicates.
func WithCompiler(compiler *validation.Compiler) Option {
	return func(o *Options) {
		if compiler != nil {
			o.Compiler = compiler
		}
	}
}

// WithEvaluator replaces the visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(o *Options) {
		if evaluator != nil {
			o.Evaluator = evaluator
		}
	}
}

// WithHiddenPolicy selects what happens to values of hidden fields.
func WithHiddenPolicy(policy HiddenPolicy) Option {
	return func(o *Options) {
		o.HiddenPolicy = policy
	}
}

// WithValidateOnChange re-runs stale validators after every change and
// surfaces their messages immediately instead of waiting for submit.
func WithValidateOnChange(enabled bool) Option {
	return func(o *Options) {
		o.ValidateOnChange = enabled
	}
}

// WithLogger sets the logger used for configuration diagnostics and
// lifecycle tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func resolveOptions(opts []Option) Options {
	resolved := Options{HiddenPolicy: ClearOnHide}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	if resolved.Kinds == nil {
		resolved.Kinds = NewKindRegistry()
	}
	if resolved.Compiler == nil {
		resolved.Compiler = validation.NewCompiler()
	}
	if resolved.Evaluator == nil {
		resolved.Evaluator = visibility.Default
	}
	if resolved.Logger == nil {
		resolved.Logger = zap.NewNop()
	}
	return resolved
}
