package prompt

// OutputFormat controls how the submitted payload is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one key=value line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds message prefixes the runner applies to driver output.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SubmitTransformer mutates the payload before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures a Runner.
type Option func(*Runner)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the payload serialization.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Runner) {
		if format != "" {
			r.format = format
		}
	}
}

// WithMaxAttempts bounds how often a failing form is re-asked.
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithSubmitTransformer lets callers reshape the payload.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Runner) {
		r.transformer = fn
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}
