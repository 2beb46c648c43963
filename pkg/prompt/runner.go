package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Runner fills a Form by asking for each mounted field in order. Answers go
// through Form.OnFieldChange, so fields revealed by an answer are asked next
// and fields hidden by it are skipped.
type Runner struct {
	driver      Driver
	format      OutputFormat
	attempts    int
	transformer SubmitTransformer
	theme       Theme
}

// New constructs a Runner with defaults (survey driver, JSON output, three
// attempts).
func New(options ...Option) *Runner {
	r := &Runner{
		format:   OutputFormatJSON,
		attempts: 3,
		theme:    Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// ContentType reports the media type of Run's output.
func (r *Runner) ContentType() string {
	switch r.format {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Run asks every mounted field, submits, re-asks failing fields until the
// form validates or attempts run out, and returns the serialized payload.
func (r *Runner) Run(ctx context.Context, form *engine.Form) ([]byte, error) {
	if form == nil {
		return nil, errors.New("prompt: form is nil")
	}
	asked := make(map[string]bool)
	if err := r.fill(ctx, form, asked); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		result, err := form.Submit(ctx)
		if err != nil {
			return nil, err
		}
		if result.Success {
			payload := result.Values
			if r.transformer != nil {
				if payload, err = r.transformer(payload); err != nil {
					return nil, fmt.Errorf("prompt: submit transformer: %w", err)
				}
			}
			return Serialize(r.format, payload)
		}
		if attempt >= r.attempts {
			return nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, summarize(form, result.Errors))
		}

		for _, id := range form.Fields() {
			msg, failed := result.Errors[id]
			if !failed {
				continue
			}
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+label(form, id)+": "+msg); err != nil {
				return nil, err
			}
			if err := r.ask(ctx, form, id); err != nil {
				return nil, err
			}
		}
		if err := r.fill(ctx, form, asked); err != nil {
			return nil, err
		}
	}
}

// fill asks each mounted field once. The mounted set is re-read after every
// answer since answers change visibility.
func (r *Runner) fill(ctx context.Context, form *engine.Form, asked map[string]bool) error {
	for {
		next := ""
		for _, id := range form.Fields() {
			if !asked[id] {
				next = id
				break
			}
		}
		if next == "" {
			return nil
		}
		asked[next] = true
		if err := r.ask(ctx, form, next); err != nil {
			return err
		}
	}
}

// ask prompts for one field until the form accepts the answer.
func (r *Runner) ask(ctx context.Context, form *engine.Form, id string) error {
	props, err := form.FieldProps(id)
	if err != nil {
		return err
	}
	if props.Disabled || props.ReadOnly {
		return nil
	}
	node, _ := form.Node(id)

	for try := 0; try < r.attempts; try++ {
		value, err := r.answer(ctx, form, node, props)
		if err != nil {
			return err
		}
		if node.Kind == "file-upload" {
			if err := r.upload(form, id, value); err != nil {
				return err
			}
			return nil
		}
		err = form.OnFieldChange(id, value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, engine.ErrInvalidValue) {
			return err
		}
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+err.Error()); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrTooManyAttempts, id)
}

// upload resolves file fields through a ticket, the same path an async
// uploader would take.
func (r *Runner) upload(form *engine.Form, id string, value any) error {
	ticket, err := form.Begin(id)
	if err != nil {
		return err
	}
	form.Resolve(ticket, value)
	return nil
}

func (r *Runner) answer(ctx context.Context, form *engine.Form, node *schema.Node, props engine.FieldProps) (any, error) {
	message := label(form, node.ID)
	help := node.Description

	switch node.Kind {
	case "checkbox", "switch":
		current, _ := values.Bool(props.Value)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: current, Help: help})

	case "select", "radio":
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      optionLabels(node.Options),
			DefaultIndex: optionIndex(node.Options, props.Value),
			Help:         help,
		})
		if err != nil || idx < 0 || idx >= len(node.Options) {
			return nil, err
		}
		return node.Options[idx].Value, nil

	case "multi-select", "chips":
		if len(node.Options) == 0 {
			raw, err := r.driver.Input(ctx, InputConfig{Message: message + " (comma separated)", Default: joinList(props.Value), Help: help})
			if err != nil {
				return nil, err
			}
			return splitList(raw), nil
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  optionLabels(node.Options),
			Defaults: optionIndices(node.Options, props.Value),
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(node.Options) {
				out = append(out, node.Options[idx].Value)
			}
		}
		return out, nil

	case "textarea":
		return r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: values.String(props.Value), Help: help})

	case "numeric-field":
		return r.driver.Input(ctx, InputConfig{
			Message: message,
			Default: values.String(props.Value),
			Help:    help,
			Validator: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
					return fmt.Errorf("%q is not a number", s)
				}
				return nil
			},
		})

	case "histogram-slider":
		current, _ := props.Value.(map[string]any)
		from, err := r.driver.Input(ctx, InputConfig{Message: message + " from", Default: values.String(current["from"]), Help: help})
		if err != nil {
			return nil, err
		}
		to, err := r.driver.Input(ctx, InputConfig{Message: message + " to", Default: values.String(current["to"]), Help: help})
		if err != nil {
			return nil, err
		}
		return map[string]any{"from": from, "to": to}, nil

	case "filter", "chips-with-text":
		raw, err := r.driver.Input(ctx, InputConfig{Message: message + " (JSON object)", Help: help})
		if err != nil || strings.TrimSpace(raw) == "" {
			return nil, err
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return raw, nil
		}
		return obj, nil

	default:
		cfg := InputConfig{Message: message, Default: values.String(props.Value), Help: help}
		if kind, _ := node.Prop("type"); kind == "password" {
			return r.driver.Password(ctx, cfg)
		}
		return r.driver.Input(ctx, cfg)
	}
}

func label(form *engine.Form, id string) string {
	if node, ok := form.Node(id); ok && strings.TrimSpace(node.Label) != "" {
		return node.Label
	}
	return id
}

func summarize(form *engine.Form, errs map[string]string) string {
	var parts []string
	for _, id := range form.Fields() {
		if msg, ok := errs[id]; ok {
			parts = append(parts, label(form, id)+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

func optionLabels(options []schema.Option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.Label
		if out[i] == "" {
			out[i] = values.String(opt.Value)
		}
	}
	return out
}

func optionIndex(options []schema.Option, current any) int {
	for i, opt := range options {
		if current != nil && values.Equal(opt.Value, current) {
			return i
		}
	}
	return -1
}

func optionIndices(options []schema.Option, current any) []int {
	list, _ := values.List(current)
	var out []int
	for i, opt := range options {
		if values.Contains(list, opt.Value) {
			out = append(out, i)
		}
	}
	return out
}

func joinList(value any) string {
	list, _ := values.List(value)
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, values.String(item))
	}
	return strings.Join(parts, ", ")
}

func splitList(raw string) []any {
	var out []any
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
