package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/values"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// FieldProps is what a widget collaborator needs to render one node.
type FieldProps struct {
	ID       string
	Kind     string
	Label    string
	Options  []schema.Option
	Value    any
	Error    string
	Disabled bool
	ReadOnly bool
	Visible  bool
	Dirty    bool
}

// SubmitResult is the outcome of Submit. Values is set on success, Errors
// on failure.
type SubmitResult struct {
	Success bool
	Values  map[string]any
	Errors  map[string]string
}

// Ticket identifies pending asynchronous work for a field, such as a file
// upload. It only resolves against the mount it was issued for.
type Ticket struct {
	ID         string
	Field      string
	generation uint64
}

// Form is a live instance of a schema document.
//
// A Form follows an event loop model: collaborators must serialize calls
// into it. Every mutation (change, reset, submit) completes synchronously,
// so listeners always observe a consistent state.
type Form struct {
	id          string
	doc         schema.Document
	roots       []*schema.Node
	nodes       map[string]*schema.Node
	opts        Options
	walker      *Walker
	registry    *validation.Registry
	store       *Store
	lifecycle   *Lifecycle
	snapshot    Snapshot
	visible     []string
	diagnostics schema.Diagnostics
	defaults    map[string]any
	formErrors  []string
	logger      *zap.Logger
	syncing     bool
	syncErr     error
	closed      bool
	unsubscribe func()
}

// New builds a form for doc. Configuration problems in the document do not
// fail construction: they are logged once, exposed through Diagnostics, and
// the offending nodes stay hidden.
func New(doc schema.Document, opts ...Option) (*Form, error) {
	resolved := resolveOptions(opts)
	id := uuid.NewString()

	f := &Form{
		id:     id,
		opts:   resolved,
		logger: resolved.Logger.With(zap.String("form", id), zap.String("document", doc.ID)),
	}
	f.index(doc)
	f.diagnostics = f.check()
	f.logDiagnostics()

	f.walker = NewWalker(resolved.Kinds, resolved.Evaluator, f.diagnostics.Nodes())
	f.registry = validation.NewRegistry(resolved.Compiler)
	f.store = NewStore()
	f.lifecycle = newLifecycle(f.store, f.registry, resolved.HiddenPolicy, f.defaultValue, f.register, f.logger)

	for key := range f.defaults {
		if f.ownsValue(key) {
			if value, ok := f.defaultValue(key); ok {
				f.store.Seed(key, value)
			}
		}
	}

	f.unsubscribe = f.store.Subscribe(f.onStoreChange)
	if err := f.sync(""); err != nil {
		return nil, err
	}
	f.store.Retain(f.lifecycle.Mounted)
	return f, nil
}

// index installs doc as the form's document: roots, the node lookup and the
// defaults used by later mounts and resets.
func (f *Form) index(doc schema.Document) {
	f.doc = doc
	f.roots = doc.Roots()
	f.nodes = make(map[string]*schema.Node)
	for _, node := range schema.Flatten(f.roots) {
		if _, dup := f.nodes[node.ID]; !dup {
			f.nodes[node.ID] = node
		}
	}
	f.defaults = make(map[string]any, len(doc.DefaultValues))
	for key, value := range doc.DefaultValues {
		f.defaults[key] = values.Clone(value)
	}
}

func (f *Form) logDiagnostics() {
	for _, diag := range f.diagnostics {
		f.logger.Warn("schema configuration error",
			zap.String("field", diag.NodeID),
			zap.String("code", string(diag.Code)),
			zap.String("detail", diag.Message),
		)
	}
}

// Update replaces the document of a live form. Mounted fields keep their
// values, pruned to the new options. Validators are recompiled only where
// the rules changed, and fields whose node was removed or no longer owns a
// value are unmounted and unregistered. Defaults of the new document apply
// to later mounts and resets.
func (f *Form) Update(doc schema.Document) error {
	if f.closed {
		return ErrClosed
	}
	f.index(doc)
	f.diagnostics = f.check()
	f.logDiagnostics()
	f.walker = NewWalker(f.opts.Kinds, f.opts.Evaluator, f.diagnostics.Nodes())

	var removed []string
	for _, id := range f.lifecycle.Fields() {
		if !f.ownsValue(id) {
			removed = append(removed, id)
		}
	}
	f.lifecycle.Remove(removed...)
	for id := range f.snapshot {
		if _, ok := f.nodes[id]; !ok {
			delete(f.snapshot, id)
		}
	}

	for _, id := range f.lifecycle.Fields() {
		current, _ := f.store.Value(id)
		restricted, err := f.normalize(id, current)
		if err != nil {
			restricted = nil
		}
		if !values.Equal(current, restricted) {
			f.store.Set(id, restricted, false)
		}
	}

	if err := f.sync(""); err != nil {
		return err
	}
	for _, id := range f.lifecycle.Fields() {
		changed, err := f.register(id)
		if err != nil {
			return fmt.Errorf("engine: update %q: %w", id, err)
		}
		if changed {
			f.registry.MarkChanged(id)
		}
	}
	for _, id := range removed {
		f.registry.MarkChanged(id)
	}
	return nil
}

// check gathers schema diagnostics plus rules the compiler rejects.
func (f *Form) check() schema.Diagnostics {
	diags := schema.Check(f.doc,
		schema.WithKnownKinds(f.opts.Kinds.Known),
		schema.WithKnownPredicates(f.opts.Compiler.Predicates().Known),
	)
	flagged := diags.Nodes()
	for _, node := range schema.Flatten(f.roots) {
		if _, bad := flagged[node.ID]; bad || !f.ownsValue(node.ID) {
			continue
		}
		if _, err := f.opts.Compiler.Compile(node.ID, f.rules(node.ID), f.traits(node.ID)); err != nil {
			diags = append(diags, schema.Diagnostic{
				NodeID:  node.ID,
				Code:    schema.CodeInvalidRule,
				Message: err.Error(),
			})
		}
	}
	return diags
}

// ID returns the form instance identifier.
func (f *Form) ID() string {
	return f.id
}

// Document returns the schema document the form was built from.
func (f *Form) Document() schema.Document {
	return f.doc
}

// Diagnostics returns the configuration errors found at construction.
func (f *Form) Diagnostics() schema.Diagnostics {
	return append(schema.Diagnostics(nil), f.diagnostics...)
}

// Node returns the schema node for id.
func (f *Form) Node(id string) (*schema.Node, bool) {
	node, ok := f.nodes[id]
	return node, ok
}

// Fields lists mounted value-owning fields in traversal order.
func (f *Form) Fields() []string {
	out := make([]string, 0, len(f.visible))
	for _, id := range f.visible {
		if f.lifecycle.Mounted(id) {
			out = append(out, id)
		}
	}
	return out
}

// Visible reports whether node id is currently visible.
func (f *Form) Visible(id string) bool {
	return f.snapshot.Visible(id)
}

// Phase reports the lifecycle phase of a value-owning field.
func (f *Form) Phase(id string) Phase {
	return f.lifecycle.Phase(id)
}

// FieldProps returns the render state of node id.
func (f *Form) FieldProps(id string) (FieldProps, error) {
	if f.closed {
		return FieldProps{}, ErrClosed
	}
	node, ok := f.nodes[id]
	if !ok {
		return FieldProps{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	props := FieldProps{
		ID:       id,
		Kind:     node.Kind,
		Label:    node.Label,
		Options:  node.Options,
		Disabled: node.Disabled,
		ReadOnly: node.ReadOnly,
		Visible:  f.snapshot.Visible(id),
	}
	if f.disabledWhenInvalid(node) {
		props.Disabled = !f.Valid()
	}
	if f.lifecycle.Mounted(id) {
		slot, _ := f.store.Get(id)
		props.Value = slot.Value
		props.Error = slot.Error
		props.Dirty = slot.Dirty
	}
	return props, nil
}

// OnFieldChange records a user edit. The store is updated first, then
// visibility is re-walked, mount deltas are applied and dependent validators
// are marked stale.
func (f *Form) OnFieldChange(id string, raw any) error {
	if f.closed {
		return ErrClosed
	}
	if _, ok := f.nodes[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if !f.ownsValue(id) {
		return fmt.Errorf("%w: %q", ErrNotValueField, id)
	}
	if !f.lifecycle.Mounted(id) {
		return fmt.Errorf("%w: %q", ErrFieldNotMounted, id)
	}
	value, err := f.normalize(id, raw)
	if err != nil {
		return fmt.Errorf("engine: field %q: %w", id, err)
	}

	f.syncErr = nil
	f.store.Set(id, value, true)
	return f.syncErr
}

// Submit validates every mounted field. On success the payload holds the
// values of mounted fields only.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, err
	}
	if f.closed {
		return SubmitResult{}, ErrClosed
	}

	f.formErrors = nil
	result := f.registry.ValidateAll(f.validationContext())
	for _, id := range result.Checked {
		f.store.SetError(id, result.Errors[id])
	}
	if !result.Valid() {
		return SubmitResult{Errors: result.Errors}, nil
	}
	return SubmitResult{
		Success: true,
		Values:  f.store.VisibleValues(f.Fields()),
	}, nil
}

// Reset re-seeds every mounted field. With nil the document defaults are
// used; otherwise to becomes the new set of defaults. Dirty flags, errors
// and preserved hidden values are cleared, then visibility is re-walked.
func (f *Form) Reset(to map[string]any) error {
	if f.closed {
		return ErrClosed
	}
	if to != nil {
		f.defaults = make(map[string]any, len(to))
		for key, value := range to {
			f.defaults[key] = values.Clone(value)
		}
	}
	f.formErrors = nil
	f.lifecycle.Forget()
	f.store.ResetAll(f.lifecycle.Fields(), f.defaultValue)
	if err := f.sync(""); err != nil {
		return err
	}
	for _, id := range f.lifecycle.Fields() {
		f.registry.MarkChanged(id)
	}
	return nil
}

// Dirty reports whether any mounted field was changed by the user.
func (f *Form) Dirty() bool {
	return f.store.Dirty(f.lifecycle.Fields())
}

// Valid runs every mounted validator without surfacing errors.
func (f *Form) Valid() bool {
	if f.closed {
		return false
	}
	return f.registry.Check(f.validationContext()).Valid()
}

// SubmitDisabled reports whether a visible submit control is disabled,
// either statically or because it is configured with
// `disabled: invalid-form` and the form does not validate.
func (f *Form) SubmitDisabled() bool {
	for id, node := range f.nodes {
		if node.Kind != "submit" || !f.snapshot.Visible(id) {
			continue
		}
		if node.Disabled || (f.disabledWhenInvalid(node) && !f.Valid()) {
			return true
		}
	}
	return false
}

// Errors returns the error messages currently attached to fields.
func (f *Form) Errors() map[string]string {
	return f.store.Errors()
}

// SetErrors applies a server side error payload. Paths resolving to mounted
// fields are attached to them; everything else becomes a form-level error.
func (f *Form) SetErrors(payload map[string][]string) ErrorMapping {
	mapping := MapErrorPayload(f.Fields(), payload)
	for id, messages := range mapping.Fields {
		f.store.SetError(id, strings.Join(messages, "; "))
	}
	f.formErrors = mapping.Form
	return mapping
}

// FormErrors returns form-level messages from the last SetErrors call.
func (f *Form) FormErrors() []string {
	return append([]string(nil), f.formErrors...)
}

// Begin issues a ticket for asynchronous work on a mounted field.
func (f *Form) Begin(id string) (Ticket, error) {
	if f.closed {
		return Ticket{}, ErrClosed
	}
	if _, ok := f.nodes[id]; !ok {
		return Ticket{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if !f.lifecycle.Mounted(id) {
		return Ticket{}, fmt.Errorf("%w: %q", ErrFieldNotMounted, id)
	}
	return Ticket{ID: uuid.NewString(), Field: id, generation: f.lifecycle.Generation(id)}, nil
}

// Resolve applies the result of asynchronous work as a user change. It
// returns false, without touching any state, when the field was unmounted
// or remounted since the ticket was issued.
func (f *Form) Resolve(ticket Ticket, value any) bool {
	if f.closed || !f.lifecycle.Mounted(ticket.Field) || f.lifecycle.Generation(ticket.Field) != ticket.generation {
		f.logger.Debug("ignoring stale resolution",
			zap.String("field", ticket.Field),
			zap.String("ticket", ticket.ID),
		)
		return false
	}
	if err := f.OnFieldChange(ticket.Field, value); err != nil {
		f.logger.Debug("resolution rejected",
			zap.String("field", ticket.Field),
			zap.String("ticket", ticket.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Subscribe registers a listener for store changes.
func (f *Form) Subscribe(listener Listener) func() {
	if f.closed {
		return func() {}
	}
	return f.store.Subscribe(listener)
}

// Close tears the form down. Further calls return ErrClosed.
func (f *Form) Close() error {
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
	f.registry.Clear()
	f.store.Close()
	return nil
}

func (f *Form) onStoreChange(change Change) {
	if f.syncing || change.Kind != ChangeValue {
		return
	}
	f.syncErr = f.sync(change.Field)
}

// sync re-walks until no more mounts or unmounts happen, since seeding a
// mounted field can itself reveal other fields.
func (f *Form) sync(changed string) error {
	f.syncing = true
	defer func() { f.syncing = false }()

	var touched []string
	if changed != "" {
		touched = append(touched, changed)
	}
	for pass := 0; pass <= len(f.nodes); pass++ {
		result := f.walker.Walk(f.roots, f.store.Values(), f.snapshot)
		f.snapshot = result.Snapshot
		f.visible = result.Visible
		if result.Delta.Empty() {
			break
		}
		if err := f.lifecycle.Apply(result.Delta); err != nil {
			return err
		}
		touched = append(touched, result.Delta.Unmount...)
		touched = append(touched, result.Delta.Mount...)
	}

	for _, id := range touched {
		f.registry.MarkChanged(id)
	}
	if f.opts.ValidateOnChange && changed != "" {
		result := f.registry.ValidateStale(f.validationContext())
		for _, id := range result.Checked {
			f.store.SetError(id, result.Errors[id])
		}
	}
	return nil
}

func (f *Form) validationContext() visibility.Context {
	return visibility.Context{
		Values:  f.store.Values(),
		Mounted: f.lifecycle.Mounted,
	}
}

func (f *Form) register(id string) (bool, error) {
	return f.registry.Register(id, f.rules(id), f.traits(id))
}

// rules returns the declared rules of id followed by the implicit rules its
// kind adds.
func (f *Form) rules(id string) []schema.Rule {
	node, ok := f.nodes[id]
	if !ok {
		return nil
	}
	constrainer, ok := f.handler(id).(Constrainer)
	if !ok {
		return node.Validation
	}
	implicit := constrainer.Constraints(node)
	if len(implicit) == 0 {
		return node.Validation
	}
	out := make([]schema.Rule, 0, len(node.Validation)+len(implicit))
	out = append(out, node.Validation...)
	return append(out, implicit...)
}

func (f *Form) defaultValue(id string) (any, bool) {
	node, ok := f.nodes[id]
	if !ok {
		return nil, false
	}
	var (
		raw   any
		found bool
	)
	if value, ok := f.defaults[id]; ok {
		raw, found = values.Clone(value), true
	} else if node.HasDefault {
		raw, found = values.Clone(node.Default), true
	} else if seeder, ok := f.handler(id).(Seeder); ok {
		raw, found = seeder.Seed(node)
	}
	if !found {
		return nil, false
	}
	if normalized, err := f.normalize(id, raw); err == nil {
		return normalized, true
	}
	return raw, true
}

func (f *Form) normalize(id string, raw any) (any, error) {
	handler := f.handler(id)
	if handler == nil {
		return raw, nil
	}
	value, err := handler.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if restricter, ok := handler.(Restricter); ok {
		return restricter.Restrict(f.nodes[id], value)
	}
	return value, nil
}

func (f *Form) handler(id string) Handler {
	node, ok := f.nodes[id]
	if !ok {
		return nil
	}
	h, _ := f.opts.Kinds.Lookup(node.Kind)
	return h
}

func (f *Form) ownsValue(id string) bool {
	h := f.handler(id)
	return h != nil && h.Class().OwnsValue()
}

func (f *Form) traits(id string) validation.Traits {
	h := f.handler(id)
	b, isBool := h.(Boolean)
	r, isRange := h.(Ranged)
	return validation.Traits{
		Boolean: isBool && b.Boolean(),
		Range:   isRange && r.Ranged(),
	}
}

func (f *Form) disabledWhenInvalid(node *schema.Node) bool {
	v, ok := node.Prop("disabled")
	s, isString := v.(string)
	return ok && isString && strings.EqualFold(strings.TrimSpace(s), "invalid-form")
}
