package validation

import (
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Entry is the registry's record for one mounted field.
type Entry struct {
	Field     string
	Validator *Validator
	rules     []schema.Rule
	traits    Traits
}

// Result is the outcome of validating a set of fields. Checked lists the
// fields in the order they were validated; Errors only holds failures.
type Result struct {
	Checked []string
	Errors  map[string]string
}

// Valid reports whether no field failed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Registry maps mounted field identifiers to compiled validators. It belongs
// to a single form and is not safe for concurrent use.
type Registry struct {
	compiler     *Compiler
	entries      map[string]*Entry
	order        []string
	stale        map[string]struct{}
	compilations int
}

// NewRegistry creates an empty registry. A nil compiler falls back to
// NewCompiler().
func NewRegistry(compiler *Compiler) *Registry {
	if compiler == nil {
		compiler = NewCompiler()
	}
	return &Registry{
		compiler: compiler,
		entries:  make(map[string]*Entry),
		stale:    make(map[string]struct{}),
	}
}

// Register installs the validator for id. When id is already registered
// with equal rules and traits the existing validator is kept and false is
// returned. Otherwise the rules are compiled and true is returned.
func (r *Registry) Register(id string, rules []schema.Rule, traits Traits) (bool, error) {
	if existing, ok := r.entries[id]; ok {
		if existing.traits == traits && cmp.Equal(existing.rules, rules) {
			return false, nil
		}
	}
	validator, err := r.compiler.Compile(id, rules, traits)
	if err != nil {
		return false, err
	}
	r.compilations++
	if _, ok := r.entries[id]; !ok {
		r.order = append(r.order, id)
	}
	r.entries[id] = &Entry{
		Field:     id,
		Validator: validator,
		rules:     append([]schema.Rule(nil), rules...),
		traits:    traits,
	}
	r.stale[id] = struct{}{}
	return true, nil
}

// Unregister removes id. It reports whether an entry existed.
func (r *Registry) Unregister(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	delete(r.stale, id)
	for i, field := range r.order {
		if field == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Entry returns the entry for id. The pointer stays the same until the
// rules change or the field is unregistered.
func (r *Registry) Entry(id string) (*Entry, bool) {
	entry, ok := r.entries[id]
	return entry, ok
}

// Fields lists registered identifiers in registration order.
func (r *Registry) Fields() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Compilations counts how many times rules were compiled over the
// registry's lifetime.
func (r *Registry) Compilations() int {
	return r.compilations
}

// Dependents lists the registered fields whose validators read id.
func (r *Registry) Dependents(id string) []string {
	var out []string
	for _, field := range r.order {
		if field == id {
			continue
		}
		for _, dep := range r.entries[field].Validator.Dependencies() {
			if dep == id || schema.RootID(dep) == id {
				out = append(out, field)
				break
			}
		}
	}
	return out
}

// MarkChanged flags id and its dependents as needing validation and returns
// the affected fields.
func (r *Registry) MarkChanged(id string) []string {
	var affected []string
	if r.Has(id) {
		r.stale[id] = struct{}{}
		affected = append(affected, id)
	}
	for _, field := range r.Dependents(id) {
		r.stale[field] = struct{}{}
		affected = append(affected, field)
	}
	return affected
}

// Stale lists fields awaiting validation in registration order.
func (r *Registry) Stale() []string {
	var out []string
	for _, field := range r.order {
		if _, ok := r.stale[field]; ok {
			out = append(out, field)
		}
	}
	return out
}

// Validate runs the validator for id against ctx.Values. The second result
// is false when id is not registered.
func (r *Registry) Validate(id string, ctx visibility.Context) (string, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return "", false
	}
	delete(r.stale, id)
	value, _ := ctx.Lookup(id)
	return entry.Validator.Validate(value, ctx), true
}

// ValidateAll validates every registered field in registration order.
func (r *Registry) ValidateAll(ctx visibility.Context) Result {
	return r.validate(r.Fields(), ctx, true)
}

// ValidateStale validates only fields marked stale and clears the marks.
func (r *Registry) ValidateStale(ctx visibility.Context) Result {
	return r.validate(r.Stale(), ctx, true)
}

// Check validates every registered field without touching the stale marks.
func (r *Registry) Check(ctx visibility.Context) Result {
	return r.validate(r.Fields(), ctx, false)
}

func (r *Registry) validate(fields []string, ctx visibility.Context, drain bool) Result {
	result := Result{Errors: make(map[string]string)}
	for _, field := range fields {
		entry, ok := r.entries[field]
		if !ok {
			continue
		}
		if drain {
			delete(r.stale, field)
		}
		value, _ := ctx.Lookup(field)
		result.Checked = append(result.Checked, field)
		if msg := entry.Validator.Validate(value, ctx); msg != "" {
			result.Errors[field] = msg
		}
	}
	return result
}

// Clear drops every entry. Used when the owning form is torn down.
func (r *Registry) Clear() {
	r.entries = make(map[string]*Entry)
	r.stale = make(map[string]struct{})
	r.order = nil
}
