package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/validation"
)

// Phase is a field's position in the mount state machine.
type Phase int

const (
	PhaseUnmounted Phase = iota
	PhaseMounting
	PhaseMounted
	PhaseUnmounting
)

func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseMounting:
		return "mounting"
	case PhaseMounted:
		return "mounted"
	case PhaseUnmounting:
		return "unmounting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// HiddenPolicy decides what happens to a field's value while it is hidden.
type HiddenPolicy int

const (
	// ClearOnHide discards the value on unmount; a remount starts from the
	// default.
	ClearOnHide HiddenPolicy = iota
	// Preserve keeps the last value aside while hidden and restores it on
	// remount. A preserved value never reaches the submit payload.
	Preserve
)

func (p HiddenPolicy) String() string {
	if p == Preserve {
		return "preserve"
	}
	return "clear-on-hide"
}

// Lifecycle owns the mapping between mounted fields and store slots. Only
// walker deltas move fields between phases.
type Lifecycle struct {
	store      *Store
	registry   *validation.Registry
	policy     HiddenPolicy
	defaults   func(id string) (any, bool)
	register   func(id string) (bool, error)
	phases     map[string]Phase
	order      []string
	generation map[string]uint64
	preserved  map[string]any
	logger     *zap.Logger
}

func newLifecycle(store *Store, registry *validation.Registry, policy HiddenPolicy, defaults func(string) (any, bool), register func(string) (bool, error), logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:      store,
		registry:   registry,
		policy:     policy,
		defaults:   defaults,
		register:   register,
		phases:     make(map[string]Phase),
		generation: make(map[string]uint64),
		preserved:  make(map[string]any),
		logger:     logger,
	}
}

// Apply moves fields through the state machine according to delta. Unmounts
// run first so a remount of the same id in a later pass starts clean.
func (l *Lifecycle) Apply(delta Delta) error {
	for _, id := range delta.Unmount {
		l.unmount(id)
	}
	for _, id := range delta.Mount {
		if err := l.mount(id); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lifecycle) mount(id string) error {
	if l.phases[id] == PhaseMounted {
		return nil
	}
	l.phases[id] = PhaseMounting
	l.generation[id]++

	if value, ok := l.preserved[id]; ok && l.policy == Preserve {
		delete(l.preserved, id)
		l.store.Seed(id, value)
	} else if value, ok := l.defaults(id); ok {
		l.store.Seed(id, value)
	} else {
		l.store.Seed(id, nil)
	}

	if _, err := l.register(id); err != nil {
		l.phases[id] = PhaseUnmounted
		l.store.Clear(id)
		return fmt.Errorf("engine: mount %q: %w", id, err)
	}
	l.phases[id] = PhaseMounted
	l.order = append(l.order, id)
	l.logger.Debug("field mounted", zap.String("field", id))
	return nil
}

func (l *Lifecycle) unmount(id string) {
	if l.phases[id] != PhaseMounted {
		return
	}
	l.phases[id] = PhaseUnmounting
	if l.policy == Preserve {
		if value, ok := l.store.Value(id); ok && value != nil {
			l.preserved[id] = value
		}
	}
	l.store.Clear(id)
	l.registry.Unregister(id)
	l.phases[id] = PhaseUnmounted
	for i, field := range l.order {
		if field == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.logger.Debug("field unmounted", zap.String("field", id), zap.Stringer("policy", l.policy))
}

// Remove unmounts fields whose node left the document. Preserved values are
// dropped since there is nothing to restore them into.
func (l *Lifecycle) Remove(ids ...string) {
	for _, id := range ids {
		l.unmount(id)
		delete(l.preserved, id)
		delete(l.phases, id)
	}
}

// Phase returns the current phase of id.
func (l *Lifecycle) Phase(id string) Phase {
	return l.phases[id]
}

// Mounted reports whether id is mounted.
func (l *Lifecycle) Mounted(id string) bool {
	return l.phases[id] == PhaseMounted
}

// Generation increments on every mount of id. Async work started in one
// generation is stale in any other.
func (l *Lifecycle) Generation(id string) uint64 {
	return l.generation[id]
}

// Fields lists mounted fields in mount order.
func (l *Lifecycle) Fields() []string {
	return append([]string(nil), l.order...)
}

// Forget drops preserved values, used by reset.
func (l *Lifecycle) Forget() {
	l.preserved = make(map[string]any)
}
