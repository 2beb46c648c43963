package engine

import (
	"github.com/goliatone/go-formengine/internal/values"
)

// ChangeKind says what kind of mutation a Change describes.
type ChangeKind int

const (
	// ChangeValue is a user originated value update.
	ChangeValue ChangeKind = iota
	// ChangeSeed is a default or preserved value written on mount or reset.
	ChangeSeed
	// ChangeError is an error message update.
	ChangeError
	// ChangeClear is a slot removal on unmount.
	ChangeClear
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeValue:
		return "value"
	case ChangeSeed:
		return "seed"
	case ChangeError:
		return "error"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change is delivered to store listeners after every mutation.
type Change struct {
	Field string
	Kind  ChangeKind
	Value any
	Error string
	Dirty bool
}

// Listener receives store changes synchronously.
type Listener func(Change)

// Slot is the state held for one field.
type Slot struct {
	Value any
	Dirty bool
	Error string
}

// Store is the single source of truth for field values, dirty flags and
// error messages. It belongs to one form and is not safe for concurrent use.
type Store struct {
	slots     map[string]*Slot
	listeners map[int]Listener
	order     []int
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		slots:     make(map[string]*Slot),
		listeners: make(map[int]Listener),
	}
}

// Get returns a copy of the slot for id.
func (s *Store) Get(id string) (Slot, bool) {
	slot, ok := s.slots[id]
	if !ok {
		return Slot{}, false
	}
	out := *slot
	out.Value = values.Clone(slot.Value)
	return out, true
}

// Value returns the current value for id.
func (s *Store) Value(id string) (any, bool) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	return values.Clone(slot.Value), true
}

// Set stores a value. dirty marks the write as user originated; a
// non-dirty write keeps the slot's existing dirty flag.
func (s *Store) Set(id string, value any, dirty bool) {
	slot := s.slot(id)
	slot.Value = values.Clone(value)
	if dirty {
		slot.Dirty = true
	}
	kind := ChangeSeed
	if dirty {
		kind = ChangeValue
	}
	s.notify(Change{Field: id, Kind: kind, Value: slot.Value, Dirty: slot.Dirty})
}

// Seed writes a value and clears the dirty flag and error.
func (s *Store) Seed(id string, value any) {
	slot := s.slot(id)
	slot.Value = values.Clone(value)
	slot.Dirty = false
	slot.Error = ""
	s.notify(Change{Field: id, Kind: ChangeSeed, Value: slot.Value})
}

// SetError attaches msg to id. An empty msg clears the error.
func (s *Store) SetError(id, msg string) {
	slot := s.slot(id)
	if slot.Error == msg {
		return
	}
	slot.Error = msg
	s.notify(Change{Field: id, Kind: ChangeError, Error: msg, Dirty: slot.Dirty, Value: slot.Value})
}

// ClearErrors removes every error message.
func (s *Store) ClearErrors() {
	for id, slot := range s.slots {
		if slot.Error != "" {
			s.SetError(id, "")
		}
	}
}

// Clear discards the slot for id.
func (s *Store) Clear(id string) {
	if _, ok := s.slots[id]; !ok {
		return
	}
	delete(s.slots, id)
	s.notify(Change{Field: id, Kind: ChangeClear})
}

// Retain discards every slot not accepted by keep.
func (s *Store) Retain(keep func(id string) bool) {
	for id := range s.slots {
		if !keep(id) {
			s.Clear(id)
		}
	}
}

// Values returns a copy of every stored value.
func (s *Store) Values() map[string]any {
	out := make(map[string]any, len(s.slots))
	for id, slot := range s.slots {
		out[id] = values.Clone(slot.Value)
	}
	return out
}

// VisibleValues returns the values of the listed fields. Fields without a
// slot are reported as nil so every mounted field appears in the payload.
func (s *Store) VisibleValues(ids []string) map[string]any {
	out := make(map[string]any, len(ids))
	for _, id := range ids {
		if slot, ok := s.slots[id]; ok {
			out[id] = values.Clone(slot.Value)
			continue
		}
		out[id] = nil
	}
	return out
}

// Errors returns the non-empty error messages keyed by field.
func (s *Store) Errors() map[string]string {
	out := make(map[string]string)
	for id, slot := range s.slots {
		if slot.Error != "" {
			out[id] = slot.Error
		}
	}
	return out
}

// ResetAll re-seeds each listed field from defaults, clearing dirty flags
// and errors. It does not re-run visibility; callers walk afterwards.
func (s *Store) ResetAll(ids []string, defaults func(id string) (any, bool)) {
	for _, id := range ids {
		value, _ := defaults(id)
		s.Seed(id, value)
	}
}

// Dirty reports whether any of the listed fields is dirty.
func (s *Store) Dirty(ids []string) bool {
	for _, id := range ids {
		if slot, ok := s.slots[id]; ok && slot.Dirty {
			return true
		}
	}
	return false
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return func() {
		delete(s.listeners, id)
	}
}

// Close drops every slot and listener.
func (s *Store) Close() {
	s.slots = make(map[string]*Slot)
	s.listeners = make(map[int]Listener)
	s.order = nil
}

func (s *Store) slot(id string) *Slot {
	slot, ok := s.slots[id]
	if !ok {
		slot = &Slot{}
		s.slots[id] = slot
	}
	return slot
}

func (s *Store) notify(change Change) {
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			fn(change)
		}
	}
}
