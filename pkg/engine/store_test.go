package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreDirtyOnlyOnUserChanges(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Seed("name", "Ada")
	if store.Dirty([]string{"name"}) {
		t.Fatalf("seeding must not mark dirty")
	}
	store.Set("name", "Grace", true)
	if !store.Dirty([]string{"name"}) {
		t.Fatalf("user change must mark dirty")
	}
	store.ResetAll([]string{"name"}, func(string) (any, bool) { return "Ada", true })
	slot, _ := store.Get("name")
	if slot.Dirty || slot.Value != "Ada" {
		t.Fatalf("unexpected slot after reset: %+v", slot)
	}
}

func TestStoreListeners(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var kinds []string
	unsubscribe := store.Subscribe(func(c Change) { kinds = append(kinds, c.Kind.String()) })

	store.Seed("a", 1)
	store.Set("a", 2, true)
	store.SetError("a", "bad")
	store.SetError("a", "bad")
	store.Clear("a")
	unsubscribe()
	store.Set("a", 3, true)

	if diff := cmp.Diff([]string{"seed", "value", "error", "clear"}, kinds); diff != "" {
		t.Fatalf("change kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreValuesAreCopies(t *testing.T) {
	t.Parallel()

	store := NewStore()
	tags := []any{"a"}
	store.Set("tags", tags, true)
	tags[0] = "mutated"

	got, _ := store.Value("tags")
	if diff := cmp.Diff([]any{"a"}, got); diff != "" {
		t.Fatalf("stored value changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"tags": []any{"a"}, "missing": nil}, store.VisibleValues([]string{"tags", "missing"})); diff != "" {
		t.Fatalf("visible values mismatch (-want +got):\n%s", diff)
	}
}
