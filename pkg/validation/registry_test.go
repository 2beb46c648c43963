package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

func requiredRule() []schema.Rule {
	return []schema.Rule{{Kind: schema.RuleRequired, Value: true}}
}

func TestRegistryKeepsValidatorForEqualRules(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	compiled, err := reg.Register("name", requiredRule(), Traits{})
	if err != nil || !compiled {
		t.Fatalf("first register: compiled=%v err=%v", compiled, err)
	}
	first, _ := reg.Entry("name")

	compiled, err = reg.Register("name", requiredRule(), Traits{})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if compiled {
		t.Fatalf("expected equal rules to skip recompilation")
	}
	second, _ := reg.Entry("name")
	if first != second {
		t.Fatalf("expected entry identity to be preserved")
	}
	if reg.Compilations() != 1 {
		t.Fatalf("expected 1 compilation, got %d", reg.Compilations())
	}

	changed := []schema.Rule{{Kind: schema.RuleMin, Value: 2}}
	if compiled, _ := reg.Register("name", changed, Traits{}); !compiled {
		t.Fatalf("expected changed rules to recompile")
	}
	if reg.Compilations() != 2 {
		t.Fatalf("expected 2 compilations, got %d", reg.Compilations())
	}
}

func TestRegistryValidateAllOnlyRegistered(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := reg.Register(id, requiredRule(), Traits{}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	reg.Unregister("b")

	result := reg.ValidateAll(visibility.Context{Values: map[string]any{"a": "x"}})
	if diff := cmp.Diff([]string{"a", "c"}, result.Checked); diff != "" {
		t.Fatalf("checked mismatch (-want +got):\n%s", diff)
	}
	want := map[string]string{"c": "This field is required"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.Valid() {
		t.Fatalf("expected invalid result")
	}
}

func TestRegistryStaleTracking(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	mustRegister := func(id string, rules []schema.Rule) {
		t.Helper()
		if _, err := reg.Register(id, rules, Traits{}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	mustRegister("password", requiredRule())
	mustRegister("confirm", []schema.Rule{{Kind: schema.RuleEqualsField, Value: "password"}})
	mustRegister("other", requiredRule())

	ctx := visibility.Context{Values: map[string]any{"password": "a", "confirm": "b", "other": "x"}}
	reg.ValidateAll(ctx)
	if stale := reg.Stale(); len(stale) != 0 {
		t.Fatalf("expected no stale fields after ValidateAll, got %v", stale)
	}

	affected := reg.MarkChanged("password")
	if diff := cmp.Diff([]string{"password", "confirm"}, affected); diff != "" {
		t.Fatalf("affected mismatch (-want +got):\n%s", diff)
	}

	result := reg.ValidateStale(ctx)
	if diff := cmp.Diff([]string{"password", "confirm"}, result.Checked); diff != "" {
		t.Fatalf("checked mismatch (-want +got):\n%s", diff)
	}
	if result.Errors["confirm"] != "Must match password" {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if stale := reg.Stale(); len(stale) != 0 {
		t.Fatalf("expected stale set to be drained, got %v", stale)
	}
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	if reg.Unregister("missing") {
		t.Fatalf("expected false for unknown field")
	}
	if _, ok := reg.Validate("missing", visibility.Context{}); ok {
		t.Fatalf("expected Validate to report unknown field")
	}
}
