package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestBuiltinKindClasses(t *testing.T) {
	t.Parallel()

	reg := NewKindRegistry()
	cases := map[string]Class{
		"section":          ClassStructural,
		"filter-item":      ClassStructural,
		"text-field":       ClassLeaf,
		"histogram-slider": ClassLeaf,
		"filter":           ClassComposite,
		"submit":           ClassAction,
	}
	for kind, want := range cases {
		h, ok := reg.Lookup(kind)
		if !ok {
			t.Fatalf("kind %q not registered", kind)
		}
		if h.Class() != want {
			t.Fatalf("kind %q: got class %s, want %s", kind, h.Class(), want)
		}
	}
	if reg.Known("hologram") {
		t.Fatalf("unexpected kind registered")
	}
}

func TestBuiltinNormalizers(t *testing.T) {
	t.Parallel()

	reg := NewKindRegistry()
	cases := []struct {
		kind string
		raw  any
		want any
	}{
		{kind: "numeric-field", raw: "42", want: 42},
		{kind: "numeric-field", raw: 2.5, want: 2.5},
		{kind: "numeric-field", raw: "", want: nil},
		{kind: "switch", raw: "true", want: true},
		{kind: "chips", raw: "solo", want: []any{"solo"}},
		{kind: "multi-select", raw: []string{"a", "b"}, want: []any{"a", "b"}},
		{kind: "text-field", raw: 12, want: "12"},
		{kind: "histogram-slider", raw: []any{"1", 9}, want: map[string]any{"from": 1, "to": 9}},
	}
	for _, tc := range cases {
		h, _ := reg.Lookup(tc.kind)
		got, err := h.Normalize(tc.raw)
		if err != nil {
			t.Fatalf("%s(%v): %v", tc.kind, tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s(%v) mismatch (-want +got):\n%s", tc.kind, tc.raw, diff)
		}
	}

	h, _ := reg.Lookup("filter")
	if _, err := h.Normalize("flat"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestHistogramSeedsFullRange(t *testing.T) {
	t.Parallel()

	h, _ := NewKindRegistry().Lookup("histogram-slider")
	seeder, ok := h.(Seeder)
	if !ok {
		t.Fatalf("histogram-slider should seed defaults")
	}
	node := &schema.Node{ID: "price", Kind: "histogram-slider", Props: map[string]any{
		"bins": []any{
			map[string]any{"min": 0, "max": 10},
			map[string]any{"min": 10, "max": 50},
		},
	}}
	got, ok := seeder.Seed(node)
	if !ok {
		t.Fatalf("expected a seeded value")
	}
	if diff := cmp.Diff(map[string]any{"from": 0, "to": 50}, got); diff != "" {
		t.Fatalf("seed mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomKindRegistration(t *testing.T) {
	t.Parallel()

	reg := NewKindRegistry()
	reg.Register("rating", KindHandler{Role: ClassLeaf, NormalizeFunc: normalizeNumber})

	form := newForm(t, `
fields:
  stars: { kind: rating, validation: [ { max: 5 } ] }
`, WithKinds(reg))
	if err := form.OnFieldChange("stars", "7"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if form.Valid() {
		t.Fatalf("expected max rule to fail for 7 stars")
	}
	if len(form.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics %v", form.Diagnostics())
	}
}
