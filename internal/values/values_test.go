package values

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"range.from": 1,
		"address":    map[string]any{"zip": "12345"},
	}

	cases := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{name: "flattened key wins", path: "range.from", want: 1, found: true},
		{name: "nested path", path: "address.zip", want: "12345", found: true},
		{name: "missing leaf", path: "address.city", found: false},
		{name: "blank path", path: " ", found: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Lookup(data, tc.path)
			if ok != tc.found {
				t.Fatalf("found = %v, want %v", ok, tc.found)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	for _, v := range []any{nil, "", "   ", []any{}, []string{}, map[string]any{}} {
		if !IsEmpty(v) {
			t.Fatalf("expected %#v to be empty", v)
		}
	}
	for _, v := range []any{false, 0, "x", []any{nil}} {
		if IsEmpty(v) {
			t.Fatalf("expected %#v to be a value", v)
		}
	}
}

func TestMagnitude(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		value any
		want  float64
	}{
		"int":        {value: 7, want: 7},
		"float":      {value: 2.5, want: 2.5},
		"string len": {value: "héllo", want: 5},
		"list len":   {value: []any{"a", "b"}, want: 2},
	}
	for name, tc := range cases {
		got, ok := Magnitude(tc.value)
		if !ok || got != tc.want {
			t.Fatalf("%s: Magnitude(%v) = %v, %v", name, tc.value, got, ok)
		}
	}
	if _, ok := Magnitude(true); ok {
		t.Fatalf("booleans have no magnitude")
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	equal := [][2]any{
		{1, 1.0},
		{"3", 3},
		{true, "true"},
		{[]string{"a"}, []any{"a"}},
		{map[string]any{"k": 1}, map[string]any{"k": 1}},
		{nil, nil},
	}
	for _, pair := range equal {
		if !Equal(pair[0], pair[1]) {
			t.Fatalf("expected %#v == %#v", pair[0], pair[1])
		}
	}
	different := [][2]any{
		{1, 2},
		{nil, ""},
		{[]any{"a"}, []any{"a", "b"}},
		{false, "yes"},
	}
	for _, pair := range different {
		if Equal(pair[0], pair[1]) {
			t.Fatalf("expected %#v != %#v", pair[0], pair[1])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := map[string]any{"list": []any{"a"}, "nested": map[string]any{"k": "v"}}
	copied := Clone(original).(map[string]any)
	copied["list"].([]any)[0] = "z"
	copied["nested"].(map[string]any)["k"] = "changed"

	if diff := cmp.Diff(map[string]any{"list": []any{"a"}, "nested": map[string]any{"k": "v"}}, original); diff != "" {
		t.Fatalf("original mutated (-want +got):\n%s", diff)
	}
}
