package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const chainDoc = `
fields:
  a: { kind: text-field }
  b:
    kind: text-field
    showIf:
      - a: { operator: equals, value: "yes" }
  c:
    kind: text-field
    showIf:
      - b: { operator: filled }
  group:
    kind: fieldset
    showIf:
      - a: { operator: equals, value: "yes" }
    children:
      inner: { kind: checkbox }
      note: { kind: p, children: "Shown with the group" }
`

func TestWalkIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, chainDoc)
	walker := NewWalker(nil, nil, nil)
	values := map[string]any{"a": "yes", "b": "filled"}

	first := walker.Walk(doc.Roots(), values, nil)
	if diff := cmp.Diff([]string{"a", "b", "c", "inner"}, first.Delta.Mount); diff != "" {
		t.Fatalf("first mount mismatch (-want +got):\n%s", diff)
	}

	second := walker.Walk(doc.Roots(), values, first.Snapshot)
	if !second.Delta.Empty() {
		t.Fatalf("expected empty delta on second walk, got %+v", second.Delta)
	}
	if diff := cmp.Diff(first.Delta.Mount, second.Delta.Unchanged); diff != "" {
		t.Fatalf("unchanged mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.Snapshot, second.Snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkHiddenDependeeHidesChain(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, chainDoc)
	walker := NewWalker(nil, nil, nil)

	shown := walker.Walk(doc.Roots(), map[string]any{"a": "yes", "b": "filled"}, nil)
	// b keeps its stale value but is hidden, so c must disappear too.
	hidden := walker.Walk(doc.Roots(), map[string]any{"a": "no", "b": "filled"}, shown.Snapshot)

	if diff := cmp.Diff([]string{"b", "c", "inner"}, hidden.Delta.Unmount); diff != "" {
		t.Fatalf("unmount mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, hidden.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	if hidden.Snapshot.Visible("note") {
		t.Fatalf("structural children of a hidden wrapper must be hidden")
	}
}

func TestWalkInvalidNodesStayHidden(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, chainDoc)
	walker := NewWalker(nil, nil, map[string]struct{}{"group": {}})

	result := walker.Walk(doc.Roots(), map[string]any{"a": "yes"}, nil)
	if result.Snapshot.Visible("group") || result.Snapshot.Visible("inner") {
		t.Fatalf("expected invalid subtree to be hidden: %v", result.Snapshot)
	}
}

func TestWalkUnknownKindIsHidden(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
fields:
  odd: { kind: warp-drive }
  name: { kind: text-field }
`)
	result := NewWalker(nil, nil, nil).Walk(doc.Roots(), nil, nil)
	if diff := cmp.Diff([]string{"name"}, result.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
}

const cycleDoc = `
fields:
  a:
    kind: text-field
    showIf:
      - b: { operator: empty }
  b:
    kind: text-field
    showIf:
      - a: { operator: empty }
  c: { kind: text-field }
`

func TestWalkUnsettledCycleIsHiddenAndStable(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, cycleDoc)
	walker := NewWalker(nil, nil, nil)
	values := map[string]any{"a": "x", "b": "y"}

	result := walker.Walk(doc.Roots(), values, nil)
	if diff := cmp.Diff([]string{"c"}, result.Delta.Mount); diff != "" {
		t.Fatalf("first mount mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 4; i++ {
		next := walker.Walk(doc.Roots(), values, result.Snapshot)
		if !next.Delta.Empty() {
			t.Fatalf("walk %d: expected empty delta, got %+v", i+2, next.Delta)
		}
		if diff := cmp.Diff(result.Snapshot, next.Snapshot); diff != "" {
			t.Fatalf("walk %d: snapshot mismatch (-want +got):\n%s", i+2, diff)
		}
		result = next
	}
	if result.Snapshot.Visible("a") || result.Snapshot.Visible("b") {
		t.Fatalf("cycle members should stay hidden: %+v", result.Snapshot)
	}
}
