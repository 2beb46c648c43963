package engine

import (
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Snapshot maps every node identifier to its visibility after a walk. The
// zero value is an empty snapshot, equivalent to "nothing visible yet".
type Snapshot map[string]bool

// Visible reports whether id was visible in the snapshot.
func (s Snapshot) Visible(id string) bool {
	return s[id]
}

// Delta lists value-owning nodes whose mount state changed between two
// snapshots. Unchanged holds nodes that stayed visible.
type Delta struct {
	Mount     []string
	Unmount   []string
	Unchanged []string
}

// Empty reports whether the walk changed nothing.
func (d Delta) Empty() bool {
	return len(d.Mount) == 0 && len(d.Unmount) == 0
}

// WalkResult is the output of a walk.
type WalkResult struct {
	// Visible lists visible value-owning nodes in traversal order.
	Visible  []string
	Delta    Delta
	Snapshot Snapshot
}

// Walker decides visibility for a node tree. It holds no per-walk state so a
// single Walker can be reused across walks.
type Walker struct {
	kinds     *KindRegistry
	evaluator visibility.Evaluator
	invalid   map[string]struct{}
}

// NewWalker builds a Walker. Nodes listed in invalid are always hidden along
// with their subtree.
func NewWalker(kinds *KindRegistry, evaluator visibility.Evaluator, invalid map[string]struct{}) *Walker {
	if kinds == nil {
		kinds = NewKindRegistry()
	}
	if evaluator == nil {
		evaluator = visibility.Default
	}
	return &Walker{kinds: kinds, evaluator: evaluator, invalid: invalid}
}

// Walk computes visibility for roots given the current values and the
// previous snapshot. It is a pure function of its inputs.
//
// A dependee that is itself hidden counts as absent, so visibility is
// iterated until the snapshot settles. The previous snapshot is the starting
// estimate, which makes a second walk over unchanged inputs return an empty
// delta. Nodes that still flip after the pass limit are forced hidden and the
// walk settles again without them, so a walk always ends in the same state.
func (w *Walker) Walk(roots []*schema.Node, current map[string]any, prev Snapshot) WalkResult {
	estimate := prev
	if estimate == nil {
		estimate = w.everything(roots)
	}

	forced := make(map[string]struct{})
	var next Snapshot
	for {
		var unstable []string
		next, unstable = w.settle(roots, current, estimate, forced)
		if len(unstable) == 0 {
			break
		}
		for _, id := range unstable {
			forced[id] = struct{}{}
		}
		estimate = next
	}

	result := WalkResult{Snapshot: next}
	schema.Walk(roots, func(node, _ *schema.Node) bool {
		if !w.ownsValue(node) {
			return true
		}
		now, before := next[node.ID], prev[node.ID]
		switch {
		case now && !before:
			result.Delta.Mount = append(result.Delta.Mount, node.ID)
		case !now && before:
			result.Delta.Unmount = append(result.Delta.Unmount, node.ID)
		case now:
			result.Delta.Unchanged = append(result.Delta.Unchanged, node.ID)
		}
		if now {
			result.Visible = append(result.Visible, node.ID)
		}
		return true
	})
	return result
}

// settle iterates passes until the snapshot is stable. When the pass limit
// runs out it returns the nodes that still changed in the last pass.
func (w *Walker) settle(roots []*schema.Node, current map[string]any, estimate Snapshot, forced map[string]struct{}) (Snapshot, []string) {
	limit := len(estimate) + 2
	next := estimate
	for i := 0; i < limit; i++ {
		next = w.pass(roots, current, estimate, forced)
		if sameSnapshot(next, estimate) {
			return next, nil
		}
		if i == limit-1 {
			break
		}
		estimate = next
	}
	var unstable []string
	for id, visible := range next {
		if estimate[id] != visible {
			unstable = append(unstable, id)
		}
	}
	return next, unstable
}

func (w *Walker) pass(roots []*schema.Node, current map[string]any, estimate Snapshot, forced map[string]struct{}) Snapshot {
	ctx := visibility.Context{
		Values:  current,
		Mounted: estimate.Visible,
	}
	out := make(Snapshot, len(estimate))
	var visit func(nodes []*schema.Node, parentVisible bool)
	visit = func(nodes []*schema.Node, parentVisible bool) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			_, hidden := forced[node.ID]
			visible := parentVisible && !hidden && w.valid(node) && w.evaluator.Visible(node.ID, node.ShowIf, ctx)
			out[node.ID] = visible
			if node.Children != nil {
				visit(node.Children.List(), visible)
			}
		}
	}
	visit(roots, true)
	return out
}

// everything is the optimistic first estimate used when no snapshot exists.
func (w *Walker) everything(roots []*schema.Node) Snapshot {
	out := make(Snapshot)
	schema.Walk(roots, func(node, _ *schema.Node) bool {
		out[node.ID] = true
		return true
	})
	return out
}

func (w *Walker) valid(node *schema.Node) bool {
	if _, bad := w.invalid[node.ID]; bad {
		return false
	}
	return w.kinds.Known(node.Kind)
}

func (w *Walker) ownsValue(node *schema.Node) bool {
	h, ok := w.kinds.Lookup(node.Kind)
	return ok && h.Class().OwnsValue()
}

func sameSnapshot(a, b Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for id, v := range a {
		if b[id] != v {
			return false
		}
	}
	return true
}
