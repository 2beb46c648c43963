package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DiagnosticCode classifies schema configuration errors.
type DiagnosticCode string

const (
	CodeDuplicateID       DiagnosticCode = "duplicate-id"
	CodeDanglingReference DiagnosticCode = "dangling-reference"
	CodeSelfReference     DiagnosticCode = "self-reference"
	CodeUnknownOperator   DiagnosticCode = "unknown-operator"
	CodeUnknownRule       DiagnosticCode = "unknown-rule"
	CodeInvalidPattern    DiagnosticCode = "invalid-pattern"
	CodeUnknownKind       DiagnosticCode = "unknown-kind"
	CodeUnknownPredicate  DiagnosticCode = "unknown-predicate"
	CodeInvalidRule       DiagnosticCode = "invalid-rule"
	CodeCyclicReference   DiagnosticCode = "cyclic-reference"
)

// Diagnostic is a developer-facing configuration problem attached to a node.
// The offending node is treated as always hidden; the rest of the form keeps
// working.
type Diagnostic struct {
	NodeID  string         `json:"node"`
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.NodeID, d.Code, d.Message)
}

// Diagnostics is the result of Check.
type Diagnostics []Diagnostic

// Nodes returns the set of node identifiers with at least one diagnostic.
func (d Diagnostics) Nodes() map[string]struct{} {
	if len(d) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(d))
	for _, diag := range d {
		out[diag.NodeID] = struct{}{}
	}
	return out
}

// Err folds the diagnostics into a single error, or nil when there are none.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	errs := make([]error, 0, len(d))
	for _, diag := range d {
		errs = append(errs, errors.New(diag.String()))
	}
	return errors.Join(errs...)
}

// CheckOptions lets callers plug in knowledge the schema package does not
// own, such as the registered node kinds and custom predicates.
type CheckOptions struct {
	KnownKind      func(kind string) bool
	KnownPredicate func(name string) bool
}

// CheckOption mutates CheckOptions.
type CheckOption func(*CheckOptions)

// WithKnownKinds enables unknown-kind detection.
func WithKnownKinds(fn func(kind string) bool) CheckOption {
	return func(opts *CheckOptions) {
		opts.KnownKind = fn
	}
}

// WithKnownPredicates enables unknown custom predicate detection.
func WithKnownPredicates(fn func(name string) bool) CheckOption {
	return func(opts *CheckOptions) {
		opts.KnownPredicate = fn
	}
}

// Check reports configuration errors for a document: duplicate identifiers,
// dangling or self references, showIf cycles, unknown operators or rule keys,
// invalid patterns and, when the options allow it, unknown kinds and
// predicates.
func Check(doc Document, options ...CheckOption) Diagnostics {
	var opts CheckOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	roots := doc.Roots()
	var diags Diagnostics

	seen := make(map[string]int)
	Walk(roots, func(node, _ *Node) bool {
		seen[node.ID]++
		if node.Children != nil {
			for _, dup := range node.Children.Duplicates() {
				seen[dup]++
			}
		}
		return true
	})
	for _, section := range doc.Sections {
		for _, dup := range section.Fields.Duplicates() {
			seen[dup]++
		}
	}

	reported := make(map[string]bool)
	Walk(roots, func(node, _ *Node) bool {
		if seen[node.ID] > 1 && !reported[node.ID] {
			reported[node.ID] = true
			diags = append(diags, Diagnostic{
				NodeID:  node.ID,
				Code:    CodeDuplicateID,
				Message: fmt.Sprintf("identifier declared %d times", seen[node.ID]),
			})
		}

		if opts.KnownKind != nil && !opts.KnownKind(node.Kind) {
			diags = append(diags, Diagnostic{
				NodeID:  node.ID,
				Code:    CodeUnknownKind,
				Message: fmt.Sprintf("no handler registered for kind %q", node.Kind),
			})
		}

		diags = append(diags, checkGroups(node.ID, "showIf", node.ShowIf, seen, true)...)
		diags = append(diags, checkRules(node, seen, opts)...)
		return true
	})

	diags = append(diags, checkCycles(roots, seen)...)
	return diags
}

// checkCycles reports every node taking part in a visibility cycle. A node's
// visibility depends on its parent and on its showIf dependees, so a cycle
// through either edge has no stable answer. Self references are reported by
// checkGroups and skipped here.
func checkCycles(roots []*Node, ids map[string]int) Diagnostics {
	var order []string
	edges := make(map[string][]string)
	Walk(roots, func(node, parent *Node) bool {
		if _, known := edges[node.ID]; !known {
			order = append(order, node.ID)
			edges[node.ID] = nil
		}
		if parent != nil {
			edges[node.ID] = append(edges[node.ID], parent.ID)
		}
		for _, dep := range Dependees(node.ShowIf) {
			target := dep
			if _, ok := ids[target]; !ok {
				target = RootID(dep)
			}
			if _, ok := ids[target]; ok && target != node.ID {
				edges[node.ID] = append(edges[node.ID], target)
			}
		}
		return true
	})

	var diags Diagnostics
	for _, component := range stronglyConnected(order, edges) {
		if len(component) < 2 {
			continue
		}
		members := append([]string(nil), component...)
		sort.Strings(members)
		for _, id := range component {
			diags = append(diags, Diagnostic{
				NodeID:  id,
				Code:    CodeCyclicReference,
				Message: "showIf: visibility cycle through " + strings.Join(members, ", "),
			})
		}
	}
	return diags
}

// stronglyConnected runs Tarjan's algorithm. Components come out in a
// deterministic order and list their members in traversal order.
func stronglyConnected(order []string, edges map[string][]string) [][]string {
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		out      [][]string
	)
	var connect func(id string)
	connect = func(id string) {
		indices[id] = index
		lowlinks[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		for _, next := range edges[id] {
			if _, seen := indices[next]; !seen {
				connect(next)
				lowlinks[id] = min(lowlinks[id], lowlinks[next])
			} else if onStack[next] {
				lowlinks[id] = min(lowlinks[id], indices[next])
			}
		}

		if lowlinks[id] != indices[id] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == id {
				break
			}
		}
		sort.Slice(component, func(i, j int) bool { return position[component[i]] < position[component[j]] })
		out = append(out, component)
	}
	for _, id := range order {
		if _, seen := indices[id]; !seen {
			connect(id)
		}
	}
	return out
}

func checkGroups(owner, where string, groups []RuleGroup, ids map[string]int, forbidSelf bool) Diagnostics {
	var diags Diagnostics
	for _, group := range groups {
		for _, cond := range group {
			if !cond.Operator.Known() {
				diags = append(diags, Diagnostic{
					NodeID:  owner,
					Code:    CodeUnknownOperator,
					Message: fmt.Sprintf("%s: unknown operator %q on %q", where, cond.Operator, cond.Field),
				})
			}
			if cond.Operator == OpMatches {
				if pattern, ok := cond.Value.(string); !ok {
					diags = append(diags, Diagnostic{NodeID: owner, Code: CodeInvalidPattern, Message: fmt.Sprintf("%s: matches on %q needs a string pattern", where, cond.Field)})
				} else if _, err := regexp.Compile(pattern); err != nil {
					diags = append(diags, Diagnostic{NodeID: owner, Code: CodeInvalidPattern, Message: fmt.Sprintf("%s: %v", where, err)})
				}
			}
			if diag, ok := checkReference(owner, where, cond.Field, ids, forbidSelf); !ok {
				diags = append(diags, diag)
			}
		}
	}
	return diags
}

func checkRules(node *Node, ids map[string]int, opts CheckOptions) Diagnostics {
	var diags Diagnostics
	for idx, rule := range node.Validation {
		where := fmt.Sprintf("validation[%d]", idx)
		if !rule.Kind.Known() {
			msg := fmt.Sprintf("%s: unknown rule %q", where, rule.Kind)
			if rule.Kind == "" {
				msg = where + ": rule declares no operator"
			}
			diags = append(diags, Diagnostic{NodeID: node.ID, Code: CodeUnknownRule, Message: msg})
			continue
		}
		switch rule.Kind {
		case RulePattern:
			pattern, ok := rule.Value.(string)
			if !ok {
				diags = append(diags, Diagnostic{NodeID: node.ID, Code: CodeInvalidPattern, Message: where + ": pattern must be a string"})
			} else if _, err := regexp.Compile(pattern); err != nil {
				diags = append(diags, Diagnostic{NodeID: node.ID, Code: CodeInvalidPattern, Message: fmt.Sprintf("%s: %v", where, err)})
			}
		case RuleCustom:
			name, _ := rule.Value.(string)
			if opts.KnownPredicate != nil && !opts.KnownPredicate(strings.TrimSpace(name)) {
				diags = append(diags, Diagnostic{NodeID: node.ID, Code: CodeUnknownPredicate, Message: fmt.Sprintf("%s: unknown custom predicate %q", where, name)})
			}
		}
		if rule.Kind.CrossField() {
			if diag, ok := checkReference(node.ID, where, rule.Ref(), ids, true); !ok {
				diags = append(diags, diag)
			}
		}
		// a rule may be conditional on the owner's own value
		diags = append(diags, checkGroups(node.ID, where+".when", rule.When, ids, false)...)
	}
	return diags
}

func checkReference(owner, where, ref string, ids map[string]int, forbidSelf bool) (Diagnostic, bool) {
	if ref == "" {
		return Diagnostic{NodeID: owner, Code: CodeDanglingReference, Message: where + ": empty reference"}, false
	}
	target := ref
	if _, ok := ids[target]; !ok {
		target = RootID(ref)
	}
	if _, ok := ids[target]; !ok {
		return Diagnostic{
			NodeID:  owner,
			Code:    CodeDanglingReference,
			Message: fmt.Sprintf("%s: references unknown field %q", where, ref),
		}, false
	}
	if forbidSelf && target == owner {
		return Diagnostic{
			NodeID:  owner,
			Code:    CodeSelfReference,
			Message: fmt.Sprintf("%s: node references itself", where),
		}, false
	}
	return Diagnostic{}, true
}
