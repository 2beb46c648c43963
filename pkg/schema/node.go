package schema

// Option is a selectable choice for select-like kinds.
type Option struct {
	Label    string `json:"label" yaml:"label"`
	Value    any    `json:"value" yaml:"value"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Node is one declarative unit of the form tree. Structural wrappers only use
// Children (or Text); leaf fields carry a value slot, validation rules and an
// optional default. Which of the two a node is depends on the handler
// registered for its Kind.
type Node struct {
	ID          string
	Kind        string
	Label       string
	Description string
	Text        string
	Children    *Nodes
	Validation  []Rule
	ShowIf      []RuleGroup
	Default     any
	HasDefault  bool
	Disabled    bool
	ReadOnly    bool
	Options     []Option
	Props       map[string]any
}

// HasChildren reports whether the node declares nested nodes.
func (n *Node) HasChildren() bool {
	return n != nil && n.Children != nil && n.Children.Len() > 0
}

// Prop returns a kind-specific property that the decoder did not map onto a
// dedicated struct field.
func (n *Node) Prop(key string) (any, bool) {
	if n == nil || n.Props == nil {
		return nil, false
	}
	v, ok := n.Props[key]
	return v, ok
}

// Walk visits nodes depth-first in declaration order. Returning false from fn
// stops the traversal.
func Walk(roots []*Node, fn func(node, parent *Node) bool) {
	walk(roots, nil, fn)
}

func walk(nodes []*Node, parent *Node, fn func(node, parent *Node) bool) bool {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if !fn(node, parent) {
			return false
		}
		if node.Children != nil {
			if !walk(node.Children.List(), node, fn) {
				return false
			}
		}
	}
	return true
}

// Flatten returns every node reachable from roots in traversal order.
func Flatten(roots []*Node) []*Node {
	var out []*Node
	Walk(roots, func(node, _ *Node) bool {
		out = append(out, node)
		return true
	})
	return out
}
