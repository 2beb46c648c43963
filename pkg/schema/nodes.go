package schema

// Nodes is an insertion-ordered mapping from identifier to child node. The
// order in which keys were added is the render and traversal order.
type Nodes struct {
	keys  []string
	items map[string]*Node
	dups  []string
}

// NewNodes builds an ordered mapping from the supplied nodes, using each
// node's ID as key.
func NewNodes(nodes ...*Node) *Nodes {
	out := &Nodes{items: make(map[string]*Node, len(nodes))}
	for _, node := range nodes {
		if node == nil {
			continue
		}
		out.Set(node.ID, node)
	}
	return out
}

// Set inserts or replaces a node. Replacing keeps the original position but
// remembers the key as duplicated so schema checks can report it.
func (n *Nodes) Set(id string, node *Node) {
	if n.items == nil {
		n.items = make(map[string]*Node)
	}
	if node != nil {
		node.ID = id
	}
	if _, exists := n.items[id]; exists {
		n.dups = append(n.dups, id)
		n.items[id] = node
		return
	}
	n.keys = append(n.keys, id)
	n.items[id] = node
}

// Get returns the node stored under id.
func (n *Nodes) Get(id string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	node, ok := n.items[id]
	return node, ok
}

// Keys returns the identifiers in insertion order.
func (n *Nodes) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// List returns the nodes in insertion order.
func (n *Nodes) List() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.keys))
	for _, key := range n.keys {
		out = append(out, n.items[key])
	}
	return out
}

// Len reports the number of distinct keys.
func (n *Nodes) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Duplicates lists keys that were declared more than once in the same parent.
func (n *Nodes) Duplicates() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.dups...)
}
