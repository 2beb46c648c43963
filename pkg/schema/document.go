package schema

import "errors"

// RawDocument wraps an undecoded form document payload and its origin.
type RawDocument struct {
	source Source
	raw    []byte
}

// NewRawDocument constructs a RawDocument wrapper while validating the inputs.
func NewRawDocument(src Source, raw []byte) (RawDocument, error) {
	if src == nil {
		return RawDocument{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return RawDocument{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return RawDocument{source: src, raw: clone}, nil
}

// Source returns the origin metadata for the payload.
func (d RawDocument) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d RawDocument) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d RawDocument) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Section partitions the top level of a form. Sections carry no visibility
// rules of their own; they only group root nodes.
type Section struct {
	ID     string
	Title  string
	Fields *Nodes
}

// Document is a decoded form schema: one or more sections of nodes plus the
// default values applied once when a form instance mounts.
type Document struct {
	ID            string
	Sections      []Section
	DefaultValues map[string]any
	source        Source
}

// NewDocument builds a single-section document from the supplied root nodes.
// It is mostly useful for tests and programmatic schemas.
func NewDocument(id string, fields *Nodes, defaults map[string]any) Document {
	if fields == nil {
		fields = NewNodes()
	}
	return Document{
		ID:            id,
		Sections:      []Section{{ID: "main", Fields: fields}},
		DefaultValues: defaults,
		source:        SourceInline(id),
	}
}

// Source reports where the document was decoded from, if known.
func (d Document) Source() Source {
	return d.source
}

// Roots returns the top-level nodes of every section in declaration order.
func (d Document) Roots() []*Node {
	var out []*Node
	for _, section := range d.Sections {
		if section.Fields == nil {
			continue
		}
		out = append(out, section.Fields.List()...)
	}
	return out
}

// Lookup finds a node anywhere in the document by identifier.
func (d Document) Lookup(id string) (*Node, bool) {
	var found *Node
	Walk(d.Roots(), func(node *Node, _ *Node) bool {
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found, found != nil
}
