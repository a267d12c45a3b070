// Package document defines the schema document produced for a collection or
// a search index, and its wire encodings (JSON, YAML, MessagePack).
package document

// Kind tags a document as a collection schema or an index schema
type Kind string

const (
	KindCollection Kind = "collection"
	KindIndex      Kind = "index"
)

// Document is the schema of one class together with its registered name
type Document struct {
	Kind   Kind
	Name   string
	Schema *Schema
}

// Schema maps field names to nodes and keeps declaration order
type Schema struct {
	keys  []string
	nodes map[string]*Node
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{nodes: make(map[string]*Node)}
}

// Set stores the node for name. Replacing an existing node keeps its position.
func (s *Schema) Set(name string, node *Node) {
	if _, exists := s.nodes[name]; !exists {
		s.keys = append(s.keys, name)
	}
	s.nodes[name] = node
}

// Get returns the node of a field
func (s *Schema) Get(name string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	node, ok := s.nodes[name]
	return node, ok
}

// Has reports whether the schema contains name
func (s *Schema) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Len returns the number of fields
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the field names in order
func (s *Schema) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Each calls fn for every field in order
func (s *Schema) Each(fn func(name string, node *Node)) {
	if s == nil {
		return
	}
	for _, k := range s.keys {
		fn(k, s.nodes[k])
	}
}

// PrimaryKey marks a field as a component of the collection's primary key
type PrimaryKey struct {
	Order        int
	AutoGenerate bool
}

// Attr is an optional attribute attached to a node
type Attr struct {
	Key   string
	Value any
}

// Node describes one field. Type holds the scalar type tag unless Nested is
// set, in which case the field's type is the nested schema.
type Node struct {
	Type       string
	Nested     *Schema
	Items      *Node
	MaxLength  *int
	PrimaryKey *PrimaryKey
	Attrs      []Attr
}

// NewNode creates a node of the given type tag
func NewNode(typ string) *Node {
	return &Node{Type: typ}
}

// NewNestedNode creates a node whose type is a nested schema
func NewNestedNode(nested *Schema) *Node {
	return &Node{Nested: nested}
}

// SetAttr attaches or replaces an optional attribute
func (n *Node) SetAttr(key string, value any) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// Attr returns the value of an optional attribute
func (n *Node) Attr(key string) (any, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Depth returns the number of array wrappers around the element node
func (n *Node) Depth() int {
	depth := 0
	for cur := n; cur != nil && cur.Items != nil; cur = cur.Items {
		depth++
	}
	return depth
}
