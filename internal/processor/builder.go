package processor

import (
	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/schema"
)

// noParent is passed for top-level fields
var noParent = schema.Value[schema.DataType]{}

// build turns the unified fields of a class into a schema. parent is the type
// of the array or object field the class is embedded in, and path holds the
// classes currently being built so that embedding cycles fail fast.
func (p *Processor) build(ref schema.ClassRef, forCollection bool, parent schema.Value[schema.DataType], path []schema.ClassRef) (*document.Schema, error) {
	for _, seen := range path {
		if seen == ref {
			cycle := make([]schema.ClassRef, len(path), len(path)+1)
			copy(cycle, path)
			return nil, &CyclicEmbeddingError{Path: append(cycle, ref)}
		}
	}
	path = append(path, ref)

	fields, err := p.resolveFields(ref, forCollection)
	if err != nil {
		return nil, err
	}

	out := document.NewSchema()
	for _, field := range fields {
		node, err := p.buildField(field, forCollection, parent, path)
		if err != nil {
			return nil, err
		}
		out.Set(field.Name, node)
	}

	return out, nil
}

func (p *Processor) buildField(field schema.FieldDescriptor, forCollection bool, parent schema.Value[schema.DataType], path []schema.ClassRef) (*document.Node, error) {
	node := document.NewNode(field.Type.String())

	switch field.Type {
	case schema.TypeArray:
		if field.Embed == nil {
			break
		}
		var element *document.Node
		if field.Embed.IsClass() {
			nested, err := p.build(field.Embed.Class, forCollection, schema.Some(field.Type), path)
			if err != nil {
				return nil, err
			}
			element = document.NewNestedNode(nested)
		} else {
			element = document.NewNode(field.Embed.Scalar.String())
		}
		node = nestArray(element, field.ArrayDepth)

	case schema.TypeObject:
		if !field.Embed.IsClass() {
			break
		}
		nested, err := p.build(field.Embed.Class, forCollection, schema.Some(field.Type), path)
		if err != nil {
			return nil, err
		}
		if nested.Len() > 0 {
			node = document.NewNestedNode(nested)
		}

	case schema.TypeString:
		if maxLength, ok := field.Options.MaxLength.Get(); ok {
			node.MaxLength = &maxLength
		}
	}

	for _, row := range optionTable {
		value, ok := field.Options.Lookup(row.attr)
		if !ok || !row.applies(field.Type, parent) {
			continue
		}
		node.SetAttr(row.attr.String(), value)
	}

	return node, nil
}

// nestArray wraps element in depth array layers; an unset depth yields a
// single layer
func nestArray(element *document.Node, depth int) *document.Node {
	if depth < 1 {
		depth = 1
	}
	inner := element
	for i := 0; i < depth; i++ {
		inner = &document.Node{
			Type:  schema.TypeArray.String(),
			Items: inner,
		}
	}
	return inner
}
