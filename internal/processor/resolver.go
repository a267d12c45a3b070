package processor

import (
	"github.com/conduit-lang/schemagen/internal/schema"
)

// resolveFields returns the unified field list of a class.
//
// For an index the search fields are used as declared. For a collection every
// plain field is emitted in declaration order with the options of a search
// field of the same name merged on top; search fields without a plain
// counterpart follow, in their own declaration order and unmodified.
func (p *Processor) resolveFields(ref schema.ClassRef, forCollection bool) ([]schema.FieldDescriptor, error) {
	searchFields, err := p.metadata.SearchFields(ref)
	if err != nil {
		return nil, err
	}
	if !forCollection {
		return searchFields, nil
	}

	fields, err := p.metadata.Fields(ref)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]int, len(searchFields))
	for i, sf := range searchFields {
		lookup[sf.Name] = i
	}
	visited := make([]bool, len(searchFields))

	merged := make([]schema.FieldDescriptor, 0, len(fields)+len(searchFields))
	for _, f := range fields {
		if i, ok := lookup[f.Name]; ok {
			f.Options = f.Options.Merge(searchFields[i].Options)
			visited[i] = true
		}
		merged = append(merged, f)
	}

	for i, sf := range searchFields {
		if !visited[i] {
			merged = append(merged, sf)
		}
	}

	return merged, nil
}
