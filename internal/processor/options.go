package processor

import (
	"github.com/conduit-lang/schemagen/internal/schema"
)

// applicability lists where an optional attribute may not appear: on fields
// of the excluded types, and on fields whose immediate container (the array
// or object they are nested in) has one of the excluded parent types
type applicability struct {
	attr            schema.Attribute
	excludedTypes   []schema.DataType
	excludedParents []schema.DataType
}

var optionTable = []applicability{
	{
		attr: schema.AttrDefault,
	},
	{
		attr:          schema.AttrTimestamp,
		excludedTypes: []schema.DataType{schema.TypeObject},
	},
	{
		attr:            schema.AttrSearchIndex,
		excludedTypes:   []schema.DataType{schema.TypeObject},
		excludedParents: []schema.DataType{schema.TypeArray},
	},
	{
		attr:            schema.AttrSort,
		excludedTypes:   []schema.DataType{schema.TypeObject},
		excludedParents: []schema.DataType{schema.TypeArray},
	},
	{
		attr:            schema.AttrFacet,
		excludedTypes:   []schema.DataType{schema.TypeObject},
		excludedParents: []schema.DataType{schema.TypeArray},
	},
	{
		attr:            schema.AttrDimensions,
		excludedTypes:   []schema.DataType{schema.TypeObject, schema.TypeNumber},
		excludedParents: []schema.DataType{schema.TypeArray},
	},
	{
		attr: schema.AttrID,
		excludedTypes: []schema.DataType{
			schema.TypeObject,
			schema.TypeArray,
			schema.TypeNumber,
			schema.TypeBoolean,
			schema.TypeBigInt,
			schema.TypeInt64,
			schema.TypeInt32,
			schema.TypeDateTime,
		},
		excludedParents: []schema.DataType{schema.TypeArray},
	},
	{
		attr:            schema.AttrIndex,
		excludedTypes:   []schema.DataType{schema.TypeObject},
		excludedParents: []schema.DataType{schema.TypeArray, schema.TypeObject},
	},
}

// applies reports whether the attribute may be attached to a field of type
// fieldType sitting inside a container of type parent (if any)
func (a applicability) applies(fieldType schema.DataType, parent schema.Value[schema.DataType]) bool {
	if containsType(a.excludedTypes, fieldType) {
		return false
	}
	if p, ok := parent.Get(); ok && containsType(a.excludedParents, p) {
		return false
	}
	return true
}

// IsApplicable reports whether attr may be emitted for a field of the given
// type. parent is the type of the enclosing array or object, when known.
func IsApplicable(attr schema.Attribute, fieldType schema.DataType, parent schema.Value[schema.DataType]) bool {
	for _, row := range optionTable {
		if row.attr == attr {
			return row.applies(fieldType, parent)
		}
	}
	return false
}

func containsType(types []schema.DataType, t schema.DataType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
