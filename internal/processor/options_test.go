package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/schema"
)

func TestIsApplicable(t *testing.T) {
	array := schema.Some(schema.TypeArray)
	object := schema.Some(schema.TypeObject)

	tests := []struct {
		name   string
		attr   schema.Attribute
		typ    schema.DataType
		parent schema.Value[schema.DataType]
		want   bool
	}{
		{"default on object", schema.AttrDefault, schema.TypeObject, noParent, true},
		{"default under array", schema.AttrDefault, schema.TypeString, array, true},
		{"timestamp on object", schema.AttrTimestamp, schema.TypeObject, noParent, false},
		{"timestamp under array", schema.AttrTimestamp, schema.TypeDateTime, array, true},
		{"searchIndex on string", schema.AttrSearchIndex, schema.TypeString, noParent, true},
		{"searchIndex on object", schema.AttrSearchIndex, schema.TypeObject, noParent, false},
		{"searchIndex under array", schema.AttrSearchIndex, schema.TypeString, array, false},
		{"searchIndex under object", schema.AttrSearchIndex, schema.TypeString, object, true},
		{"sort under array", schema.AttrSort, schema.TypeInt32, array, false},
		{"sort under object", schema.AttrSort, schema.TypeInt32, object, true},
		{"facet on array", schema.AttrFacet, schema.TypeArray, noParent, true},
		{"facet under array", schema.AttrFacet, schema.TypeString, array, false},
		{"dimensions on number", schema.AttrDimensions, schema.TypeNumber, noParent, false},
		{"dimensions on array", schema.AttrDimensions, schema.TypeArray, noParent, true},
		{"dimensions under array", schema.AttrDimensions, schema.TypeByteString, array, false},
		{"id on string", schema.AttrID, schema.TypeString, noParent, true},
		{"id on uuid", schema.AttrID, schema.TypeUUID, noParent, true},
		{"id on array", schema.AttrID, schema.TypeArray, noParent, false},
		{"id on boolean", schema.AttrID, schema.TypeBoolean, noParent, false},
		{"id on bigint", schema.AttrID, schema.TypeBigInt, noParent, false},
		{"id on int64", schema.AttrID, schema.TypeInt64, noParent, false},
		{"id on int32", schema.AttrID, schema.TypeInt32, noParent, false},
		{"id on date-time", schema.AttrID, schema.TypeDateTime, noParent, false},
		{"id on number", schema.AttrID, schema.TypeNumber, noParent, false},
		{"id under object", schema.AttrID, schema.TypeString, object, true},
		{"index on string", schema.AttrIndex, schema.TypeString, noParent, true},
		{"index under object", schema.AttrIndex, schema.TypeString, object, false},
		{"index under array", schema.AttrIndex, schema.TypeString, array, false},
		{"index on object", schema.AttrIndex, schema.TypeObject, noParent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsApplicable(tt.attr, tt.typ, tt.parent))
		})
	}
}

func TestOptionTableCoversEveryAttribute(t *testing.T) {
	assert.Len(t, optionTable, len(schema.Attributes))
	for i, attr := range schema.Attributes {
		assert.Equal(t, attr, optionTable[i].attr)
	}
}

func TestNestArray(t *testing.T) {
	for _, depth := range []int{0, 1, 4} {
		node := nestArray(document.NewNode("uuid"), depth)
		want := depth
		if want < 1 {
			want = 1
		}
		assert.Equal(t, want, node.Depth())

		inner := node
		for inner.Items != nil {
			assert.Equal(t, "array", inner.Type)
			inner = inner.Items
		}
		assert.Equal(t, "uuid", inner.Type)
	}
}
