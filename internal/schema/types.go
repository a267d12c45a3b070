// Package schema defines the declaration model for collections and search
// indexes: data types, field descriptors with their option bags, primary keys,
// and the registry that holds them for the lifetime of the process.
package schema

import (
	"fmt"
)

// DataType is the type tag of a declared field
type DataType int

const (
	TypeString DataType = iota
	TypeBoolean
	TypeInt32
	TypeInt64
	TypeNumber
	TypeBigInt
	TypeDateTime
	TypeByteString
	TypeUUID

	// Container types
	TypeArray
	TypeObject
)

// String returns the wire tag of the data type
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeNumber:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeDateTime:
		return "date-time"
	case TypeByteString:
		return "byte"
	case TypeUUID:
		return "uuid"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseDataType converts a wire tag to a DataType
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "boolean":
		return TypeBoolean, nil
	case "int32":
		return TypeInt32, nil
	case "int64":
		return TypeInt64, nil
	case "number":
		return TypeNumber, nil
	case "bigint":
		return TypeBigInt, nil
	case "date-time":
		return TypeDateTime, nil
	case "byte":
		return TypeByteString, nil
	case "uuid":
		return TypeUUID, nil
	case "array":
		return TypeArray, nil
	case "object":
		return TypeObject, nil
	default:
		return 0, fmt.Errorf("unknown data type: %s", s)
	}
}

// IsValid reports whether t is one of the declared data types
func (t DataType) IsValid() bool {
	return t >= TypeString && t <= TypeObject
}

// IsContainer returns true for array and object types
func (t DataType) IsContainer() bool {
	return t == TypeArray || t == TypeObject
}

// MarshalText implements encoding.TextMarshaler
func (t DataType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid data type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ClassRef identifies a declared class in the registry
type ClassRef string

// EmbedType is the element type of an array field or the member type of an
// object field. It is either a scalar type tag or a reference to another class.
type EmbedType struct {
	Scalar DataType
	Class  ClassRef
}

// EmbedScalar returns an embed type holding a scalar tag
func EmbedScalar(t DataType) *EmbedType {
	return &EmbedType{Scalar: t}
}

// EmbedClass returns an embed type referencing another class
func EmbedClass(ref ClassRef) *EmbedType {
	return &EmbedType{Class: ref}
}

// IsClass returns true if the embed type references a class
func (e *EmbedType) IsClass() bool {
	return e != nil && e.Class != ""
}

// String returns a readable representation of the embed type
func (e *EmbedType) String() string {
	if e == nil {
		return ""
	}
	if e.IsClass() {
		return string(e.Class)
	}
	return e.Scalar.String()
}

// TimestampKind selects which write sets a timestamp field
type TimestampKind string

const (
	TimestampCreatedAt TimestampKind = "createdAt"
	TimestampUpdatedAt TimestampKind = "updatedAt"
)

// Value is an optional attribute value with an explicit set flag
type Value[T any] struct {
	V   T
	Set bool
}

// Some returns a set Value holding v
func Some[T any](v T) Value[T] {
	return Value[T]{V: v, Set: true}
}

// Get returns the value and whether it was set
func (v Value[T]) Get() (T, bool) {
	return v.V, v.Set
}

// Or returns the value if set, otherwise fallback
func (v Value[T]) Or(fallback T) T {
	if v.Set {
		return v.V
	}
	return fallback
}

// override returns over when it is set, otherwise v
func override[T any](v, over Value[T]) Value[T] {
	if over.Set {
		return over
	}
	return v
}

// Attribute names one of the optional schema attributes
type Attribute int

const (
	AttrDefault Attribute = iota
	AttrTimestamp
	AttrSearchIndex
	AttrSort
	AttrFacet
	AttrDimensions
	AttrID
	AttrIndex
)

// Attributes lists every optional attribute in emission order
var Attributes = []Attribute{
	AttrDefault,
	AttrTimestamp,
	AttrSearchIndex,
	AttrSort,
	AttrFacet,
	AttrDimensions,
	AttrID,
	AttrIndex,
}

// String returns the document key of the attribute
func (a Attribute) String() string {
	switch a {
	case AttrDefault:
		return "default"
	case AttrTimestamp:
		return "timestamp"
	case AttrSearchIndex:
		return "searchIndex"
	case AttrSort:
		return "sort"
	case AttrFacet:
		return "facet"
	case AttrDimensions:
		return "dimensions"
	case AttrID:
		return "id"
	case AttrIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Options is the option bag of a field. Every attribute carries its own set
// flag so that an explicit false or zero is distinguishable from absence.
type Options struct {
	Default     Value[any]
	Timestamp   Value[TimestampKind]
	SearchIndex Value[bool]
	Sort        Value[bool]
	Facet       Value[bool]
	Dimensions  Value[int]
	ID          Value[bool]
	Index       Value[bool]

	// MaxLength only applies to string fields
	MaxLength Value[int]
}

// Lookup returns the value of the attribute and whether it is set
func (o Options) Lookup(a Attribute) (any, bool) {
	switch a {
	case AttrDefault:
		return o.Default.V, o.Default.Set
	case AttrTimestamp:
		return string(o.Timestamp.V), o.Timestamp.Set
	case AttrSearchIndex:
		return o.SearchIndex.V, o.SearchIndex.Set
	case AttrSort:
		return o.Sort.V, o.Sort.Set
	case AttrFacet:
		return o.Facet.V, o.Facet.Set
	case AttrDimensions:
		return o.Dimensions.V, o.Dimensions.Set
	case AttrID:
		return o.ID.V, o.ID.Set
	case AttrIndex:
		return o.Index.V, o.Index.Set
	default:
		return nil, false
	}
}

// Merge returns a new option bag with every attribute set in over replacing
// the corresponding attribute of o. Attributes unset in over are kept.
func (o Options) Merge(over Options) Options {
	return Options{
		Default:     override(o.Default, over.Default),
		Timestamp:   override(o.Timestamp, over.Timestamp),
		SearchIndex: override(o.SearchIndex, over.SearchIndex),
		Sort:        override(o.Sort, over.Sort),
		Facet:       override(o.Facet, over.Facet),
		Dimensions:  override(o.Dimensions, over.Dimensions),
		ID:          override(o.ID, over.ID),
		Index:       override(o.Index, over.Index),
		MaxLength:   override(o.MaxLength, over.MaxLength),
	}
}

// IsEmpty returns true if no attribute is set
func (o Options) IsEmpty() bool {
	for _, a := range Attributes {
		if _, ok := o.Lookup(a); ok {
			return false
		}
	}
	return !o.MaxLength.Set
}

// FieldDescriptor describes one declared property of a class
type FieldDescriptor struct {
	Name string
	Type DataType

	// Embed is only meaningful for array and object fields
	Embed *EmbedType

	// ArrayDepth is the nesting depth of an array field; 0 means unset
	ArrayDepth int

	Options Options
}

// PrimaryKeyDescriptor describes one component of a collection's primary key
type PrimaryKeyDescriptor struct {
	Name         string
	Type         DataType
	Order        Value[int]
	AutoGenerate bool
}

// Kind is the role a class plays in the registry
type Kind int

const (
	// KindCollection is a primary stored record type
	KindCollection Kind = iota
	// KindIndex is a search-oriented projection
	KindIndex
	// KindEmbedded is a record type only used inside other classes
	KindEmbedded
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindIndex:
		return "index"
	case KindEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "collection":
		return KindCollection, nil
	case "index":
		return KindIndex, nil
	case "embedded", "":
		return KindEmbedded, nil
	default:
		return 0, fmt.Errorf("unknown class kind: %s", s)
	}
}

// Class is the complete registered metadata of one declared class
type Class struct {
	Ref  ClassRef
	Name string
	Kind Kind

	// Fields are the plain (collection) field declarations
	Fields []FieldDescriptor

	// SearchFields are the search-field declarations
	SearchFields []FieldDescriptor

	PrimaryKeys []PrimaryKeyDescriptor
}

// NewClass creates an empty class of the given kind
func NewClass(ref ClassRef, name string, kind Kind) *Class {
	return &Class{
		Ref:          ref,
		Name:         name,
		Kind:         kind,
		Fields:       make([]FieldDescriptor, 0),
		SearchFields: make([]FieldDescriptor, 0),
		PrimaryKeys:  make([]PrimaryKeyDescriptor, 0),
	}
}

// Clone returns a copy of the class that shares no slices with c
func (c *Class) Clone() *Class {
	out := &Class{
		Ref:          c.Ref,
		Name:         c.Name,
		Kind:         c.Kind,
		Fields:       cloneFields(c.Fields),
		SearchFields: cloneFields(c.SearchFields),
		PrimaryKeys:  make([]PrimaryKeyDescriptor, len(c.PrimaryKeys)),
	}
	copy(out.PrimaryKeys, c.PrimaryKeys)
	return out
}

// HasField returns true if either field source declares name
func (c *Class) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	for _, f := range c.SearchFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// EmbeddedRefs returns the class references embedded by any field, in
// declaration order and without duplicates
func (c *Class) EmbeddedRefs() []ClassRef {
	seen := make(map[ClassRef]bool)
	var refs []ClassRef
	for _, fields := range [][]FieldDescriptor{c.Fields, c.SearchFields} {
		for _, f := range fields {
			if f.Embed.IsClass() && !seen[f.Embed.Class] {
				seen[f.Embed.Class] = true
				refs = append(refs, f.Embed.Class)
			}
		}
	}
	return refs
}

func cloneFields(fields []FieldDescriptor) []FieldDescriptor {
	out := make([]FieldDescriptor, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.Embed != nil {
			embed := *f.Embed
			out[i].Embed = &embed
		}
	}
	return out
}
