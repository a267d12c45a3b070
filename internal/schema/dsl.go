package schema

// FieldBuilder declares one field with a fluent API:
//
//	schema.String("title").MaxLength(120).SearchIndex(true).Sort(true)
//	schema.Array("matrix", schema.TypeNumber).Depth(2)
//	schema.Object("address", "Address")
type FieldBuilder struct {
	desc FieldDescriptor
}

// Field starts a field declaration of an arbitrary type
func Field(name string, t DataType) *FieldBuilder {
	return &FieldBuilder{desc: FieldDescriptor{Name: name, Type: t}}
}

// String declares a string field
func String(name string) *FieldBuilder { return Field(name, TypeString) }

// Bool declares a boolean field
func Bool(name string) *FieldBuilder { return Field(name, TypeBoolean) }

// Int32 declares an int32 field
func Int32(name string) *FieldBuilder { return Field(name, TypeInt32) }

// Int64 declares an int64 field
func Int64(name string) *FieldBuilder { return Field(name, TypeInt64) }

// Number declares a floating point field
func Number(name string) *FieldBuilder { return Field(name, TypeNumber) }

// BigInt declares a big-integer field
func BigInt(name string) *FieldBuilder { return Field(name, TypeBigInt) }

// DateTime declares a date-time field
func DateTime(name string) *FieldBuilder { return Field(name, TypeDateTime) }

// Bytes declares a byte-string field
func Bytes(name string) *FieldBuilder { return Field(name, TypeByteString) }

// UUID declares a uuid field
func UUID(name string) *FieldBuilder { return Field(name, TypeUUID) }

// Array declares an array of scalar elements
func Array(name string, elem DataType) *FieldBuilder {
	b := Field(name, TypeArray)
	b.desc.Embed = EmbedScalar(elem)
	return b
}

// ArrayOf declares an array of embedded class records
func ArrayOf(name string, ref ClassRef) *FieldBuilder {
	b := Field(name, TypeArray)
	b.desc.Embed = EmbedClass(ref)
	return b
}

// Object declares an object field embedding another class
func Object(name string, ref ClassRef) *FieldBuilder {
	b := Field(name, TypeObject)
	b.desc.Embed = EmbedClass(ref)
	return b
}

// Depth sets the nesting depth of an array field
func (b *FieldBuilder) Depth(n int) *FieldBuilder {
	b.desc.ArrayDepth = n
	return b
}

// MaxLength sets the maximum length of a string field
func (b *FieldBuilder) MaxLength(n int) *FieldBuilder {
	b.desc.Options.MaxLength = Some(n)
	return b
}

// Default sets the default value
func (b *FieldBuilder) Default(v any) *FieldBuilder {
	b.desc.Options.Default = Some(v)
	return b
}

// Timestamp marks the field as set on create or update
func (b *FieldBuilder) Timestamp(k TimestampKind) *FieldBuilder {
	b.desc.Options.Timestamp = Some(k)
	return b
}

// SearchIndex sets whether the field is indexed for search
func (b *FieldBuilder) SearchIndex(on bool) *FieldBuilder {
	b.desc.Options.SearchIndex = Some(on)
	return b
}

// Sort sets whether search results can be sorted by the field
func (b *FieldBuilder) Sort(on bool) *FieldBuilder {
	b.desc.Options.Sort = Some(on)
	return b
}

// Facet sets whether the field is faceted
func (b *FieldBuilder) Facet(on bool) *FieldBuilder {
	b.desc.Options.Facet = Some(on)
	return b
}

// Dimensions sets the vector dimensions
func (b *FieldBuilder) Dimensions(n int) *FieldBuilder {
	b.desc.Options.Dimensions = Some(n)
	return b
}

// ID sets whether the field is the search document id
func (b *FieldBuilder) ID(on bool) *FieldBuilder {
	b.desc.Options.ID = Some(on)
	return b
}

// Index sets whether the field carries a secondary index
func (b *FieldBuilder) Index(on bool) *FieldBuilder {
	b.desc.Options.Index = Some(on)
	return b
}

// Descriptor returns the declared field
func (b *FieldBuilder) Descriptor() FieldDescriptor {
	d := b.desc
	if d.Embed != nil {
		embed := *d.Embed
		d.Embed = &embed
	}
	return d
}

// KeyBuilder declares one primary key component
type KeyBuilder struct {
	desc PrimaryKeyDescriptor
}

// Key starts a primary key declaration
func Key(name string, t DataType) *KeyBuilder {
	return &KeyBuilder{desc: PrimaryKeyDescriptor{Name: name, Type: t}}
}

// Order sets the position of the key in a composite primary key
func (b *KeyBuilder) Order(n int) *KeyBuilder {
	b.desc.Order = Some(n)
	return b
}

// AutoGenerate marks the key as generated by the server
func (b *KeyBuilder) AutoGenerate() *KeyBuilder {
	b.desc.AutoGenerate = true
	return b
}

// Descriptor returns the declared key
func (b *KeyBuilder) Descriptor() PrimaryKeyDescriptor {
	return b.desc
}

// ClassBuilder assembles a class declaration
type ClassBuilder struct {
	class *Class
}

// Collection starts a collection declaration. An empty name is replaced by
// DefaultName on registration.
func Collection(ref ClassRef, name string) *ClassBuilder {
	return &ClassBuilder{class: NewClass(ref, name, KindCollection)}
}

// SearchIndex starts a search index declaration
func SearchIndex(ref ClassRef, name string) *ClassBuilder {
	return &ClassBuilder{class: NewClass(ref, name, KindIndex)}
}

// Embedded starts the declaration of a record only used inside other classes
func Embedded(ref ClassRef) *ClassBuilder {
	return &ClassBuilder{class: NewClass(ref, string(ref), KindEmbedded)}
}

// Fields appends plain field declarations
func (b *ClassBuilder) Fields(fields ...*FieldBuilder) *ClassBuilder {
	for _, f := range fields {
		b.class.Fields = append(b.class.Fields, f.Descriptor())
	}
	return b
}

// SearchFields appends search-field declarations
func (b *ClassBuilder) SearchFields(fields ...*FieldBuilder) *ClassBuilder {
	for _, f := range fields {
		b.class.SearchFields = append(b.class.SearchFields, f.Descriptor())
	}
	return b
}

// PrimaryKeys appends primary key declarations
func (b *ClassBuilder) PrimaryKeys(keys ...*KeyBuilder) *ClassBuilder {
	for _, k := range keys {
		b.class.PrimaryKeys = append(b.class.PrimaryKeys, k.Descriptor())
	}
	return b
}

// Class returns a copy of the assembled class
func (b *ClassBuilder) Class() *Class {
	return b.class.Clone()
}
