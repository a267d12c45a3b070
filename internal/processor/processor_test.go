package processor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/schema"
)

func newProcessor(t *testing.T, classes ...*schema.Class) *Processor {
	t.Helper()
	registry := schema.NewRegistry()
	for _, c := range classes {
		require.NoError(t, registry.Register(c))
	}
	registry.Seal()
	return New(registry, WithLogger(zaptest.NewLogger(t)))
}

func field(t *testing.T, s *document.Schema, name string) *document.Node {
	t.Helper()
	node, ok := s.Get(name)
	require.True(t, ok, "field %s missing", name)
	return node
}

func TestBuild_EmptyClass(t *testing.T) {
	p := newProcessor(t, schema.Collection("Empty", "empties").Class())

	built, err := p.Build("Empty", true)
	require.NoError(t, err)
	assert.Equal(t, 0, built.Len())

	built, err = p.Build("Empty", false)
	require.NoError(t, err)
	assert.Equal(t, 0, built.Len())
}

func TestBuild_ScalarFieldsWithoutOptions(t *testing.T) {
	types := []schema.DataType{
		schema.TypeString,
		schema.TypeBoolean,
		schema.TypeInt32,
		schema.TypeInt64,
		schema.TypeNumber,
		schema.TypeBigInt,
		schema.TypeDateTime,
		schema.TypeByteString,
		schema.TypeUUID,
	}

	builder := schema.Collection("Scalars", "scalars")
	for _, typ := range types {
		builder.Fields(schema.Field("f_"+typ.String(), typ))
	}
	p := newProcessor(t, builder.Class())

	built, err := p.Build("Scalars", true)
	require.NoError(t, err)
	require.Equal(t, len(types), built.Len())

	for _, typ := range types {
		node := field(t, built, "f_"+typ.String())
		assert.Equal(t, &document.Node{Type: typ.String()}, node, typ.String())
	}
}

func TestBuild_ArrayDepth(t *testing.T) {
	p := newProcessor(t, schema.Collection("Grid", "grids").
		Fields(
			schema.Array("cube", schema.TypeString).Depth(3),
			schema.Array("tags", schema.TypeString),
			schema.Array("one", schema.TypeInt32).Depth(1),
		).
		Class())

	built, err := p.Build("Grid", true)
	require.NoError(t, err)

	cube := field(t, built, "cube")
	assert.Equal(t, 3, cube.Depth())
	inner := cube
	for i := 0; i < 3; i++ {
		assert.Equal(t, "array", inner.Type)
		require.NotNil(t, inner.Items)
		inner = inner.Items
	}
	assert.Equal(t, &document.Node{Type: "string"}, inner)

	tags := field(t, built, "tags")
	assert.Equal(t, 1, tags.Depth())
	assert.Equal(t, &document.Node{Type: "string"}, tags.Items)

	assert.Equal(t, 1, field(t, built, "one").Depth())
}

func TestBuild_ArrayWithoutElementType(t *testing.T) {
	p := newProcessor(t, schema.Collection("Loose", "loose").
		Fields(schema.Field("anything", schema.TypeArray)).
		Class())

	built, err := p.Build("Loose", true)
	require.NoError(t, err)
	assert.Equal(t, &document.Node{Type: "array"}, field(t, built, "anything"))
}

func TestBuild_ArrayOfEmbeddedClass(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Point").Fields(schema.Number("x"), schema.Number("y")).Class(),
		schema.Collection("Path", "paths").
			Fields(schema.ArrayOf("points", "Point").Depth(2)).
			Class(),
	)

	built, err := p.Build("Path", true)
	require.NoError(t, err)

	points := field(t, built, "points")
	assert.Equal(t, 2, points.Depth())
	element := points.Items.Items
	require.NotNil(t, element.Nested)
	assert.Equal(t, []string{"x", "y"}, element.Nested.Keys())
}

func TestBuild_MaxLength(t *testing.T) {
	p := newProcessor(t, schema.Collection("User", "users").
		Fields(schema.String("email").MaxLength(255)).
		Class())

	built, err := p.Build("User", true)
	require.NoError(t, err)

	email := field(t, built, "email")
	require.NotNil(t, email.MaxLength)
	assert.Equal(t, 255, *email.MaxLength)
}

func TestBuild_MaxLengthIgnoredOnNonString(t *testing.T) {
	p := newProcessor(t, schema.Collection("Meter", "meters").
		Fields(
			schema.Int32("reading").MaxLength(4),
			schema.Array("labels", schema.TypeString).MaxLength(8),
		).
		Class())

	built, err := p.Build("Meter", true)
	require.NoError(t, err)
	assert.Equal(t, &document.Node{Type: "int32"}, field(t, built, "reading"))
	assert.Nil(t, field(t, built, "labels").MaxLength)
}

func TestBuild_MergePrecedence(t *testing.T) {
	p := newProcessor(t, schema.Collection("Counter", "counters").
		Fields(schema.Int32("count").Default(1)).
		SearchFields(schema.Int32("count").Default(2).Facet(true)).
		Class())

	built, err := p.Build("Counter", true)
	require.NoError(t, err)
	require.Equal(t, 1, built.Len())

	count := field(t, built, "count")
	assert.Equal(t, []document.Attr{
		{Key: "default", Value: 2},
		{Key: "facet", Value: true},
	}, count.Attrs)
}

func TestBuild_FieldOrdering(t *testing.T) {
	p := newProcessor(t, schema.Collection("Article", "articles").
		Fields(schema.String("title"), schema.String("body")).
		SearchFields(
			schema.String("summary").SearchIndex(true),
			schema.String("title").Sort(true),
			schema.String("author").Facet(true),
		).
		Class())

	built, err := p.Build("Article", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "body", "summary", "author"}, built.Keys())

	sort, ok := field(t, built, "title").Attr("sort")
	assert.True(t, ok)
	assert.Equal(t, true, sort)

	searchIndex, ok := field(t, built, "summary").Attr("searchIndex")
	assert.True(t, ok)
	assert.Equal(t, true, searchIndex)
}

func TestBuild_AttributeSuppression(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Tag").
			Fields(schema.String("label").Facet(true).Default("none")).
			Class(),
		schema.Embedded("Geo").
			Fields(schema.String("city").Index(true).Sort(true)).
			Class(),
		schema.Collection("Place", "places").
			Fields(
				schema.Object("geo", "Geo").SearchIndex(true),
				schema.ArrayOf("tags", "Tag"),
				schema.String("label").Facet(true),
			).
			Class(),
	)

	built, err := p.Build("Place", true)
	require.NoError(t, err)

	t.Run("object field drops searchIndex", func(t *testing.T) {
		geo := field(t, built, "geo")
		_, ok := geo.Attr("searchIndex")
		assert.False(t, ok)
		require.NotNil(t, geo.Nested)
	})

	t.Run("array parent drops facet", func(t *testing.T) {
		tags := field(t, built, "tags")
		require.NotNil(t, tags.Items)
		require.NotNil(t, tags.Items.Nested)
		label := field(t, tags.Items.Nested, "label")
		_, ok := label.Attr("facet")
		assert.False(t, ok)

		def, ok := label.Attr("default")
		assert.True(t, ok)
		assert.Equal(t, "none", def)
	})

	t.Run("top level keeps facet", func(t *testing.T) {
		facet, ok := field(t, built, "label").Attr("facet")
		assert.True(t, ok)
		assert.Equal(t, true, facet)
	})

	t.Run("object parent drops index only", func(t *testing.T) {
		geo := field(t, built, "geo")
		city := field(t, geo.Nested, "city")
		_, ok := city.Attr("index")
		assert.False(t, ok)
		_, ok = city.Attr("sort")
		assert.True(t, ok)
	})
}

func TestBuild_TypeRestrictedAttributes(t *testing.T) {
	p := newProcessor(t, schema.Collection("Doc", "docs").
		Fields(
			schema.String("slug").ID(true),
			schema.Int64("seq").ID(true),
			schema.DateTime("created").ID(true).Timestamp(schema.TimestampCreatedAt),
			schema.Number("score").Dimensions(3),
			schema.Bytes("embedding").Dimensions(768),
			schema.Bool("flag").ID(true).Index(true),
		).
		Class())

	built, err := p.Build("Doc", true)
	require.NoError(t, err)

	id, ok := field(t, built, "slug").Attr("id")
	assert.True(t, ok)
	assert.Equal(t, true, id)

	_, ok = field(t, built, "seq").Attr("id")
	assert.False(t, ok)

	created := field(t, built, "created")
	_, ok = created.Attr("id")
	assert.False(t, ok)
	ts, ok := created.Attr("timestamp")
	assert.True(t, ok)
	assert.Equal(t, "createdAt", ts)

	_, ok = field(t, built, "score").Attr("dimensions")
	assert.False(t, ok)

	dims, ok := field(t, built, "embedding").Attr("dimensions")
	assert.True(t, ok)
	assert.Equal(t, 768, dims)

	flag := field(t, built, "flag")
	assert.Equal(t, []document.Attr{{Key: "index", Value: true}}, flag.Attrs)
}

func TestBuild_ExplicitFalseIsEmitted(t *testing.T) {
	p := newProcessor(t, schema.Collection("Flags", "flags").
		Fields(schema.String("name").Sort(false)).
		Class())

	built, err := p.Build("Flags", true)
	require.NoError(t, err)

	sort, ok := field(t, built, "name").Attr("sort")
	assert.True(t, ok)
	assert.Equal(t, false, sort)
}

func TestBuild_EmptyEmbeddedObject(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("EmptyClass").Class(),
		schema.Collection("Holder", "holders").
			Fields(schema.Object("blank", "EmptyClass")).
			Class(),
	)

	built, err := p.Build("Holder", true)
	require.NoError(t, err)
	assert.Equal(t, &document.Node{Type: "object"}, field(t, built, "blank"))
}

func TestBuild_CyclicEmbedding(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Branch").
			Fields(schema.String("name"), schema.ArrayOf("children", "Leaf")).
			Class(),
		schema.Embedded("Leaf").
			Fields(schema.Object("parent", "Branch")).
			Class(),
		schema.Collection("Tree", "trees").
			Fields(schema.Object("root", "Branch")).
			Class(),
	)

	_, err := p.ProcessCollection("Tree")
	require.Error(t, err)
	assert.True(t, IsCyclicEmbedding(err))

	var cyclic *CyclicEmbeddingError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []schema.ClassRef{"Tree", "Branch", "Leaf", "Branch"}, cyclic.Path)
	assert.Contains(t, err.Error(), "Branch -> Leaf -> Branch")
}

func TestBuild_SharedEmbeddingIsNotACycle(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Money").Fields(schema.BigInt("amount"), schema.String("currency")).Class(),
		schema.Collection("Invoice", "invoices").
			Fields(
				schema.Object("subtotal", "Money"),
				schema.Object("total", "Money"),
				schema.ArrayOf("lines", "Money"),
			).
			Class(),
	)

	built, err := p.Build("Invoice", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"subtotal", "total", "lines"}, built.Keys())
}

func TestProcessCollection_PrimaryKeys(t *testing.T) {
	t.Run("composite key with missing order", func(t *testing.T) {
		p := newProcessor(t, schema.Collection("Membership", "memberships").
			Fields(schema.UUID("user"), schema.UUID("group")).
			PrimaryKeys(
				schema.Key("user", schema.TypeUUID).Order(1),
				schema.Key("group", schema.TypeUUID),
			).
			Class())

		doc, err := p.ProcessCollection("Membership")
		assert.Nil(t, doc)
		require.Error(t, err)
		assert.True(t, IsIncompletePrimaryKeyOrder(err))

		var incomplete *IncompletePrimaryKeyOrderError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "group", incomplete.Field)
	})

	t.Run("composite key with orders", func(t *testing.T) {
		p := newProcessor(t, schema.Collection("Membership", "memberships").
			Fields(schema.UUID("user"), schema.UUID("group")).
			PrimaryKeys(
				schema.Key("group", schema.TypeUUID).Order(2),
				schema.Key("user", schema.TypeUUID).Order(1).AutoGenerate(),
			).
			Class())

		doc, err := p.ProcessCollection("Membership")
		require.NoError(t, err)

		assert.Equal(t, &document.PrimaryKey{Order: 1, AutoGenerate: true}, field(t, doc.Schema, "user").PrimaryKey)
		assert.Equal(t, &document.PrimaryKey{Order: 2, AutoGenerate: false}, field(t, doc.Schema, "group").PrimaryKey)
		assert.Equal(t, []string{"user", "group"}, doc.Schema.Keys())
	})

	t.Run("single key defaults", func(t *testing.T) {
		p := newProcessor(t, schema.Collection("Account", "accounts").
			Fields(schema.Int64("id"), schema.String("owner")).
			PrimaryKeys(schema.Key("id", schema.TypeInt64)).
			Class())

		doc, err := p.ProcessCollection("Account")
		require.NoError(t, err)
		assert.Equal(t, &document.PrimaryKey{Order: 1}, field(t, doc.Schema, "id").PrimaryKey)
		assert.Nil(t, field(t, doc.Schema, "owner").PrimaryKey)
	})

	t.Run("key without a field declaration", func(t *testing.T) {
		p := newProcessor(t, schema.Collection("Event", "events").
			Fields(schema.String("payload")).
			PrimaryKeys(schema.Key("tenant", schema.TypeString).AutoGenerate()).
			Class())

		doc, err := p.ProcessCollection("Event")
		require.NoError(t, err)
		assert.Equal(t, []string{"payload", "tenant"}, doc.Schema.Keys())
		assert.Equal(t, &document.Node{
			Type:       "string",
			PrimaryKey: &document.PrimaryKey{Order: 1, AutoGenerate: true},
		}, field(t, doc.Schema, "tenant"))
	})
}

func TestProcessCollection_Document(t *testing.T) {
	p := newProcessor(t, schema.Collection("BlogPost", "").
		Fields(schema.String("title")).
		Class())

	doc, err := p.ProcessCollection("BlogPost")
	require.NoError(t, err)
	assert.Equal(t, document.KindCollection, doc.Kind)
	assert.Equal(t, "blog_posts", doc.Name)
	assert.Equal(t, []string{"title"}, doc.Schema.Keys())
}

func TestProcessIndex(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Brand").
			Fields(schema.String("name"), schema.String("supplier_code")).
			SearchFields(schema.String("name").Facet(true)).
			Class(),
		schema.SearchIndex("ProductSearch", "products").
			Fields(schema.String("internal_note")).
			SearchFields(
				schema.String("title").SearchIndex(true).Sort(true),
				schema.Object("brand", "Brand"),
			).
			Class(),
	)

	doc, err := p.ProcessIndex("ProductSearch")
	require.NoError(t, err)
	assert.Equal(t, document.KindIndex, doc.Kind)
	assert.Equal(t, "products", doc.Name)
	assert.Equal(t, []string{"title", "brand"}, doc.Schema.Keys())

	brand := field(t, doc.Schema, "brand")
	require.NotNil(t, brand.Nested)
	assert.Equal(t, []string{"name"}, brand.Nested.Keys())
	facet, ok := field(t, brand.Nested, "name").Attr("facet")
	assert.True(t, ok)
	assert.Equal(t, true, facet)
}

func TestProcessIndex_EmbeddedWithoutSearchFields(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Brand").Fields(schema.String("name").Facet(true)).Class(),
		schema.SearchIndex("ProductSearch", "products").
			SearchFields(schema.Object("brand", "Brand")).
			Class(),
	)

	doc, err := p.ProcessIndex("ProductSearch")
	require.NoError(t, err)
	assert.Equal(t, &document.Node{Type: "object"}, field(t, doc.Schema, "brand"))
}

func TestProcess_DispatchesOnKind(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Part").Fields(schema.String("code")).Class(),
		schema.Collection("Machine", "machines").Fields(schema.String("code")).Class(),
		schema.SearchIndex("MachineSearch", "machine_search").SearchFields(schema.String("code")).Class(),
	)

	doc, err := p.Process("Machine")
	require.NoError(t, err)
	assert.Equal(t, document.KindCollection, doc.Kind)

	doc, err = p.Process("MachineSearch")
	require.NoError(t, err)
	assert.Equal(t, document.KindIndex, doc.Kind)

	_, err = p.Process("Part")
	assert.Error(t, err)
}

func TestProcess_UnknownClass(t *testing.T) {
	p := newProcessor(t)

	_, err := p.ProcessCollection("Missing")
	assert.True(t, schema.IsUnknownClass(err))

	_, err = p.ProcessIndex("Missing")
	assert.True(t, schema.IsUnknownClass(err))

	_, err = p.Build("Missing", true)
	assert.True(t, schema.IsUnknownClass(err))
}

func TestProcess_UnknownEmbeddedClass(t *testing.T) {
	p := newProcessor(t, schema.Collection("Orphan", "orphans").
		Fields(schema.Object("ghost", "Ghost")).
		Class())

	_, err := p.ProcessCollection("Orphan")
	require.Error(t, err)
	assert.True(t, schema.IsUnknownClass(err))
}

func TestProcess_Idempotent(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Line").Fields(schema.String("sku").Default("x"), schema.Int32("qty")).Class(),
		schema.Collection("Order", "orders").
			Fields(
				schema.Int64("id"),
				schema.ArrayOf("lines", "Line").Depth(2),
				schema.String("note").MaxLength(140),
			).
			SearchFields(schema.String("note").SearchIndex(true)).
			PrimaryKeys(schema.Key("id", schema.TypeInt64).AutoGenerate()).
			Class(),
	)

	first, err := p.ProcessCollection("Order")
	require.NoError(t, err)
	second, err := p.ProcessCollection("Order")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first.Schema, second.Schema)

	a, err := document.Canonical(first)
	require.NoError(t, err)
	b, err := document.Canonical(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestProcess_Concurrent(t *testing.T) {
	p := newProcessor(t,
		schema.Embedded("Line").Fields(schema.String("sku")).Class(),
		schema.Collection("Order", "orders").
			Fields(schema.Int64("id"), schema.ArrayOf("lines", "Line")).
			PrimaryKeys(schema.Key("id", schema.TypeInt64)).
			Class(),
	)

	expected, err := p.ProcessCollection("Order")
	require.NoError(t, err)
	want, err := document.Canonical(expected)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := p.ProcessCollection("Order")
			if err != nil {
				return
			}
			out, err := document.Canonical(doc)
			if err != nil {
				return
			}
			results[i] = string(out)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, string(want), got)
	}
}
