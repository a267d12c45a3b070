package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataType_StringRoundTrip(t *testing.T) {
	for typ := TypeString; typ <= TypeObject; typ++ {
		parsed, err := ParseDataType(typ.String())
		require.NoError(t, err, typ.String())
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseDataType("float")
	assert.Error(t, err)
	assert.Equal(t, "unknown", DataType(99).String())
	assert.False(t, DataType(99).IsValid())
}

func TestDataType_Text(t *testing.T) {
	var typ DataType
	require.NoError(t, typ.UnmarshalText([]byte("date-time")))
	assert.Equal(t, TypeDateTime, typ)

	text, err := TypeBigInt.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "bigint", string(text))

	_, err = DataType(-1).MarshalText()
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("index")
	require.NoError(t, err)
	assert.Equal(t, KindIndex, kind)

	kind, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindEmbedded, kind)

	_, err = ParseKind("table")
	assert.Error(t, err)
}

func TestOptions_Merge(t *testing.T) {
	t.Run("search options override on conflict", func(t *testing.T) {
		base := Options{Default: Some[any](1)}
		over := Options{Default: Some[any](2), Facet: Some(true)}

		merged := base.Merge(over)
		assert.Equal(t, Options{Default: Some[any](2), Facet: Some(true)}, merged)
	})

	t.Run("unset attributes are kept", func(t *testing.T) {
		base := Options{Sort: Some(true), MaxLength: Some(10)}
		merged := base.Merge(Options{Facet: Some(false)})
		assert.True(t, merged.Sort.V)
		assert.Equal(t, 10, merged.MaxLength.V)
		assert.True(t, merged.Facet.Set)
		assert.False(t, merged.Facet.V)
	})

	t.Run("explicit false overrides true", func(t *testing.T) {
		merged := Options{Sort: Some(true)}.Merge(Options{Sort: Some(false)})
		assert.Equal(t, Some(false), merged.Sort)
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		base := Options{Default: Some[any]("a")}
		_ = base.Merge(Options{Default: Some[any]("b")})
		assert.Equal(t, "a", base.Default.V)
	})
}

func TestOptions_Lookup(t *testing.T) {
	opts := Options{
		Timestamp:  Some(TimestampCreatedAt),
		Dimensions: Some(3),
	}

	v, ok := opts.Lookup(AttrTimestamp)
	assert.True(t, ok)
	assert.Equal(t, "createdAt", v)

	v, ok = opts.Lookup(AttrDimensions)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = opts.Lookup(AttrFacet)
	assert.False(t, ok)

	assert.False(t, opts.IsEmpty())
	assert.True(t, Options{}.IsEmpty())
	assert.False(t, Options{MaxLength: Some(1)}.IsEmpty())
}

func TestAttribute_String(t *testing.T) {
	names := make([]string, len(Attributes))
	for i, a := range Attributes {
		names[i] = a.String()
	}
	assert.Equal(t, []string{
		"default", "timestamp", "searchIndex", "sort",
		"facet", "dimensions", "id", "index",
	}, names)
}

func TestClass_EmbeddedRefs(t *testing.T) {
	class := Collection("Order", "orders").
		Fields(ArrayOf("items", "Item"), Object("address", "Address")).
		SearchFields(Object("address", "Address"), ArrayOf("tags", "Tag")).
		Class()
	assert.Equal(t, []ClassRef{"Item", "Address", "Tag"}, class.EmbeddedRefs())
	assert.True(t, class.HasField("tags"))
	assert.False(t, class.HasField("missing"))
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "order_items", DefaultName("OrderItem", KindCollection))
	assert.Equal(t, "users", DefaultName("User", KindIndex))
	assert.Equal(t, "Address", DefaultName("Address", KindEmbedded))
}

func TestValue(t *testing.T) {
	var unset Value[int]
	assert.Equal(t, 7, unset.Or(7))
	_, ok := unset.Get()
	assert.False(t, ok)

	set := Some(3)
	v, ok := set.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, set.Or(7))
}
