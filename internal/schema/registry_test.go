package schema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderCollection() *Class {
	return Collection("Order", "orders").
		Fields(
			Int64("id"),
			String("customer").MaxLength(64),
			ArrayOf("items", "OrderItem"),
		).
		PrimaryKeys(Key("id", TypeInt64).AutoGenerate()).
		Class()
}

func orderItem() *Class {
	return Embedded("OrderItem").
		Fields(String("sku"), Int32("quantity")).
		Class()
}

func TestRegistry(t *testing.T) {
	t.Run("register and read back", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(orderItem()))
		require.NoError(t, registry.Register(orderCollection()))

		class, ok := registry.Class("Order")
		require.True(t, ok)
		assert.Equal(t, "orders", class.Name)
		assert.Equal(t, KindCollection, class.Kind)

		fields, err := registry.Fields("Order")
		require.NoError(t, err)
		require.Len(t, fields, 3)
		assert.Equal(t, "id", fields[0].Name)
		assert.Equal(t, "customer", fields[1].Name)
		assert.Equal(t, "items", fields[2].Name)

		keys, err := registry.PrimaryKeys("Order")
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.True(t, keys[0].AutoGenerate)

		ref, ok := registry.Lookup(KindCollection, "orders")
		assert.True(t, ok)
		assert.Equal(t, ClassRef("Order"), ref)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(orderCollection()))
		err := registry.Register(orderCollection())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("duplicate name within kind", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(Collection("A", "things").Class()))
		err := registry.Register(Collection("B", "things").Class())
		assert.Error(t, err)

		// Same name is fine for a different kind
		assert.NoError(t, registry.Register(SearchIndex("C", "things").Class()))
	})

	t.Run("default name", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(Collection("OrderItem", "").Class()))
		class, ok := registry.Class("OrderItem")
		require.True(t, ok)
		assert.Equal(t, "order_items", class.Name)
	})

	t.Run("validation failure leaves registry untouched", func(t *testing.T) {
		registry := NewRegistry()
		bad := Collection("Bad", "bad").
			Fields(String("label").MaxLength(0)).
			Class()
		err := registry.Register(bad)
		require.Error(t, err)
		assert.False(t, registry.Exists("Bad"))
		assert.Equal(t, 0, registry.Count())
	})

	t.Run("warnings are kept per class", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(Collection("Counter", "counters").
			Fields(Int32("count").MaxLength(4)).
			Class()))
		require.NoError(t, registry.Register(Collection("Tagged", "tagged").
			Fields(Field("tags", TypeArray)).
			Class()))

		assert.Equal(t, []string{
			"Counter.count: maxLength is ignored on int32 fields",
			"Tagged.tags: array field has no element type",
		}, registry.Warnings())

		registry.Clear()
		assert.Empty(t, registry.Warnings())
	})

	t.Run("reads return copies", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(orderCollection()))

		fields, err := registry.Fields("Order")
		require.NoError(t, err)
		fields[0].Name = "mutated"
		fields[2].Embed.Class = "Other"

		again, err := registry.Fields("Order")
		require.NoError(t, err)
		assert.Equal(t, "id", again[0].Name)
		assert.Equal(t, ClassRef("OrderItem"), again[2].Embed.Class)
	})

	t.Run("caller mutations after register do not leak", func(t *testing.T) {
		registry := NewRegistry()
		class := orderCollection()
		require.NoError(t, registry.Register(class))
		class.Fields[0].Name = "mutated"

		fields, err := registry.Fields("Order")
		require.NoError(t, err)
		assert.Equal(t, "id", fields[0].Name)
	})

	t.Run("unknown class", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.Fields("Missing")
		require.Error(t, err)
		assert.True(t, IsUnknownClass(err))

		_, err = registry.SearchFields("Missing")
		assert.True(t, IsUnknownClass(err))

		_, err = registry.PrimaryKeys("Missing")
		assert.True(t, IsUnknownClass(err))
	})

	t.Run("sealed registry rejects registration", func(t *testing.T) {
		registry := NewRegistry()
		registry.Seal()
		assert.True(t, registry.Sealed())
		assert.ErrorIs(t, registry.Register(orderItem()), ErrSealed)

		registry.Clear()
		assert.False(t, registry.Sealed())
		assert.NoError(t, registry.Register(orderItem()))
	})

	t.Run("list preserves registration order", func(t *testing.T) {
		registry := NewRegistry()
		registry.MustRegister(
			Collection("B", "b").Class(),
			SearchIndex("A", "a").Class(),
			Collection("C", "c").Class(),
		)
		assert.Equal(t, []ClassRef{"B", "A", "C"}, registry.List())
		assert.Equal(t, []string{"b", "c"}, registry.Names(KindCollection))
		assert.Equal(t, []string{"a"}, registry.Names(KindIndex))
	})

	t.Run("must register panics", func(t *testing.T) {
		registry := NewRegistry()
		assert.Panics(t, func() {
			registry.MustRegister(orderItem(), orderItem())
		})
	})
}

func TestRegistry_ValidateAll(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		registry := NewRegistry()
		registry.MustRegister(orderCollection(), orderItem())
		assert.NoError(t, registry.ValidateAll())

		order, err := registry.DependencyOrder()
		require.NoError(t, err)
		assert.Equal(t, []ClassRef{"OrderItem", "Order"}, order)
	})

	t.Run("unknown embedded class", func(t *testing.T) {
		registry := NewRegistry()
		registry.MustRegister(orderCollection())
		err := registry.ValidateAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embeds unknown class OrderItem")
	})

	t.Run("self embedding", func(t *testing.T) {
		registry := NewRegistry()
		registry.MustRegister(Embedded("Node").Fields(ArrayOf("children", "Node")).Class())
		err := registry.ValidateAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Node -> Node")

		_, err = registry.DependencyOrder()
		assert.Error(t, err)
	})

	t.Run("transitive embedding", func(t *testing.T) {
		registry := NewRegistry()
		registry.MustRegister(
			Embedded("A").Fields(Object("b", "B")).Class(),
			Embedded("B").Fields(Object("a", "A")).Class(),
		)
		err := registry.ValidateAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "A -> B -> A")
	})
}

func TestRegistry_Stats(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(
		orderItem(),
		orderCollection(),
		SearchIndex("OrderSearch", "order_search").
			SearchFields(String("customer").Facet(true)).
			Class(),
	)

	stats := registry.Stats()
	assert.Equal(t, 3, stats.TotalClasses)
	assert.Equal(t, 1, stats.Collections)
	assert.Equal(t, 1, stats.Indexes)
	assert.Equal(t, 1, stats.Embedded)
	assert.Equal(t, 5, stats.TotalFields)
	assert.Equal(t, 1, stats.TotalSearchFields)
	assert.Equal(t, 1, stats.TotalPrimaryKeys)
	assert.False(t, stats.CircularEmbeddings)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(orderItem(), orderCollection())
	registry.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fields, err := registry.Fields("Order")
			assert.NoError(t, err)
			assert.Len(t, fields, 3)
			_, ok := registry.Class("OrderItem")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
