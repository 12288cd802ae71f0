package orderedmap_test

import (
	"math/rand"
	"testing"

	"github.com/google/btree"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fixedpool/alloc"
	"github.com/vkngwrapper/fixedpool/container/orderedmap"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/pool"
)

type entry = orderedmap.Entry[int64, int64]

type resource struct {
	Handle int64
}

var releasedHandles []int64

func (r *resource) Destroy() {
	releasedHandles = append(releasedHandles, r.Handle)
}

func newMap[K int64 | int32, V any](t *testing.T, capacity int) *orderedmap.Map[K, V] {
	registry := pool.NewRegistry(nil, pool.RegistryCreateInfo{})
	t.Cleanup(func() {
		_ = registry.Destroy()
	})

	a, err := alloc.New[orderedmap.Entry[K, V]](registry, capacity)
	require.NoError(t, err)

	m, err := orderedmap.New(a)
	require.NoError(t, err)
	return m
}

func factorial(n int64) int64 {
	result := int64(1)
	for i := int64(2); i <= n; i++ {
		result *= i
	}
	return result
}

func TestMapFactorialsMatchReference(t *testing.T) {
	reference := btree.NewG[entry](2, func(a, b entry) bool {
		return a.Key < b.Key
	})
	m := newMap[int64, int64](t, 10)

	for i := int64(0); i < 10; i++ {
		reference.ReplaceOrInsert(entry{Key: i, Value: factorial(i)})

		inserted, err := m.Set(i, factorial(i))
		require.NoError(t, err)
		require.True(t, inserted)
	}

	var expected []entry
	reference.Ascend(func(item entry) bool {
		expected = append(expected, item)
		return true
	})

	require.Equal(t, 10, m.Len())
	require.Equal(t, expected, m.Entries())
	require.Equal(t, int64(362880), expected[9].Value)
	require.NoError(t, m.Validate())
	require.Equal(t, 0, m.Allocator().Pool().FreeBlockCount())

	inserted, err := m.Set(10, factorial(10))
	require.ErrorIs(t, err, memutils.ErrOutOfMemory)
	require.False(t, inserted)
	require.Equal(t, 10, m.Len())
	require.Equal(t, expected, m.Entries())
	require.False(t, m.Has(10))
	require.NoError(t, m.Validate())

	require.NoError(t, m.Clear())
	require.Equal(t, 0, m.Len())
	require.True(t, m.Allocator().Pool().IsEmpty())
}

func TestMapSetReplaces(t *testing.T) {
	m := newMap[int64, int64](t, 2)

	inserted, err := m.Set(5, 50)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = m.Set(5, 500)
	require.NoError(t, err)
	require.False(t, inserted)

	value, ok := m.Get(5)
	require.True(t, ok)
	require.Equal(t, int64(500), value)
	require.Equal(t, 1, m.Len())
	require.Equal(t, 1, m.Allocator().Pool().FreeBlockCount())

	_, ok = m.Get(6)
	require.False(t, ok)
	require.NoError(t, m.Clear())
}

func TestMapMinMaxAscend(t *testing.T) {
	m := newMap[int64, int64](t, 16)

	_, ok := m.Min()
	require.False(t, ok)
	_, ok = m.Max()
	require.False(t, ok)

	for _, key := range []int64{8, 3, 12, 1, 5, 10, 14} {
		_, err := m.Set(key, key*2)
		require.NoError(t, err)
	}

	low, ok := m.Min()
	require.True(t, ok)
	require.Equal(t, entry{Key: 1, Value: 2}, low)

	high, ok := m.Max()
	require.True(t, ok)
	require.Equal(t, entry{Key: 14, Value: 28}, high)

	var keys []int64
	m.Ascend(func(key, value int64) bool {
		keys = append(keys, key)
		return key < 8
	})
	require.Equal(t, []int64{1, 3, 5, 8}, keys)
	require.NoError(t, m.Clear())
}

func TestMapDelete(t *testing.T) {
	const count = 64

	reference := btree.NewG(4, func(a, b int64) bool {
		return a < b
	})
	m := newMap[int64, int64](t, count)

	random := rand.New(rand.NewSource(42))
	for _, key := range random.Perm(count) {
		_, err := m.Set(int64(key), int64(key)*3)
		require.NoError(t, err)
		reference.ReplaceOrInsert(int64(key))
	}
	require.NoError(t, m.Validate())

	deleted, err := m.Delete(count + 1)
	require.NoError(t, err)
	require.False(t, deleted)

	for i, key := range random.Perm(count)[:count/2] {
		deleted, err := m.Delete(int64(key))
		require.NoError(t, err)
		require.True(t, deleted)
		reference.Delete(int64(key))

		require.NoError(t, m.Validate(), "after deleting %d keys", i+1)
		require.Equal(t, reference.Len(), m.Len())
	}

	var expected []int64
	reference.Ascend(func(key int64) bool {
		expected = append(expected, key)
		return true
	})

	var actual []int64
	m.Ascend(func(key, value int64) bool {
		require.Equal(t, key*3, value)
		actual = append(actual, key)
		return true
	})
	require.Equal(t, expected, actual)
	require.Equal(t, count/2, m.Allocator().Pool().FreeBlockCount())

	for _, key := range expected {
		deleted, err := m.Delete(key)
		require.NoError(t, err)
		require.True(t, deleted)
	}
	require.Equal(t, 0, m.Len())
	require.True(t, m.Allocator().Pool().IsEmpty())
	require.NoError(t, m.Validate())
}

func TestMapDeleteFreesBlockForReuse(t *testing.T) {
	m := newMap[int32, int64](t, 3)

	for key := int32(0); key < 3; key++ {
		_, err := m.Set(key, int64(key))
		require.NoError(t, err)
	}

	_, err := m.Set(3, 3)
	require.ErrorIs(t, err, memutils.ErrOutOfMemory)

	deleted, err := m.Delete(1)
	require.NoError(t, err)
	require.True(t, deleted)

	inserted, err := m.Set(3, 3)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, []orderedmap.Entry[int32, int64]{{Key: 0, Value: 0}, {Key: 2, Value: 2}, {Key: 3, Value: 3}}, m.Entries())
	require.NoError(t, m.Validate())
	require.NoError(t, m.Clear())
}

func TestMapDestroysValues(t *testing.T) {
	releasedHandles = nil
	m := newMap[int64, resource](t, 4)

	for key := int64(1); key <= 3; key++ {
		_, err := m.Set(key, resource{Handle: key * 100})
		require.NoError(t, err)
	}

	_, err := m.Set(2, resource{Handle: 201})
	require.NoError(t, err)
	require.Equal(t, []int64{200}, releasedHandles)

	_, err = m.Delete(1)
	require.NoError(t, err)
	require.Equal(t, []int64{200, 100}, releasedHandles)

	require.NoError(t, m.Clear())
	require.ElementsMatch(t, []int64{200, 100, 201, 300}, releasedHandles)
	require.True(t, m.Allocator().Pool().IsEmpty())
}

func TestMapNodesUseSeparatePool(t *testing.T) {
	registry := pool.NewRegistry(nil, pool.RegistryCreateInfo{})
	defer registry.Destroy()

	a, err := alloc.New[entry](registry, 10)
	require.NoError(t, err)

	m, err := orderedmap.New(a)
	require.NoError(t, err)
	require.False(t, alloc.Equivalent(a, m.Allocator()))
	require.Equal(t, 10, m.Allocator().Capacity())
	require.Equal(t, 2, registry.Len())
}

func TestMapRejectsGarbageCollectedKeysAndValues(t *testing.T) {
	registry := pool.NewRegistry(nil, pool.RegistryCreateInfo{})
	defer registry.Destroy()

	stringKeys, err := alloc.New[orderedmap.Entry[string, int]](registry, 10)
	require.NoError(t, err)

	m, err := orderedmap.New(stringKeys)
	require.Nil(t, m)
	require.ErrorIs(t, err, memutils.ErrInvalidArgument)

	sliceValues, err := alloc.New[orderedmap.Entry[int64, []byte]](registry, 10)
	require.NoError(t, err)

	_, err = orderedmap.New(sliceValues)
	require.ErrorIs(t, err, memutils.ErrInvalidArgument)

	for _, p := range registry.Pools() {
		require.True(t, p.IsEmpty())
	}
}

