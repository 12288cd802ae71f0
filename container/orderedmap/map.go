package orderedmap

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/alloc"
	"github.com/vkngwrapper/fixedpool/memutils"
	"golang.org/x/exp/constraints"
)

// Map is an ordered map from K to V. Every entry occupies one block of the pool sized for the map's
// nodes, so a map holds at most as many entries as the allocator's capacity.
//
// Map is not safe for concurrent use.
type Map[K constraints.Ordered, V any] struct {
	alloc alloc.Allocator[node[K, V]]
	root  *node[K, V]
	count int
}

// New creates an empty map whose nodes are allocated from the pool that a rebinds to. Key and value types
// that hold pointers, strings, slices, maps, interfaces, channels or funcs are rejected, see
// alloc.CheckPoolSafe.
func New[K constraints.Ordered, V any](a alloc.Allocator[Entry[K, V]]) (*Map[K, V], error) {
	err := alloc.CheckPoolSafe[Entry[K, V]]()
	if err != nil {
		return nil, err
	}

	nodeAlloc, err := alloc.Rebind[node[K, V]](a)
	if err != nil {
		return nil, errors.Wrap(err, "failed to rebind allocator to map nodes")
	}

	return &Map[K, V]{alloc: nodeAlloc}, nil
}

// Allocator returns the node allocator backing the map
func (m *Map[K, V]) Allocator() alloc.Allocator[node[K, V]] {
	return m.alloc
}

// Len returns the number of entries in the map
func (m *Map[K, V]) Len() int {
	return m.count
}

func (m *Map[K, V]) find(key K) *node[K, V] {
	nd := m.root
	for nd != nil {
		if key < nd.entry.Key {
			nd = nd.left
		} else if nd.entry.Key < key {
			nd = nd.right
		} else {
			return nd
		}
	}
	return nil
}

// Get returns the value stored for key
func (m *Map[K, V]) Get(key K) (V, bool) {
	nd := m.find(key)
	if nd == nil {
		var zero V
		return zero, false
	}
	return nd.entry.Value, true
}

// Has reports whether key is present
func (m *Map[K, V]) Has(key K) bool {
	return m.find(key) != nil
}

// Set stores value for key. It returns true if a new entry was inserted and false if an existing value
// was replaced. If a new entry is needed and no node can be allocated, the map is unchanged and the error
// wraps memutils.ErrOutOfMemory.
func (m *Map[K, V]) Set(key K, value V) (bool, error) {
	if nd := m.find(key); nd != nil {
		nd.Destroy()
		nd.entry.Value = value
		return false, nil
	}

	fresh, err := m.alloc.Allocate(1)
	if err != nil {
		return false, errors.Wrapf(err, "failed to insert key %v", key)
	}
	m.alloc.Construct(fresh, node[K, V]{entry: Entry[K, V]{Key: key, Value: value}})

	m.root = m.insert(m.root, fresh)
	m.root.black = true
	m.count++
	memutils.DebugValidate(m)

	return true, nil
}

func (m *Map[K, V]) insert(nd, fresh *node[K, V]) *node[K, V] {
	if nd == nil {
		return fresh
	}

	if fresh.entry.Key < nd.entry.Key {
		nd.left = m.insert(nd.left, fresh)
	} else {
		nd.right = m.insert(nd.right, fresh)
	}

	return walkuprot23(nd)
}

// Delete removes key from the map, destroying its entry and returning its node to the pool. It reports
// whether key was present.
func (m *Map[K, V]) Delete(key K) (bool, error) {
	if m.find(key) == nil {
		return false, nil
	}

	root, deleted := m.delete(m.root, key)
	if root != nil {
		root.black = true
	}
	m.root = root
	m.count--
	memutils.DebugValidate(m)

	return true, m.freeNode(deleted)
}

// using 2-3 trees
func (m *Map[K, V]) delete(nd *node[K, V], key K) (newnd, deleted *node[K, V]) {
	if nd == nil {
		return nil, nil
	}

	if key < nd.entry.Key {
		if nd.left == nil {
			return nd, nil
		}
		if !isred(nd.left) && !isred(nd.left.left) {
			nd = moveredleft(nd)
		}
		nd.left, deleted = m.delete(nd.left, key)

	} else {
		if isred(nd.left) {
			nd = rotateright(nd)
		}
		if nd.entry.Key == key && nd.right == nil {
			return nil, nd
		}
		if nd.right != nil && !isred(nd.right) && !isred(nd.right.left) {
			nd = moveredright(nd)
		}
		if nd.entry.Key == key {
			var successor *node[K, V]
			nd.right, successor = deletemin(nd.right)
			if successor == nil {
				panic("delete(): successor missing from non-empty right subtree")
			}
			// nd takes over the successor's entry, the successor node leaves with key's entry
			nd.entry, successor.entry = successor.entry, nd.entry
			deleted = successor
		} else {
			nd.right, deleted = m.delete(nd.right, key)
		}
	}

	return fixup(nd), deleted
}

func deletemin[K constraints.Ordered, V any](nd *node[K, V]) (newnd, deleted *node[K, V]) {
	if nd == nil {
		return nil, nil
	}
	if nd.left == nil {
		return nil, nd
	}
	if !isred(nd.left) && !isred(nd.left.left) {
		nd = moveredleft(nd)
	}
	nd.left, deleted = deletemin(nd.left)
	return fixup(nd), deleted
}

func (m *Map[K, V]) freeNode(nd *node[K, V]) error {
	m.alloc.Destroy(nd)
	return m.alloc.Deallocate(nd, 1)
}

// Min returns the entry with the smallest key
func (m *Map[K, V]) Min() (Entry[K, V], bool) {
	if m.root == nil {
		return Entry[K, V]{}, false
	}

	nd := m.root
	for nd.left != nil {
		nd = nd.left
	}
	return nd.entry, true
}

// Max returns the entry with the largest key
func (m *Map[K, V]) Max() (Entry[K, V], bool) {
	if m.root == nil {
		return Entry[K, V]{}, false
	}

	nd := m.root
	for nd.right != nil {
		nd = nd.right
	}
	return nd.entry, true
}

// Ascend calls fn for every entry in key order until fn returns false
func (m *Map[K, V]) Ascend(fn func(key K, value V) bool) {
	ascend(m.root, fn)
}

func ascend[K constraints.Ordered, V any](nd *node[K, V], fn func(key K, value V) bool) bool {
	if nd == nil {
		return true
	}
	if !ascend(nd.left, fn) {
		return false
	}
	if !fn(nd.entry.Key, nd.entry.Value) {
		return false
	}
	return ascend(nd.right, fn)
}

// Entries returns a copy of the map's entries in key order
func (m *Map[K, V]) Entries() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, m.count)
	m.Ascend(func(key K, value V) bool {
		entries = append(entries, Entry[K, V]{Key: key, Value: value})
		return true
	})
	return entries
}

// Clear destroys every entry and returns its node to the pool. Deallocation errors are combined and
// returned after the whole tree has been walked; the map is empty either way.
func (m *Map[K, V]) Clear() error {
	err := m.freeTree(m.root)
	m.root = nil
	m.count = 0
	return err
}

func (m *Map[K, V]) freeTree(nd *node[K, V]) error {
	if nd == nil {
		return nil
	}

	left, right := nd.left, nd.right
	err := errors.CombineErrors(m.freeTree(left), m.freeTree(right))
	return errors.CombineErrors(err, m.freeNode(nd))
}
