package orderedmap

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/memutils"
)

var _ memutils.Validatable = (*Map[int, int])(nil)

// Validate checks the left-leaning red-black invariants of the tree: keys in order, no right-leaning
// red links, no two red links in a row, and the same number of black links on every path to a leaf.
// It also checks that the entry count matches the tree and that every node belongs to the map's pool.
func (m *Map[K, V]) Validate() error {
	if isred(m.root) {
		return errors.New("root is red")
	}

	count, _, err := m.validatetree(m.root, false)
	if err != nil {
		return err
	}

	if count != m.count {
		return errors.Newf("map reports %d entries, but the tree holds %d", m.count, count)
	}

	return nil
}

func (m *Map[K, V]) validatetree(nd *node[K, V], fromred bool) (count, blacks int, err error) {
	if nd == nil {
		return 0, 1, nil
	}

	if !m.alloc.Pool().Contains(unsafe.Pointer(nd)) {
		return 0, 0, errors.Newf("node %v is not in pool %s", nd.entry.Key, m.alloc.Pool().Name())
	}
	if fromred && isred(nd) {
		return 0, 0, errors.Newf("consecutive red links at %v", nd.entry.Key)
	}
	if isred(nd.right) {
		return 0, 0, errors.Newf("right-leaning red link at %v", nd.entry.Key)
	}
	if nd.left != nil && !(nd.left.entry.Key < nd.entry.Key) {
		return 0, 0, errors.Newf("sort order, left node %v is >= node %v", nd.left.entry.Key, nd.entry.Key)
	}
	if nd.right != nil && !(nd.entry.Key < nd.right.entry.Key) {
		return 0, 0, errors.Newf("sort order, node %v is >= right node %v", nd.entry.Key, nd.right.entry.Key)
	}

	lcount, lblacks, err := m.validatetree(nd.left, isred(nd))
	if err != nil {
		return 0, 0, err
	}
	rcount, rblacks, err := m.validatetree(nd.right, isred(nd))
	if err != nil {
		return 0, 0, err
	}

	if lblacks != rblacks {
		return 0, 0, errors.Newf("unbalanced blacks {%d,%d} at %v", lblacks, rblacks, nd.entry.Key)
	}

	if !isred(nd) {
		lblacks++
	}

	return lcount + rcount + 1, lblacks, nil
}
