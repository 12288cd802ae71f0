package orderedmap

import (
	"github.com/vkngwrapper/fixedpool/alloc"
	"golang.org/x/exp/constraints"
)

// Entry is a key and its value
type Entry[K constraints.Ordered, V any] struct {
	Key   K
	Value V
}

// node is red unless black is set, so a freshly allocated node is red
type node[K constraints.Ordered, V any] struct {
	entry Entry[K, V]
	left  *node[K, V]
	right *node[K, V]
	black bool
}

func (nd *node[K, V]) Destroy() {
	if destroyer, ok := any(&nd.entry.Value).(alloc.Destroyer); ok {
		destroyer.Destroy()
	}
}

func isred[K constraints.Ordered, V any](nd *node[K, V]) bool {
	return nd != nil && !nd.black
}

func rotateleft[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	y := nd.right
	if y.black {
		panic("rotateleft(): rotating a black link")
	}
	nd.right = y.left
	y.left = nd
	y.black = nd.black
	nd.black = false
	return y
}

func rotateright[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	x := nd.left
	if x.black {
		panic("rotateright(): rotating a black link")
	}
	nd.left = x.right
	x.right = nd
	x.black = nd.black
	nd.black = false
	return x
}

// REQUIRE: Left and Right children must be present
func flip[K constraints.Ordered, V any](nd *node[K, V]) {
	nd.left.black = !nd.left.black
	nd.right.black = !nd.right.black
	nd.black = !nd.black
}

// REQUIRE: Left and Right children must be present
func moveredleft[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	flip(nd)
	if isred(nd.right.left) {
		nd.right = rotateright(nd.right)
		nd = rotateleft(nd)
		flip(nd)
	}
	return nd
}

// REQUIRE: Left and Right children must be present
func moveredright[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	flip(nd)
	if isred(nd.left.left) {
		nd = rotateright(nd)
		flip(nd)
	}
	return nd
}

func walkuprot23[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	if isred(nd.right) && !isred(nd.left) {
		nd = rotateleft(nd)
	}
	if isred(nd.left) && isred(nd.left.left) {
		nd = rotateright(nd)
	}
	if isred(nd.left) && isred(nd.right) {
		flip(nd)
	}
	return nd
}

func fixup[K constraints.Ordered, V any](nd *node[K, V]) *node[K, V] {
	if isred(nd.right) {
		nd = rotateleft(nd)
	}
	if isred(nd.left) && isred(nd.left.left) {
		nd = rotateright(nd)
	}
	if isred(nd.left) && isred(nd.right) {
		flip(nd)
	}
	return nd
}
