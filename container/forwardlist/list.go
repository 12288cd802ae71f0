// Package forwardlist is a singly-linked list whose nodes live in a fixed-capacity block pool.
package forwardlist

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/alloc"
)

type node[T any] struct {
	value T
	next  *node[T]
}

func (n *node[T]) Destroy() {
	if destroyer, ok := any(&n.value).(alloc.Destroyer); ok {
		destroyer.Destroy()
	}
}

// List is a singly-linked list of T. Each element occupies one block of the pool sized for its node,
// so a list can hold at most as many elements as the allocator's capacity, less whatever else is drawn
// from the same pool.
//
// List is not safe for concurrent use.
type List[T any] struct {
	alloc alloc.Allocator[node[T]]
	head  *node[T]
	tail  *node[T]
	count int
}

// New creates an empty list whose nodes are allocated from the pool that a rebinds to. Element types that
// hold pointers, strings, slices, maps, interfaces, channels or funcs are rejected, see alloc.CheckPoolSafe.
func New[T any](a alloc.Allocator[T]) (*List[T], error) {
	err := alloc.CheckPoolSafe[T]()
	if err != nil {
		return nil, err
	}

	nodeAlloc, err := alloc.Rebind[node[T]](a)
	if err != nil {
		return nil, errors.Wrap(err, "failed to rebind allocator to list nodes")
	}

	return &List[T]{alloc: nodeAlloc}, nil
}

// Allocator returns the node allocator backing the list
func (l *List[T]) Allocator() alloc.Allocator[node[T]] {
	return l.alloc
}

// Len returns the number of elements in the list
func (l *List[T]) Len() int {
	return l.count
}

func (l *List[T]) newNode(value T) (*node[T], error) {
	nd, err := l.alloc.Allocate(1)
	if err != nil {
		return nil, err
	}

	l.alloc.Construct(nd, node[T]{value: value})
	return nd, nil
}

func (l *List[T]) freeNode(nd *node[T]) error {
	l.alloc.Destroy(nd)
	return l.alloc.Deallocate(nd, 1)
}

// PushBack appends value to the end of the list. If no node can be allocated the list is unchanged.
func (l *List[T]) PushBack(value T) error {
	nd, err := l.newNode(value)
	if err != nil {
		return err
	}

	if l.tail == nil {
		l.head = nd
	} else {
		l.tail.next = nd
	}
	l.tail = nd
	l.count++

	return nil
}

// PushFront prepends value to the start of the list. If no node can be allocated the list is unchanged.
func (l *List[T]) PushFront(value T) error {
	nd, err := l.newNode(value)
	if err != nil {
		return err
	}

	nd.next = l.head
	l.head = nd
	if l.tail == nil {
		l.tail = nd
	}
	l.count++

	return nil
}

// PopFront removes the first element and returns it. ok is false when the list is empty.
func (l *List[T]) PopFront() (value T, ok bool, err error) {
	nd := l.head
	if nd == nil {
		return value, false, nil
	}

	l.head = nd.next
	if l.head == nil {
		l.tail = nil
	}
	l.count--

	value = nd.value
	return value, true, l.freeNode(nd)
}

// Iterator is a position in a List
type Iterator[T any] struct {
	nd *node[T]
}

// Front returns an iterator at the first element, or nil if the list is empty
func (l *List[T]) Front() *Iterator[T] {
	if l.head == nil {
		return nil
	}
	return &Iterator[T]{nd: l.head}
}

// Next returns an iterator at the following element, or nil at the end of the list
func (it *Iterator[T]) Next() *Iterator[T] {
	if it.nd.next == nil {
		return nil
	}
	return &Iterator[T]{nd: it.nd.next}
}

// Value returns the element at the iterator's position
func (it *Iterator[T]) Value() T {
	return it.nd.value
}

// Each calls fn for every element in order until fn returns false
func (l *List[T]) Each(fn func(value T) bool) {
	for nd := l.head; nd != nil; nd = nd.next {
		if !fn(nd.value) {
			return
		}
	}
}

// Values returns a copy of the list's elements in order
func (l *List[T]) Values() []T {
	values := make([]T, 0, l.count)
	l.Each(func(value T) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Clear destroys every element and returns its node to the pool. Deallocation errors are combined and
// returned after the whole chain has been walked; the list is empty either way.
func (l *List[T]) Clear() error {
	var err error

	nd := l.head
	for nd != nil {
		next := nd.next
		err = errors.CombineErrors(err, l.freeNode(nd))
		nd = next
	}

	l.head = nil
	l.tail = nil
	l.count = 0

	return err
}
