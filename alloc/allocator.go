package alloc

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/pool"
)

// Destroyer can be implemented by element types that need to tear down state before their storage is
// zeroed by Allocator.Destroy
type Destroyer interface {
	Destroy()
}

// Allocator hands out storage for elements of type T from a BlockPool sized for T.
type Allocator[T any] struct {
	pool     *pool.BlockPool
	registry *pool.Registry
	capacity int
}

func elementSize[T any]() (int, error) {
	var zero T
	size := unsafe.Sizeof(zero)
	alignment := unsafe.Alignof(zero)

	if size == 0 {
		return 0, errors.Wrapf(memutils.ErrInvalidArgument, "%T is a zero-sized type", zero)
	}

	err := memutils.CheckPow2(alignment, "alignment")
	if err != nil {
		return 0, errors.Wrapf(memutils.ErrInvalidArgument, "%T: %v", zero, err)
	}

	if uintptr(memutils.MaxAlignment)%alignment != 0 {
		return 0, errors.Wrapf(memutils.ErrInvalidArgument, "%T requires %d byte alignment, pools only guarantee %d",
			zero, alignment, memutils.MaxAlignment)
	}

	return int(size), nil
}

// New creates an Allocator bound to the registry's pool of capacity blocks sized for T. Every allocator
// created from the same registry with the same element size and capacity shares one pool.
func New[T any](registry *pool.Registry, capacity int) (Allocator[T], error) {
	if registry == nil {
		return Allocator[T]{}, errors.Wrap(memutils.ErrInvalidArgument, "registry is nil")
	}

	size, err := elementSize[T]()
	if err != nil {
		return Allocator[T]{}, err
	}

	p, err := registry.Pool(size, capacity)
	if err != nil {
		return Allocator[T]{}, err
	}

	return Allocator[T]{
		pool:     p,
		registry: registry,
		capacity: capacity,
	}, nil
}

// NewDefault creates an Allocator bound to pool.DefaultRegistry()
func NewDefault[T any](capacity int) (Allocator[T], error) {
	return New[T](pool.DefaultRegistry(), capacity)
}

// ForPool creates an Allocator bound directly to p, whose block size must be exactly the size of T.
// Allocators created this way can only be rebound to types of the same size.
func ForPool[T any](p *pool.BlockPool) (Allocator[T], error) {
	if p == nil {
		return Allocator[T]{}, errors.Wrap(memutils.ErrInvalidArgument, "pool is nil")
	}

	size, err := elementSize[T]()
	if err != nil {
		return Allocator[T]{}, err
	}

	if size != p.BlockSize() {
		var zero T
		return Allocator[T]{}, errors.Wrapf(memutils.ErrInvalidArgument, "%T is %d bytes, but pool %s has %d byte blocks",
			zero, size, p.Name(), p.BlockSize())
	}

	return Allocator[T]{
		pool:     p,
		capacity: p.BlockCount(),
	}, nil
}

// Rebind derives an allocator for U from an allocator for T. When U and T have the same size the derived
// allocator shares a's pool. Otherwise it is bound to the registry pool of the same capacity sized for U,
// which is a different pool from a's: nothing allocated through one may be released through the other.
func Rebind[U any, T any](a Allocator[T]) (Allocator[U], error) {
	if a.pool == nil {
		return Allocator[U]{}, errors.Wrap(memutils.ErrInvalidArgument, "cannot rebind an allocator that is not bound to a pool")
	}

	size, err := elementSize[U]()
	if err != nil {
		return Allocator[U]{}, err
	}

	if size == a.pool.BlockSize() {
		return Allocator[U]{
			pool:     a.pool,
			registry: a.registry,
			capacity: a.capacity,
		}, nil
	}

	if a.registry == nil {
		var zero U
		return Allocator[U]{}, errors.Wrapf(memutils.ErrInvalidArgument, "cannot rebind an allocator bound directly to pool %s to %d byte %T",
			a.pool.Name(), size, zero)
	}

	return New[U](a.registry, a.capacity)
}

// Equivalent reports whether a and b draw from the same pool, in which case storage allocated through
// one may be deallocated through the other
func Equivalent[T any, U any](a Allocator[T], b Allocator[U]) bool {
	return a.pool != nil && a.pool == b.pool
}

// Pool returns the pool this allocator draws from
func (a Allocator[T]) Pool() *pool.BlockPool {
	return a.pool
}

// Capacity returns the number of blocks in the pool this allocator draws from
func (a Allocator[T]) Capacity() int {
	return a.capacity
}

// Equal reports whether a and other draw from the same pool. Allocators not bound to a pool are never equal.
func (a Allocator[T]) Equal(other Allocator[T]) bool {
	return a.pool != nil && a.pool == other.pool
}

// Allocate returns zeroed storage for n contiguous elements of T. If the pool cannot supply them, the
// returned error wraps memutils.ErrOutOfMemory; a nil pointer is never returned without an error.
func (a Allocator[T]) Allocate(n int) (*T, error) {
	if a.pool == nil {
		return nil, errors.Wrap(memutils.ErrInvalidArgument, "allocator is not bound to a pool")
	}

	ptr, err := a.pool.Acquire(n)
	if err != nil {
		var zero T
		return nil, errors.Wrapf(err, "failed to allocate %d elements of %T", n, zero)
	}

	return (*T)(ptr), nil
}

// AllocateSlice is Allocate with the storage returned as a slice of length n
func (a Allocator[T]) AllocateSlice(n int) ([]T, error) {
	ptr, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice(ptr, n), nil
}

// Deallocate returns n elements starting at p to the pool. n must be the count that was passed to Allocate.
// Pool errors are returned as-is: a pointer the pool does not own, or a run past the end of the pool,
// produces an error wrapping memutils.ErrInvalidArgument.
func (a Allocator[T]) Deallocate(p *T, n int) error {
	if a.pool == nil {
		return errors.Wrap(memutils.ErrInvalidArgument, "allocator is not bound to a pool")
	}

	return a.pool.Release(unsafe.Pointer(p), n)
}

// DeallocateSlice returns a slice obtained from AllocateSlice to the pool
func (a Allocator[T]) DeallocateSlice(s []T) error {
	if len(s) == 0 {
		return errors.Wrap(memutils.ErrInvalidArgument, "cannot deallocate an empty slice")
	}

	return a.Deallocate(&s[0], len(s))
}

// Construct initializes the storage at p with value. It does not allocate.
func (a Allocator[T]) Construct(p *T, value T) {
	*p = value
}

// ConstructFunc zeroes the storage at p and runs ctor on it. If ctor fails the storage is zeroed again
// and the error is returned. It does not allocate.
func (a Allocator[T]) ConstructFunc(p *T, ctor func(*T) error) error {
	var zero T
	*p = zero

	err := ctor(p)
	if err != nil {
		*p = zero
		return err
	}

	return nil
}

// Destroy tears down the element at p, calling Destroy first if *T implements Destroyer, and zeroes its
// storage. It does not deallocate.
func (a Allocator[T]) Destroy(p *T) {
	if destroyer, ok := any(p).(Destroyer); ok {
		destroyer.Destroy()
	}

	var zero T
	*p = zero
}
