// Package alloc adapts a pool.BlockPool to the allocate/construct/destroy/deallocate contract that
// pool-backed containers are written against.
//
// An Allocator[T] holds no state of its own: it is a handle to the pool whose blocks are exactly
// unsafe.Sizeof(T) bytes. Copies of an allocator, and allocators for other types of the same size and
// capacity drawn from the same Registry, share that pool and may release each other's elements.
//
// Pool memory is not scanned by the garbage collector. Element types may hold pointers into pool memory,
// such as the links between container nodes, but must never hold the only reference to a Go heap object:
// strings, slices, maps, interfaces, channels, funcs and heap pointers stored in pool memory are not kept
// alive. CheckPoolSafe reports whether a type is free of such references.
package alloc
