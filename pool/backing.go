package pool

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/memutils"
)

// Backing supplies the single contiguous buffer a BlockPool carves into blocks. Allocate is called once
// when the pool is created and Free once when it is destroyed, with the exact slice Allocate returned.
//
// The returned buffer must be at least size bytes long and its first byte must be aligned to
// memutils.MaxAlignment.
type Backing interface {
	Allocate(size int) ([]byte, error)
	Free(data []byte) error
}

// HeapBacking allocates pool buffers from the Go heap. The buffer is allocated as a slice of machine words
// so that its alignment is guaranteed, and it carries no pointer information: the garbage collector does
// not scan it.
type HeapBacking struct{}

var _ Backing = HeapBacking{}

func (HeapBacking) Allocate(size int) ([]byte, error) {
	if size < 1 {
		return nil, errors.Wrapf(memutils.ErrInvalidArgument, "cannot allocate a buffer of %d bytes", size)
	}

	words := make([]uint64, memutils.AlignUp(size, memutils.MaxAlignment)/int(memutils.MaxAlignment))
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size), nil
}

// Free is a no-op: the buffer is reclaimed by the garbage collector once the pool is unreachable
func (HeapBacking) Free(data []byte) error {
	return nil
}
