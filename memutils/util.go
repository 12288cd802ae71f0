package memutils

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// MaxAlignment is the alignment guaranteed for the first byte of every pool buffer. Element types with
// a stricter alignment requirement cannot be stored in a pool.
const MaxAlignment uint = 8

// Number is any integer type an alignment or size may be expressed in
type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns an error wrapping PowerOfTwoError if number is not a power of two
func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two
func AlignUp(value int, alignment uint) int {
	DebugCheckPow2(alignment, "alignment")
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

// IsAligned returns true if the provided pointer is a multiple of alignment, which must be a power of two
func IsAligned(ptr unsafe.Pointer, alignment uint) bool {
	DebugCheckPow2(alignment, "alignment")
	return uintptr(ptr)&uintptr(alignment-1) == 0
}

// BufferSize computes blockSize*blockCount, returning an error wrapping ErrInvalidArgument if either
// value is not positive or the product does not fit in an int
func BufferSize(blockSize, blockCount int) (int, error) {
	if blockSize < 1 {
		return 0, cerrors.Wrapf(ErrInvalidArgument, "block size must be positive, got %d", blockSize)
	}
	if blockCount < 1 {
		return 0, cerrors.Wrapf(ErrInvalidArgument, "block count must be positive, got %d", blockCount)
	}

	size := blockSize * blockCount
	if size/blockCount != blockSize {
		return 0, cerrors.Wrapf(ErrInvalidArgument, "%d blocks of %d bytes overflows the address space", blockCount, blockSize)
	}

	return size, nil
}
