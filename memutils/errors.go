package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrOutOfMemory is returned when a pool has no contiguous run of free blocks large enough to satisfy a request,
// or when the request is larger than the pool's capacity
var ErrOutOfMemory error = errors.New("out of memory")

// ErrInvalidArgument is returned when a caller passes a pointer that the pool does not own, or a block range
// that does not fit inside the pool. It indicates a bookkeeping bug in the caller.
var ErrInvalidArgument error = errors.New("invalid argument")
