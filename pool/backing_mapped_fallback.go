//go:build !(linux || darwin || freebsd)

package pool

import "github.com/cockroachdb/errors"

// MappedBacking allocates pool buffers as anonymous private memory mappings. It is not supported on
// this platform and always fails.
type MappedBacking struct{}

var _ Backing = MappedBacking{}

func (MappedBacking) Allocate(size int) ([]byte, error) {
	return nil, errors.New("anonymous memory mappings are not supported on this platform")
}

func (MappedBacking) Free(data []byte) error {
	return errors.New("anonymous memory mappings are not supported on this platform")
}
