//go:build linux || darwin || freebsd

package pool

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/memutils"
	"golang.org/x/sys/unix"
)

// MappedBacking allocates pool buffers as anonymous private memory mappings. Mappings are page aligned
// and invisible to the garbage collector.
type MappedBacking struct{}

var _ Backing = MappedBacking{}

func (MappedBacking) Allocate(size int) ([]byte, error) {
	if size < 1 {
		return nil, errors.Wrapf(memutils.ErrInvalidArgument, "cannot map a buffer of %d bytes", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %d bytes of anonymous memory", size)
	}

	return data, nil
}

func (MappedBacking) Free(data []byte) error {
	err := unix.Munmap(data)
	if err != nil {
		return errors.Wrap(err, "failed to unmap pool memory")
	}
	return nil
}
