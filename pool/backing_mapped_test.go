//go:build linux || darwin || freebsd

package pool_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/pool"
)

func TestMappedBackingPool(t *testing.T) {
	p := newPool(t, 64, 32, pool.PoolCreateMappedMemory)

	ptr, err := p.Acquire(4)
	require.NoError(t, err)
	require.True(t, memutils.IsAligned(ptr, memutils.MaxAlignment))

	data := unsafe.Slice((*byte)(ptr), 4*64)
	for i := range data {
		data[i] = byte(i)
	}
	require.Equal(t, byte(255), data[255])

	require.NoError(t, p.Release(ptr, 4))
	require.NoError(t, p.Destroy())
	require.True(t, p.IsDestroyed())
}
