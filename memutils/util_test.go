package memutils_test

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fixedpool/memutils"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(1, "alignment"))
	require.NoError(t, memutils.CheckPow2(uint(8), "alignment"))
	require.NoError(t, memutils.CheckPow2(uintptr(4096), "alignment"))

	err := memutils.CheckPow2(12, "alignment")
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
	require.Contains(t, err.Error(), "alignment is 12")
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, memutils.AlignUp(0, 8))
	require.Equal(t, 8, memutils.AlignUp(1, 8))
	require.Equal(t, 8, memutils.AlignUp(8, 8))
	require.Equal(t, 24, memutils.AlignUp(17, 8))
}

func TestIsAligned(t *testing.T) {
	words := make([]uint64, 2)
	base := unsafe.Pointer(&words[0])

	require.True(t, memutils.IsAligned(base, memutils.MaxAlignment))
	require.True(t, memutils.IsAligned(unsafe.Pointer(&words[1]), memutils.MaxAlignment))

	bytes := unsafe.Slice((*byte)(base), 16)
	require.False(t, memutils.IsAligned(unsafe.Pointer(&bytes[4]), memutils.MaxAlignment))
	require.True(t, memutils.IsAligned(unsafe.Pointer(&bytes[4]), 4))
}

func TestBufferSize(t *testing.T) {
	size, err := memutils.BufferSize(16, 10)
	require.NoError(t, err)
	require.Equal(t, 160, size)

	_, err = memutils.BufferSize(0, 10)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))

	_, err = memutils.BufferSize(16, -1)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))

	maxInt := int(^uint(0) >> 1)
	_, err = memutils.BufferSize(maxInt/2+1, 2)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))
}
