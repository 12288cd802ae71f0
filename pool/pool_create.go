package pool

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/memutils/metadata"
	"golang.org/x/exp/slog"
)

// PoolCreateInfo describes a BlockPool. BlockSize and BlockCount are fixed for the lifetime of the pool.
type PoolCreateInfo struct {
	// BlockSize is the size in bytes of a single block, usually the size of the element type the pool serves
	BlockSize int
	// BlockCount is the number of blocks in the pool, which is also the largest run that can be granted
	BlockCount int
	// Flags selects the algorithm and the backing memory
	Flags PoolCreateFlags
	// Name is used in log output and detailed maps. A name derived from the dimensions is used if empty.
	Name string
	// Backing overrides the memory source selected by Flags
	Backing Backing
}

// New creates a BlockPool, allocating its buffer from the backing memory immediately. A nil logger logs
// to slog.Default().
func New(logger *slog.Logger, createInfo PoolCreateInfo) (*BlockPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	size, err := memutils.BufferSize(createInfo.BlockSize, createInfo.BlockCount)
	if err != nil {
		return nil, err
	}

	var md metadata.BlockMetadata
	switch createInfo.Flags & PoolCreateAlgorithmMask {
	case 0:
		md = metadata.NewFirstFitBlockMetadata(createInfo.BlockSize)
	case PoolCreateLinearAlgorithm:
		md = metadata.NewLinearBlockMetadata(createInfo.BlockSize)
	default:
		return nil, errors.Newf("unknown pool algorithm: %s", createInfo.Flags.String())
	}

	backing := createInfo.Backing
	if backing == nil {
		if createInfo.Flags&PoolCreateMappedMemory != 0 {
			backing = MappedBacking{}
		} else {
			backing = HeapBacking{}
		}
	}

	data, err := backing.Allocate(size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %d bytes of backing memory", size)
	}

	if len(data) < size {
		freeErr := backing.Free(data)
		return nil, errors.CombineErrors(
			errors.Newf("backing memory returned %d bytes, but %d were requested", len(data), size),
			freeErr)
	}

	base := unsafe.Pointer(&data[0])
	if !memutils.IsAligned(base, memutils.MaxAlignment) {
		freeErr := backing.Free(data)
		return nil, errors.CombineErrors(
			errors.Newf("backing memory at %p is not aligned to %d bytes", base, memutils.MaxAlignment),
			freeErr)
	}

	md.Init(createInfo.BlockCount)

	name := createInfo.Name
	if name == "" {
		name = fmt.Sprintf("%dx%d", createInfo.BlockSize, createInfo.BlockCount)
	}

	if memutils.PoisonEnabled {
		memutils.WritePoison(base, size)
	}

	pool := &BlockPool{
		logger:   logger,
		id:       uuid.New(),
		name:     name,
		flags:    createInfo.Flags,
		backing:  backing,
		data:     data,
		base:     base,
		size:     size,
		metadata: md,
	}

	logger.Debug("BlockPool::New",
		slog.String("Name", name),
		slog.String("ID", pool.id.String()),
		slog.Int("BlockSize", createInfo.BlockSize),
		slog.Int("BlockCount", createInfo.BlockCount),
		slog.String("Flags", createInfo.Flags.String()))

	return pool, nil
}
