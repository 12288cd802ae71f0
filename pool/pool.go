package pool

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/memutils/metadata"
	"golang.org/x/exp/slog"
)

// ErrPoolDestroyed is returned by operations on a BlockPool after Destroy has succeeded
var ErrPoolDestroyed = errors.New("pool has been destroyed")

// BlockPool owns a single contiguous buffer divided into fixed-size blocks and grants contiguous runs of
// those blocks. Which blocks are granted is tracked by a metadata.BlockMetadata; no record is kept of
// individual grants, so callers must release exactly the runs they acquired.
//
// BlockPool is not safe for concurrent use.
type BlockPool struct {
	logger  *slog.Logger
	id      uuid.UUID
	name    string
	flags   PoolCreateFlags
	backing Backing

	data []byte
	base unsafe.Pointer
	size int

	metadata metadata.BlockMetadata
}

func (p *BlockPool) ID() uuid.UUID {
	return p.id
}

func (p *BlockPool) Name() string {
	return p.name
}

func (p *BlockPool) SetName(name string) {
	p.logger.Debug("BlockPool::SetName", slog.String("Name", name))

	p.name = name
}

func (p *BlockPool) Flags() PoolCreateFlags {
	return p.flags
}

// Algorithm returns the allocation algorithm selected by the pool's creation flags
func (p *BlockPool) Algorithm() metadata.AllocationRequestType {
	if p.flags&PoolCreateLinearAlgorithm != 0 {
		return metadata.AllocationRequestLinear
	}
	return metadata.AllocationRequestFirstFit
}

// BlockSize returns the size in bytes of a single block
func (p *BlockPool) BlockSize() int {
	return p.metadata.BlockSize()
}

// BlockCount returns the number of blocks in the pool
func (p *BlockPool) BlockCount() int {
	return p.metadata.BlockCount()
}

// FreeBlockCount returns the number of blocks not currently granted
func (p *BlockPool) FreeBlockCount() int {
	return p.metadata.FreeBlockCount()
}

// IsEmpty returns true if no block is currently granted
func (p *BlockPool) IsEmpty() bool {
	return p.metadata.IsEmpty()
}

// IsFree reports whether the block at index is currently free
func (p *BlockPool) IsFree(index int) bool {
	return p.metadata.IsFree(index)
}

// IsDestroyed returns true once Destroy has succeeded
func (p *BlockPool) IsDestroyed() bool {
	return p.data == nil
}

// Contains reports whether ptr points into this pool's buffer
func (p *BlockPool) Contains(ptr unsafe.Pointer) bool {
	if p.data == nil || ptr == nil {
		return false
	}

	address := uintptr(ptr)
	base := uintptr(p.base)
	return address >= base && address < base+uintptr(p.size)
}

// IndexOf translates a pointer into the pool's buffer to the index of the block containing it. It returns
// an error wrapping memutils.ErrInvalidArgument if ptr does not point into the buffer.
func (p *BlockPool) IndexOf(ptr unsafe.Pointer) (int, error) {
	if p.data == nil {
		return 0, errors.Wrapf(ErrPoolDestroyed, "pool %s", p.name)
	}

	if !p.Contains(ptr) {
		return 0, errors.Wrapf(memutils.ErrInvalidArgument, "pointer %p is outside of pool %s", ptr, p.name)
	}

	return int(uintptr(ptr)-uintptr(p.base)) / p.BlockSize(), nil
}

// Pointer translates a block index to the address of the first byte of that block
func (p *BlockPool) Pointer(index int) (unsafe.Pointer, error) {
	if p.data == nil {
		return nil, errors.Wrapf(ErrPoolDestroyed, "pool %s", p.name)
	}

	if index < 0 || index >= p.BlockCount() {
		return nil, errors.Wrapf(memutils.ErrInvalidArgument, "block index %d is outside of pool %s with %d blocks", index, p.name, p.BlockCount())
	}

	return unsafe.Add(p.base, index*p.BlockSize()), nil
}

// Acquire grants the lowest-addressed run of blockCount contiguous free blocks and returns a pointer to
// its first byte. The granted memory is zeroed.
//
// If blockCount exceeds the pool's capacity, or no run of free blocks is long enough, an error wrapping
// memutils.ErrOutOfMemory is returned and nothing is granted.
func (p *BlockPool) Acquire(blockCount int) (unsafe.Pointer, error) {
	p.logger.Debug("BlockPool::Acquire", slog.String("Pool", p.name), slog.Int("BlockCount", blockCount))

	if p.data == nil {
		return nil, errors.Wrapf(ErrPoolDestroyed, "pool %s", p.name)
	}

	success, request, err := p.metadata.CreateAllocationRequest(blockCount)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, errors.Wrapf(memutils.ErrOutOfMemory, "no run of %d free blocks in pool %s (%d of %d blocks free)",
			blockCount, p.name, p.FreeBlockCount(), p.BlockCount())
	}

	ptr := unsafe.Add(p.base, request.StartBlock*p.BlockSize())
	size := request.BlockCount * p.BlockSize()

	if memutils.PoisonEnabled && !memutils.ValidatePoison(ptr, size) {
		p.logger.LogAttrs(context.Background(), slog.LevelError, "[CORRUPTION] released blocks were written to",
			slog.String("Pool", p.name),
			slog.Int("Index", request.StartBlock),
			slog.Int("BlockCount", request.BlockCount))
	}

	err = p.metadata.Alloc(request)
	if err != nil {
		return nil, err
	}

	clearMemory(ptr, size)
	memutils.DebugValidate(p.metadata)

	return ptr, nil
}

// Release returns the run of blockCount blocks starting at the block containing ptr to the pool.
//
// ptr must point into the pool's buffer and the run must not extend past the last block, otherwise an error
// wrapping memutils.ErrInvalidArgument is returned and nothing changes. Blocks in the run are marked free
// whatever their prior state: releasing a run that was not granted, or releasing it twice, is not detected.
func (p *BlockPool) Release(ptr unsafe.Pointer, blockCount int) error {
	p.logger.Debug("BlockPool::Release", slog.String("Pool", p.name), slog.Int("BlockCount", blockCount))

	index, err := p.IndexOf(ptr)
	if err != nil {
		return err
	}

	err = p.metadata.Free(index, blockCount)
	if err != nil {
		return err
	}

	if memutils.PoisonEnabled {
		memutils.WritePoison(unsafe.Add(p.base, index*p.BlockSize()), blockCount*p.BlockSize())
	}

	return nil
}

// Clear marks every block free at once. Any pointer previously returned by Acquire becomes invalid.
func (p *BlockPool) Clear() {
	p.logger.Debug("BlockPool::Clear", slog.String("Pool", p.name))

	p.metadata.Clear()
	if memutils.PoisonEnabled && p.data != nil {
		memutils.WritePoison(p.base, p.size)
	}
}

// AddStatistics sums this pool's block statistics into the provided memutils.Statistics object
func (p *BlockPool) AddStatistics(stats *memutils.Statistics) {
	p.metadata.AddStatistics(stats)
}

// AddDetailedStatistics sums this pool's block statistics into the provided memutils.DetailedStatistics object
func (p *BlockPool) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	p.metadata.AddDetailedStatistics(stats)
}

// Validate performs internal consistency checks on the pool and its metadata
func (p *BlockPool) Validate() error {
	if p.data == nil {
		return errors.Wrapf(ErrPoolDestroyed, "pool %s", p.name)
	}

	if p.size != p.BlockSize()*p.BlockCount() {
		return errors.Newf("pool %s has a %d byte buffer, but %d blocks of %d bytes", p.name, p.size, p.BlockCount(), p.BlockSize())
	}

	return p.metadata.Validate()
}

// CheckCorruption verifies that no free block has been written to since it was released. Released blocks
// are only marked when built with the debug_mem_utils build tag; otherwise this method always returns nil.
func (p *BlockPool) CheckCorruption() error {
	if !memutils.PoisonEnabled || p.data == nil {
		return nil
	}

	return p.metadata.VisitAllRegions(func(index int, count int, free bool) error {
		if !free {
			return nil
		}

		if !memutils.ValidatePoison(unsafe.Add(p.base, index*p.BlockSize()), count*p.BlockSize()) {
			return errors.Newf("memory corruption detected in released blocks [%d, %d) of pool %s", index, index+count, p.name)
		}
		return nil
	})
}

// Destroy returns the pool's buffer to its backing memory. If any block is still granted, each used run is
// logged, an error is returned and the pool remains usable. Destroying a destroyed pool does nothing.
func (p *BlockPool) Destroy() error {
	p.logger.Debug("BlockPool::Destroy", slog.String("Pool", p.name))

	if p.data == nil {
		return nil
	}

	if !p.metadata.IsEmpty() {
		_ = p.metadata.VisitAllRegions(func(index int, count int, free bool) error {
			if !free {
				p.logUnreleasedMemory(index, count)
			}
			return nil
		})

		return errors.Newf("%d blocks were not released before the destruction of pool %s",
			p.BlockCount()-p.FreeBlockCount(), p.name)
	}

	err := p.backing.Free(p.data)
	if err != nil {
		return errors.Wrapf(err, "failed to free the backing memory of pool %s", p.name)
	}

	p.data = nil
	p.base = nil
	return nil
}

func (p *BlockPool) logUnreleasedMemory(index, count int) {
	p.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] blocks still in use",
		slog.String("Pool", p.name),
		slog.Int("Index", index),
		slog.Int("BlockCount", count),
		slog.Int("Offset", index*p.BlockSize()),
		slog.Int("Size", count*p.BlockSize()),
	)
}

// PrintDetailedMap writes a json object describing the pool and every run of free and used blocks
func (p *BlockPool) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	p.printDetailedMap(obj)
}

func (p *BlockPool) printDetailedMap(json jwriter.ObjectState) {
	json.Name("Name").String(p.name)
	json.Name("ID").String(p.id.String())
	json.Name("Flags").String(p.flags.String())
	json.Name("Destroyed").Bool(p.data == nil)
	p.metadata.BlockJsonData(json)

	regions := json.Name("Regions").Array()
	defer regions.End()

	_ = p.metadata.VisitAllRegions(func(index int, count int, free bool) error {
		obj := regions.Object()
		defer obj.End()

		obj.Name("Index").Int(index)
		obj.Name("Blocks").Int(count)
		obj.Name("Type").String(metadata.RegionTypeOf(free).String())
		return nil
	})
}

func clearMemory(ptr unsafe.Pointer, size int) {
	data := unsafe.Slice((*byte)(ptr), size)
	for i := range data {
		data[i] = 0
	}
}
