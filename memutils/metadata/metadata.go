package metadata

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/memutils"
)

// BlockMetadata tracks which of the fixed-size blocks of a pool are currently granted. It knows nothing
// about the memory itself: block indices are translated to addresses by the pool that owns the metadata.
// No per-allocation records are kept, only the free/used state of each block.
type BlockMetadata interface {
	// Init must be called before the BlockMetadata is used. It sizes the occupancy table to blockCount
	// entries, all of them free.
	Init(blockCount int)
	// BlockSize retrieves the size in bytes of a single block
	BlockSize() int
	// BlockCount retrieves the number of blocks the metadata was initialized with
	BlockCount() int

	// Validate performs internal consistency checks on the metadata. When the implementation is
	// functioning correctly, it should not be possible for this method to return an error.
	Validate() error
	// FreeBlockCount returns the number of blocks that are not currently granted
	FreeBlockCount() int
	// FreeRegionsCount returns the number of maximal runs of free blocks
	FreeRegionsCount() int
	// IsEmpty will return true if no block is currently granted
	IsEmpty() bool
	// IsFree reports whether the block at the provided index is free. Out of range indices report false.
	IsFree(index int) bool

	// VisitAllRegions will call the provided callback once for each maximal run of free or used blocks,
	// in increasing index order. Iteration stops at the first error, which is returned.
	VisitAllRegions(handleRegion func(index int, count int, free bool) error) error

	// AddDetailedStatistics sums this pool's block statistics into the provided memutils.DetailedStatistics
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this pool's block statistics into the provided memutils.Statistics
	AddStatistics(stats *memutils.Statistics)

	// Clear instantly marks every block free
	Clear()
	// BlockJsonData populates a json object with information about this pool's occupancy
	BlockJsonData(json jwriter.ObjectState)

	// CreateAllocationRequest finds a place for a run of blockCount blocks. It returns false with no error
	// when no such run exists, and an error if blockCount is not positive. Nothing is committed until the
	// request is passed to Alloc.
	CreateAllocationRequest(blockCount int) (bool, AllocationRequest, error)
	// Alloc commits an AllocationRequest, marking its run of blocks as used. The implementation must
	// return an error if the request is no longer valid: the run is out of range or any block in it is
	// already used.
	Alloc(request AllocationRequest) error
	// Free marks every block in [index, index+count) free, regardless of its prior state. The implementation
	// must return an error wrapping memutils.ErrInvalidArgument if the run does not fit inside the table.
	Free(index, count int) error
}

// BlockMetadataBase holds the occupancy table shared by the BlockMetadata implementations in this package.
type BlockMetadataBase struct {
	blockSize  int
	blockCount int
	freeCount  int
	free       []bool
}

// NewBlockMetadata creates a new BlockMetadataBase for blocks of blockSize bytes. Init must be called
// before the base is used.
func NewBlockMetadata(blockSize int) BlockMetadataBase {
	return BlockMetadataBase{
		blockSize: blockSize,
	}
}

// Init sizes the occupancy table to blockCount blocks and marks them all free
func (m *BlockMetadataBase) Init(blockCount int) {
	m.blockCount = blockCount
	m.free = make([]bool, blockCount)
	m.Clear()
}

// BlockSize returns the size in bytes of a single block
func (m *BlockMetadataBase) BlockSize() int { return m.blockSize }

// BlockCount returns the number of blocks in the occupancy table
func (m *BlockMetadataBase) BlockCount() int { return m.blockCount }

// FreeBlockCount returns the number of blocks that are not currently granted
func (m *BlockMetadataBase) FreeBlockCount() int { return m.freeCount }

// IsEmpty returns true if no block is currently granted
func (m *BlockMetadataBase) IsEmpty() bool { return m.freeCount == m.blockCount }

// IsFree reports whether the block at index is free
func (m *BlockMetadataBase) IsFree(index int) bool {
	if index < 0 || index >= m.blockCount {
		return false
	}
	return m.free[index]
}

// Clear marks every block free
func (m *BlockMetadataBase) Clear() {
	for i := range m.free {
		m.free[i] = true
	}
	m.freeCount = m.blockCount
}

// FreeRegionsCount returns the number of maximal runs of free blocks
func (m *BlockMetadataBase) FreeRegionsCount() int {
	var count int
	_ = m.VisitAllRegions(func(index int, blocks int, free bool) error {
		if free {
			count++
		}
		return nil
	})
	return count
}

// VisitAllRegions calls handleRegion once for each maximal run of free or used blocks
func (m *BlockMetadataBase) VisitAllRegions(handleRegion func(index int, count int, free bool) error) error {
	start := 0
	for i := 1; i <= m.blockCount; i++ {
		if i < m.blockCount && m.free[i] == m.free[start] {
			continue
		}

		err := handleRegion(start, i-start, m.free[start])
		if err != nil {
			return err
		}
		start = i
	}

	return nil
}

// AddStatistics sums this table's statistics into the provided memutils.Statistics object
func (m *BlockMetadataBase) AddStatistics(stats *memutils.Statistics) {
	used := m.blockCount - m.freeCount

	stats.PoolCount++
	stats.BlockCount += m.blockCount
	stats.UsedBlockCount += used
	stats.BlockBytes += m.blockCount * m.blockSize
	stats.UsedBytes += used * m.blockSize
}

// AddDetailedStatistics sums this table's statistics, including its free and used runs, into the
// provided memutils.DetailedStatistics object
func (m *BlockMetadataBase) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.PoolCount++
	stats.BlockCount += m.blockCount
	stats.BlockBytes += m.blockCount * m.blockSize

	_ = m.VisitAllRegions(func(index int, count int, free bool) error {
		if free {
			stats.AddFreeRange(count)
		} else {
			stats.AddUsedRange(count, m.blockSize)
		}
		return nil
	})
}

// Validate checks that the cached free count agrees with the occupancy table
func (m *BlockMetadataBase) Validate() error {
	if len(m.free) != m.blockCount {
		return errors.Newf("the occupancy table has %d entries, but the metadata was initialized with %d blocks", len(m.free), m.blockCount)
	}

	var freeCount int
	for _, free := range m.free {
		if free {
			freeCount++
		}
	}

	if freeCount != m.freeCount {
		return errors.Newf("the free block count of the metadata is %d, but the occupancy table has %d free blocks", m.freeCount, freeCount)
	}

	return nil
}

// WriteBlockJson writes the fields common to every BlockMetadata implementation into a json object
func (m *BlockMetadataBase) WriteBlockJson(json jwriter.ObjectState) {
	var usedRanges, freeRanges int
	_ = m.VisitAllRegions(func(index int, count int, free bool) error {
		if free {
			freeRanges++
		} else {
			usedRanges++
		}
		return nil
	})

	json.Name("BlockSize").Int(m.blockSize)
	json.Name("TotalBlocks").Int(m.blockCount)
	json.Name("FreeBlocks").Int(m.freeCount)
	json.Name("UsedRanges").Int(usedRanges)
	json.Name("FreeRanges").Int(freeRanges)
}

// CheckRange returns an error wrapping memutils.ErrInvalidArgument unless [index, index+count) is a
// non-empty run that lies entirely inside the table
func (m *BlockMetadataBase) CheckRange(index, count int) error {
	if count < 1 {
		return errors.Wrapf(memutils.ErrInvalidArgument, "block count must be positive, got %d", count)
	}
	if index < 0 || index >= m.blockCount {
		return errors.Wrapf(memutils.ErrInvalidArgument, "block index %d is outside of a pool of %d blocks", index, m.blockCount)
	}
	if index+count > m.blockCount {
		return errors.Wrapf(memutils.ErrInvalidArgument, "blocks [%d, %d) run past the end of a pool of %d blocks", index, index+count, m.blockCount)
	}

	return nil
}

// IsRangeFree reports whether every block in [index, index+count) is free. The range must already have been
// checked with CheckRange.
func (m *BlockMetadataBase) IsRangeFree(index, count int) bool {
	for i := index; i < index+count; i++ {
		if !m.free[i] {
			return false
		}
	}

	return true
}

// MarkRange sets the free flag of every block in [index, index+count). The range must already have been
// checked with CheckRange.
func (m *BlockMetadataBase) MarkRange(index, count int, free bool) {
	for i := index; i < index+count; i++ {
		if m.free[i] == free {
			continue
		}

		m.free[i] = free
		if free {
			m.freeCount++
		} else {
			m.freeCount--
		}
	}
}
