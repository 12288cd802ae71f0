package metadata

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/memutils"
)

// LinearBlockMetadata is a BlockMetadata implementation that behaves like a bump allocator.
//
// Runs are always granted at a cursor that only moves forward on allocation. Releasing blocks marks them
// free, but holes below the cursor are never reused: the cursor only moves back when the released run
// leaves free blocks directly beneath it, so releasing in reverse allocation order (or releasing
// everything) makes the space available again.
type LinearBlockMetadata struct {
	BlockMetadataBase

	cursor int
}

var _ BlockMetadata = &LinearBlockMetadata{}

// NewLinearBlockMetadata creates a new LinearBlockMetadata for blocks of blockSize bytes
func NewLinearBlockMetadata(blockSize int) *LinearBlockMetadata {
	return &LinearBlockMetadata{
		BlockMetadataBase: NewBlockMetadata(blockSize),
	}
}

// Init sizes the occupancy table and resets the cursor to the first block
func (m *LinearBlockMetadata) Init(blockCount int) {
	m.BlockMetadataBase.Init(blockCount)
	m.cursor = 0
}

// Cursor returns the index at which the next run will be granted
func (m *LinearBlockMetadata) Cursor() int {
	return m.cursor
}

// Validate checks the occupancy table as well as the position of the cursor
func (m *LinearBlockMetadata) Validate() error {
	err := m.BlockMetadataBase.Validate()
	if err != nil {
		return err
	}

	if m.cursor < 0 || m.cursor > m.blockCount {
		return errors.Newf("the cursor is at block %d, outside of a pool of %d blocks", m.cursor, m.blockCount)
	}

	if m.cursor > 0 && m.free[m.cursor-1] {
		return errors.Newf("the block below the cursor at %d is free, so the cursor should have retreated", m.cursor)
	}

	for i := m.cursor; i < m.blockCount; i++ {
		if !m.free[i] {
			return errors.Newf("block %d is in use but lies at or above the cursor at %d", i, m.cursor)
		}
	}

	return nil
}

// CreateAllocationRequest places a run of blockCount blocks at the cursor if it fits before the end of
// the table
func (m *LinearBlockMetadata) CreateAllocationRequest(blockCount int) (bool, AllocationRequest, error) {
	var allocRequest AllocationRequest

	if blockCount < 1 {
		return false, allocRequest, errors.Wrapf(memutils.ErrInvalidArgument, "block count must be positive, got %d", blockCount)
	}

	memutils.DebugValidate(m)

	if blockCount > m.blockCount-m.cursor {
		return false, allocRequest, nil
	}

	allocRequest.StartBlock = m.cursor
	allocRequest.BlockCount = blockCount
	allocRequest.Type = AllocationRequestLinear
	return true, allocRequest, nil
}

// Alloc commits an AllocationRequest created by CreateAllocationRequest and advances the cursor
func (m *LinearBlockMetadata) Alloc(request AllocationRequest) error {
	if request.Type != AllocationRequestLinear {
		return errors.New("allocation request was received by an incompatible metadata")
	}

	if request.StartBlock != m.cursor {
		return errors.Newf("allocation request starts at block %d, but the cursor has moved to %d", request.StartBlock, m.cursor)
	}

	err := m.CheckRange(request.StartBlock, request.BlockCount)
	if err != nil {
		return err
	}

	m.MarkRange(request.StartBlock, request.BlockCount, false)
	m.cursor += request.BlockCount
	return nil
}

// Free marks [index, index+count) free and retreats the cursor past any free blocks directly beneath it
func (m *LinearBlockMetadata) Free(index, count int) error {
	err := m.CheckRange(index, count)
	if err != nil {
		return err
	}

	m.MarkRange(index, count, true)
	for m.cursor > 0 && m.free[m.cursor-1] {
		m.cursor--
	}

	return nil
}

// Clear marks every block free and resets the cursor
func (m *LinearBlockMetadata) Clear() {
	m.BlockMetadataBase.Clear()
	m.cursor = 0
}

// BlockJsonData populates a json object with information about this pool's occupancy
func (m *LinearBlockMetadata) BlockJsonData(json jwriter.ObjectState) {
	json.Name("Algorithm").String(AllocationRequestLinear.String())
	m.WriteBlockJson(json)
	json.Name("Cursor").Int(m.cursor)
}
