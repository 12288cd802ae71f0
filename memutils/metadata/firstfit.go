package metadata

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/memutils"
)

// FirstFitBlockMetadata is a BlockMetadata implementation that grants the lowest-indexed run of free
// blocks long enough to satisfy a request. Released blocks are immediately available for reuse.
//
// Searching is linear in the number of blocks, which is fixed when the pool is created. Because state is
// tracked per block rather than per run, no coalescing is ever necessary.
type FirstFitBlockMetadata struct {
	BlockMetadataBase
}

var _ BlockMetadata = &FirstFitBlockMetadata{}

// NewFirstFitBlockMetadata creates a new FirstFitBlockMetadata for blocks of blockSize bytes
func NewFirstFitBlockMetadata(blockSize int) *FirstFitBlockMetadata {
	return &FirstFitBlockMetadata{
		BlockMetadataBase: NewBlockMetadata(blockSize),
	}
}

// CreateAllocationRequest finds the lowest index that starts a run of at least blockCount free blocks.
// Requests larger than the table fail without scanning.
func (m *FirstFitBlockMetadata) CreateAllocationRequest(blockCount int) (bool, AllocationRequest, error) {
	var allocRequest AllocationRequest

	if blockCount < 1 {
		return false, allocRequest, errors.Wrapf(memutils.ErrInvalidArgument, "block count must be positive, got %d", blockCount)
	}

	memutils.DebugValidate(m)

	if blockCount > m.blockCount || blockCount > m.freeCount {
		return false, allocRequest, nil
	}

	// The first run to reach the requested length is also the lowest-starting one
	run := 0
	for i := 0; i < m.blockCount; i++ {
		if !m.free[i] {
			run = 0
			continue
		}

		run++
		if run == blockCount {
			allocRequest.StartBlock = i - blockCount + 1
			allocRequest.BlockCount = blockCount
			allocRequest.Type = AllocationRequestFirstFit
			return true, allocRequest, nil
		}
	}

	return false, allocRequest, nil
}

// Alloc commits an AllocationRequest created by CreateAllocationRequest
func (m *FirstFitBlockMetadata) Alloc(request AllocationRequest) error {
	if request.Type != AllocationRequestFirstFit {
		return errors.New("allocation request was received by an incompatible metadata")
	}

	err := m.CheckRange(request.StartBlock, request.BlockCount)
	if err != nil {
		return err
	}

	if !m.IsRangeFree(request.StartBlock, request.BlockCount) {
		return errors.Newf("allocation request for blocks [%d, %d) overlaps blocks that are already in use",
			request.StartBlock, request.StartBlock+request.BlockCount)
	}

	m.MarkRange(request.StartBlock, request.BlockCount, false)
	return nil
}

// Free marks [index, index+count) free. Blocks that are already free are left free, so releasing a
// run twice is not detected.
func (m *FirstFitBlockMetadata) Free(index, count int) error {
	err := m.CheckRange(index, count)
	if err != nil {
		return err
	}

	m.MarkRange(index, count, true)
	return nil
}

// BlockJsonData populates a json object with information about this pool's occupancy
func (m *FirstFitBlockMetadata) BlockJsonData(json jwriter.ObjectState) {
	json.Name("Algorithm").String(AllocationRequestFirstFit.String())
	m.WriteBlockJson(json)
}
