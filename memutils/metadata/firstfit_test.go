package metadata_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/memutils/metadata"
)

func allocRun(t *testing.T, md metadata.BlockMetadata, count int) int {
	success, req, err := md.CreateAllocationRequest(count)
	require.NoError(t, err)
	require.True(t, success)

	err = md.Alloc(req)
	require.NoError(t, err)
	return req.StartBlock
}

func occupancy(md metadata.BlockMetadata) []bool {
	free := make([]bool, md.BlockCount())
	for i := range free {
		free[i] = md.IsFree(i)
	}
	return free
}

func TestFirstFitBasicAlloc(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(16)
	firstFit.Init(10)

	var stats memutils.DetailedStatistics
	stats.Clear()
	firstFit.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			PoolCount:      1,
			BlockCount:     10,
			UsedBlockCount: 0,
			BlockBytes:     160,
			UsedBytes:      0,
		},
		UsedRangeCount:   0,
		UsedRangeSizeMin: math.MaxInt,
		UsedRangeSizeMax: 0,
		FreeRangeCount:   1,
		FreeRangeSizeMin: 10,
		FreeRangeSizeMax: 10,
	}, stats)

	require.Equal(t, 0, allocRun(t, firstFit, 3))
	require.Equal(t, 3, allocRun(t, firstFit, 2))

	stats.Clear()
	firstFit.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			PoolCount:      1,
			BlockCount:     10,
			UsedBlockCount: 5,
			BlockBytes:     160,
			UsedBytes:      80,
		},
		UsedRangeCount:   1,
		UsedRangeSizeMin: 5,
		UsedRangeSizeMax: 5,
		FreeRangeCount:   1,
		FreeRangeSizeMin: 5,
		FreeRangeSizeMax: 5,
	}, stats)

	require.NoError(t, firstFit.Free(0, 3))
	require.NoError(t, firstFit.Free(3, 2))
	require.True(t, firstFit.IsEmpty())
	require.NoError(t, firstFit.Validate())
}

func TestFirstFitCapacityBound(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(4)

	success, _, err := firstFit.CreateAllocationRequest(5)
	require.NoError(t, err)
	require.False(t, success)

	allocRun(t, firstFit, 1)

	success, _, err = firstFit.CreateAllocationRequest(5)
	require.NoError(t, err)
	require.False(t, success)
	require.Equal(t, 3, firstFit.FreeBlockCount())
}

func TestFirstFitRejectsNonPositiveCount(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(4)

	_, _, err := firstFit.CreateAllocationRequest(0)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))
}

func TestFirstFitLowestIndex(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(5)

	// occupy {0, 2, 3}, leaving {1, 4}
	allocRun(t, firstFit, 4)
	require.NoError(t, firstFit.Free(1, 1))
	require.Equal(t, []bool{false, true, false, false, true}, occupancy(firstFit))

	require.Equal(t, 1, allocRun(t, firstFit, 1))
	require.Equal(t, 4, allocRun(t, firstFit, 1))

	success, _, err := firstFit.CreateAllocationRequest(1)
	require.NoError(t, err)
	require.False(t, success)
}

func TestFirstFitSkipsShortRuns(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(8)

	allocRun(t, firstFit, 8)
	require.NoError(t, firstFit.Free(1, 2))
	require.NoError(t, firstFit.Free(4, 3))

	require.Equal(t, 4, allocRun(t, firstFit, 3))
	require.Equal(t, 1, allocRun(t, firstFit, 2))
	require.Equal(t, 0, firstFit.FreeBlockCount())
}

func TestFirstFitNoOverlap(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(20)

	owner := make([]int, 20)
	for i := range owner {
		owner[i] = -1
	}

	for id, count := range []int{3, 1, 4, 1, 5, 2, 3} {
		start := allocRun(t, firstFit, count)
		for i := start; i < start+count; i++ {
			require.Equal(t, -1, owner[i], "block %d granted twice", i)
			owner[i] = id
		}
	}

	success, _, err := firstFit.CreateAllocationRequest(2)
	require.NoError(t, err)
	require.False(t, success)
	require.Equal(t, 1, firstFit.FreeBlockCount())
}

func TestFirstFitRoundTrip(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(6)

	allocRun(t, firstFit, 2)
	allocRun(t, firstFit, 1)
	require.NoError(t, firstFit.Free(0, 2))

	for count := 1; count <= 6; count++ {
		before := occupancy(firstFit)

		success, req, err := firstFit.CreateAllocationRequest(count)
		require.NoError(t, err)
		if !success {
			continue
		}
		require.NoError(t, firstFit.Alloc(req))
		require.NoError(t, firstFit.Free(req.StartBlock, req.BlockCount))

		require.Equal(t, before, occupancy(firstFit))
		require.NoError(t, firstFit.Validate())
	}
}

func TestFirstFitFreeRangeValidation(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(4)
	allocRun(t, firstFit, 4)

	before := occupancy(firstFit)

	err := firstFit.Free(3, 2)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))
	err = firstFit.Free(-1, 1)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))
	err = firstFit.Free(4, 1)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))
	err = firstFit.Free(0, 0)
	require.True(t, errors.Is(err, memutils.ErrInvalidArgument))

	require.Equal(t, before, occupancy(firstFit))

	// A run ending exactly at the last block is valid
	require.NoError(t, firstFit.Free(2, 2))
	require.Equal(t, []bool{false, false, true, true}, occupancy(firstFit))
}

func TestFirstFitDoubleFreeIsNotDetected(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(4)
	allocRun(t, firstFit, 2)

	require.NoError(t, firstFit.Free(0, 2))
	require.NoError(t, firstFit.Free(0, 2))
	require.Equal(t, 4, firstFit.FreeBlockCount())
	require.NoError(t, firstFit.Validate())
}

func TestFirstFitAllocRejectsStaleRequest(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(4)

	success, req, err := firstFit.CreateAllocationRequest(2)
	require.NoError(t, err)
	require.True(t, success)
	require.NoError(t, firstFit.Alloc(req))

	err = firstFit.Alloc(req)
	require.Error(t, err)

	err = firstFit.Alloc(metadata.AllocationRequest{StartBlock: 2, BlockCount: 1, Type: metadata.AllocationRequestLinear})
	require.Error(t, err)
	require.Equal(t, 2, firstFit.FreeBlockCount())
}

func TestFirstFitVisitAllRegions(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(7)
	allocRun(t, firstFit, 7)
	require.NoError(t, firstFit.Free(2, 3))

	type region struct {
		Index, Count int
		Type         metadata.RegionType
	}
	var regions []region
	err := firstFit.VisitAllRegions(func(index int, count int, free bool) error {
		regions = append(regions, region{index, count, metadata.RegionTypeOf(free)})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []region{
		{0, 2, metadata.RegionUsed},
		{2, 3, metadata.RegionFree},
		{5, 2, metadata.RegionUsed},
	}, regions)
	require.Equal(t, 1, firstFit.FreeRegionsCount())

	stop := errors.New("stop")
	visited := 0
	err = firstFit.VisitAllRegions(func(index int, count int, free bool) error {
		visited++
		return stop
	})
	require.Equal(t, stop, err)
	require.Equal(t, 1, visited)
}

func TestFirstFitClear(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(8)
	firstFit.Init(3)
	allocRun(t, firstFit, 3)

	firstFit.Clear()
	require.True(t, firstFit.IsEmpty())
	require.Equal(t, 0, allocRun(t, firstFit, 3))
}

func TestFirstFitBlockJsonData(t *testing.T) {
	firstFit := metadata.NewFirstFitBlockMetadata(4)
	firstFit.Init(5)
	allocRun(t, firstFit, 2)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	firstFit.BlockJsonData(obj)
	obj.End()
	require.NoError(t, writer.Error())

	require.JSONEq(t, `{"Algorithm":"FirstFit","BlockSize":4,"TotalBlocks":5,"FreeBlocks":3,"UsedRanges":1,"FreeRanges":1}`,
		string(bytes.TrimSpace(writer.Bytes())))
}
