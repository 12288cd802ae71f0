package memutils

import "math"

// Statistics holds block usage totals for one or more pools. Sizes ending in Bytes are in bytes,
// everything else counts blocks or pools.
type Statistics struct {
	PoolCount      int
	BlockCount     int
	UsedBlockCount int
	BlockBytes     int
	UsedBytes      int
}

func (s *Statistics) Clear() {
	s.PoolCount = 0
	s.BlockCount = 0
	s.UsedBlockCount = 0
	s.BlockBytes = 0
	s.UsedBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.PoolCount += other.PoolCount
	s.BlockCount += other.BlockCount
	s.UsedBlockCount += other.UsedBlockCount
	s.BlockBytes += other.BlockBytes
	s.UsedBytes += other.UsedBytes
}

// FreeBlockCount returns the number of blocks not currently granted
func (s *Statistics) FreeBlockCount() int {
	return s.BlockCount - s.UsedBlockCount
}

// DetailedStatistics extends Statistics with information about the runs of used and free blocks.
// Range sizes are measured in blocks.
type DetailedStatistics struct {
	Statistics
	UsedRangeCount   int
	UsedRangeSizeMin int
	UsedRangeSizeMax int
	FreeRangeCount   int
	FreeRangeSizeMin int
	FreeRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UsedRangeCount = 0
	s.UsedRangeSizeMin = math.MaxInt
	s.UsedRangeSizeMax = 0
	s.FreeRangeCount = 0
	s.FreeRangeSizeMin = math.MaxInt
	s.FreeRangeSizeMax = 0
}

func (s *DetailedStatistics) AddFreeRange(blocks int) {
	s.FreeRangeCount++

	if blocks < s.FreeRangeSizeMin {
		s.FreeRangeSizeMin = blocks
	}

	if blocks > s.FreeRangeSizeMax {
		s.FreeRangeSizeMax = blocks
	}
}

func (s *DetailedStatistics) AddUsedRange(blocks, blockSize int) {
	s.UsedRangeCount++
	s.UsedBlockCount += blocks
	s.UsedBytes += blocks * blockSize

	if blocks < s.UsedRangeSizeMin {
		s.UsedRangeSizeMin = blocks
	}

	if blocks > s.UsedRangeSizeMax {
		s.UsedRangeSizeMax = blocks
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UsedRangeCount += other.UsedRangeCount
	s.FreeRangeCount += other.FreeRangeCount

	if other.UsedRangeSizeMin < s.UsedRangeSizeMin {
		s.UsedRangeSizeMin = other.UsedRangeSizeMin
	}

	if other.UsedRangeSizeMax > s.UsedRangeSizeMax {
		s.UsedRangeSizeMax = other.UsedRangeSizeMax
	}

	if other.FreeRangeSizeMin < s.FreeRangeSizeMin {
		s.FreeRangeSizeMin = other.FreeRangeSizeMin
	}

	if other.FreeRangeSizeMax > s.FreeRangeSizeMax {
		s.FreeRangeSizeMax = other.FreeRangeSizeMax
	}
}
