package metadata

// AllocationRequestType is an enum that indicates the type of allocation that is being made.
// It is returned in AllocationRequest from CreateAllocationRequest
type AllocationRequestType uint32

const (
	// AllocationRequestFirstFit indicates that the allocation request was sourced from metadata.FirstFitBlockMetadata
	AllocationRequestFirstFit AllocationRequestType = iota
	// AllocationRequestLinear indicates that the allocation request was sourced from metadata.LinearBlockMetadata
	// and that it will be placed at the current cursor
	AllocationRequestLinear
)

var allocationRequestMapping = map[AllocationRequestType]string{
	AllocationRequestFirstFit: "FirstFit",
	AllocationRequestLinear:   "Linear",
}

func (t AllocationRequestType) String() string {
	return allocationRequestMapping[t]
}

// AllocationRequest is a type returned from BlockMetadata.CreateAllocationRequest which indicates where
// the metadata intends to place a run of blocks. Nothing is marked as used until the request is
// committed with BlockMetadata.Alloc
type AllocationRequest struct {
	// StartBlock is the index of the first block of the run
	StartBlock int
	// BlockCount is the number of contiguous blocks in the run
	BlockCount int
	// Type identifies the BlockMetadata implementation used to generate this request
	Type AllocationRequestType
}
