package pool

import (
	"sort"
	"strings"
)

// PoolCreateFlags selects the algorithm and the backing memory of a BlockPool
type PoolCreateFlags int32

var poolCreateFlagsMapping = map[PoolCreateFlags]string{}

func (f PoolCreateFlags) Register(str string) {
	poolCreateFlagsMapping[f] = str
}

func (f PoolCreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for flag, name := range poolCreateFlagsMapping {
		if f&flag == flag {
			names = append(names, name)
			f &^= flag
		}
	}
	sort.Strings(names)
	if f != 0 {
		names = append(names, "Unknown")
	}

	return strings.Join(names, "|")
}

const (
	// PoolCreateLinearAlgorithm enables the bump-pointer algorithm in this pool. Runs are always granted
	// after the last one and space released in between is not reused until everything above it has been
	// released as well. It trades memory for a constant-time grant.
	PoolCreateLinearAlgorithm PoolCreateFlags = 1 << iota
	// PoolCreateMappedMemory backs the pool with an anonymous private memory mapping instead of a Go heap
	// allocation. The mapping is returned to the operating system when the pool is destroyed. It is only
	// supported on linux, darwin and freebsd.
	PoolCreateMappedMemory

	PoolCreateAlgorithmMask = PoolCreateLinearAlgorithm
)

func init() {
	PoolCreateLinearAlgorithm.Register("PoolCreateLinearAlgorithm")
	PoolCreateMappedMemory.Register("PoolCreateMappedMemory")
}
