package metadata

// RegionType identifies whether a run of blocks visited by BlockMetadata.VisitAllRegions is
// currently granted or available
type RegionType uint32

const (
	RegionFree RegionType = iota
	RegionUsed
)

var regionTypeMapping = map[RegionType]string{
	RegionFree: "FREE",
	RegionUsed: "USED",
}

func (t RegionType) String() string {
	return regionTypeMapping[t]
}

// RegionTypeOf maps the free flag reported by VisitAllRegions to a RegionType
func RegionTypeOf(free bool) RegionType {
	if free {
		return RegionFree
	}
	return RegionUsed
}
