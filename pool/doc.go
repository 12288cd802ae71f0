// Package pool implements BlockPool, a fixed-capacity pool of equally sized blocks carved out of a single
// buffer, and Registry, which shares one pool between every user of the same block dimensions.
//
// A pool grants contiguous runs of blocks first-fit (or, with PoolCreateLinearAlgorithm, at a bump
// cursor) and reclaims them by pointer. Only the free/used state of each block is tracked.
//
//go:generate mockgen -destination ./mocks/backing.go -package mock_pool github.com/vkngwrapper/fixedpool/pool Backing
package pool
