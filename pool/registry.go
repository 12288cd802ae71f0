package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/memutils"
	"golang.org/x/exp/slog"
)

// RegistryCreateInfo contains optional settings applied to every pool a Registry creates
type RegistryCreateInfo struct {
	// Flags is passed to every pool created by the registry
	Flags PoolCreateFlags
	// Backing overrides the memory source selected by Flags
	Backing Backing
}

type poolKey struct {
	blockSize  int
	blockCount int
}

// Registry hands out one shared BlockPool per (block size, block count) pair, creating each pool the first
// time it is asked for. Allocators that look up the same dimensions share the same pool.
//
// Registry is not safe for concurrent use.
type Registry struct {
	logger     *slog.Logger
	createInfo RegistryCreateInfo
	pools      *swiss.Map[poolKey, *BlockPool]
}

// NewRegistry creates an empty Registry. A nil logger logs to slog.Default().
func NewRegistry(logger *slog.Logger, createInfo RegistryCreateInfo) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:     logger,
		createInfo: createInfo,
		pools:      swiss.NewMap[poolKey, *BlockPool](8),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns a process-wide Registry backed by the Go heap, creating it on the first call
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil, RegistryCreateInfo{})
	})
	return defaultRegistry
}

// Pool returns the shared pool of blockCount blocks of blockSize bytes, creating it if it does not exist yet
func (r *Registry) Pool(blockSize, blockCount int) (*BlockPool, error) {
	key := poolKey{blockSize: blockSize, blockCount: blockCount}
	if pool, ok := r.pools.Get(key); ok {
		if !pool.IsDestroyed() {
			return pool, nil
		}

		// destroyed directly through BlockPool.Destroy
		r.pools.Delete(key)
	}

	pool, err := New(r.logger, PoolCreateInfo{
		BlockSize:  blockSize,
		BlockCount: blockCount,
		Flags:      r.createInfo.Flags,
		Name:       fmt.Sprintf("%dx%d", blockSize, blockCount),
		Backing:    r.createInfo.Backing,
	})
	if err != nil {
		return nil, err
	}

	r.pools.Put(key, pool)
	return pool, nil
}

// Len returns the number of live pools in the registry
func (r *Registry) Len() int {
	return len(r.Pools())
}

// Pools returns every live pool, ordered by block size and then block count
func (r *Registry) Pools() []*BlockPool {
	keys := make([]poolKey, 0, r.pools.Count())
	r.pools.Iter(func(key poolKey, pool *BlockPool) bool {
		if !pool.IsDestroyed() {
			keys = append(keys, key)
		}
		return false
	})

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].blockSize != keys[j].blockSize {
			return keys[i].blockSize < keys[j].blockSize
		}
		return keys[i].blockCount < keys[j].blockCount
	})

	pools := make([]*BlockPool, 0, len(keys))
	for _, key := range keys {
		pool, _ := r.pools.Get(key)
		pools = append(pools, pool)
	}
	return pools
}

// CalculateStatistics sums the statistics of every live pool into stats
func (r *Registry) CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()
	for _, pool := range r.Pools() {
		pool.AddDetailedStatistics(stats)
	}
}

// PrintDetailedMap writes a json object with one entry per live pool, keyed by the pool's dimensions as
// "<block size>x<block count>". Pool names are written inside each entry since SetName need not keep them unique.
func (r *Registry) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	for _, pool := range r.Pools() {
		poolObj := obj.Name(fmt.Sprintf("%dx%d", pool.BlockSize(), pool.BlockCount())).Object()
		pool.printDetailedMap(poolObj)
		poolObj.End()
	}
}

// Destroy destroys every pool in the registry. Pools that are destroyed successfully are removed; pools
// that still have blocks in use are kept and their errors are combined into the returned error.
func (r *Registry) Destroy() error {
	r.logger.Debug("Registry::Destroy", slog.Int("PoolCount", r.Len()))

	var stale []poolKey
	r.pools.Iter(func(key poolKey, pool *BlockPool) bool {
		if pool.IsDestroyed() {
			stale = append(stale, key)
		}
		return false
	})
	for _, key := range stale {
		r.pools.Delete(key)
	}

	var err error
	for _, pool := range r.Pools() {
		destroyErr := pool.Destroy()
		if destroyErr != nil {
			err = errors.CombineErrors(err, destroyErr)
			continue
		}

		r.pools.Delete(poolKey{blockSize: pool.BlockSize(), blockCount: pool.BlockCount()})
	}

	return err
}
