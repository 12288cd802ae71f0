package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/fixedpool/alloc"
	"github.com/vkngwrapper/fixedpool/container/forwardlist"
	"github.com/vkngwrapper/fixedpool/container/orderedmap"
	"github.com/vkngwrapper/fixedpool/memutils"
	"github.com/vkngwrapper/fixedpool/pool"
	"golang.org/x/exp/slog"
)

// 21! overflows int64
const maxCount = 20

type entry = orderedmap.Entry[int64, int64]

func factorial(n int64) int64 {
	result := int64(1)
	for i := int64(2); i <= n; i++ {
		result *= i
	}
	return result
}

func runDemo(out io.Writer, logger *slog.Logger, opts options) (err error) {
	if opts.count < 1 || opts.count > maxCount {
		return errors.Wrapf(memutils.ErrInvalidArgument, "count must be between 1 and %d, got %d", maxCount, opts.count)
	}

	registry := pool.NewRegistry(logger, opts.registryCreateInfo())
	defer func() {
		err = errors.CombineErrors(err, registry.Destroy())
	}()

	printReference(out, opts.count)

	entryAlloc, err := alloc.New[entry](registry, opts.count)
	if err != nil {
		return err
	}

	m, err := orderedmap.New(entryAlloc)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, m.Clear())
	}()

	for i := 0; i < opts.count; i++ {
		_, err = m.Set(int64(i), factorial(int64(i)))
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "map with pool allocator:")
	m.Ascend(func(key, value int64) bool {
		fmt.Fprintf(out, "%d %d\n", key, value)
		return true
	})

	valueAlloc, err := alloc.Rebind[int64](entryAlloc)
	if err != nil {
		return err
	}

	list, err := forwardlist.New(valueAlloc)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, list.Clear())
	}()

	for i := 0; i < opts.count; i++ {
		err = list.PushBack(factorial(int64(i)))
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "list with pool allocator:")
	list.Each(func(value int64) bool {
		fmt.Fprintln(out, value)
		return true
	})

	if opts.verbose {
		printStatistics(out, registry)
	}

	if opts.jsonOut {
		writer := jwriter.NewWriter()
		registry.PrintDetailedMap(&writer)
		if writer.Error() != nil {
			return errors.Wrap(writer.Error(), "failed to write pool map")
		}
		fmt.Fprintln(out, string(writer.Bytes()))
	}

	return nil
}

func printReference(out io.Writer, count int) {
	reference := btree.NewG(2, func(a, b entry) bool {
		return a.Key < b.Key
	})
	for i := 0; i < count; i++ {
		reference.ReplaceOrInsert(entry{Key: int64(i), Value: factorial(int64(i))})
	}

	fmt.Fprintln(out, "reference map:")
	reference.Ascend(func(item entry) bool {
		fmt.Fprintf(out, "%d %d\n", item.Key, item.Value)
		return true
	})
}

func printStatistics(out io.Writer, registry *pool.Registry) {
	var stats memutils.DetailedStatistics
	registry.CalculateStatistics(&stats)

	fmt.Fprintln(out, "statistics:")
	fmt.Fprintf(out, "  pools: %d\n", stats.PoolCount)
	fmt.Fprintf(out, "  blocks: %d used of %d\n", stats.UsedBlockCount, stats.BlockCount)
	fmt.Fprintf(out, "  bytes: %d used of %d\n", stats.UsedBytes, stats.BlockBytes)
	fmt.Fprintf(out, "  used ranges: %d, free ranges: %d\n", stats.UsedRangeCount, stats.FreeRangeCount)
	for _, p := range registry.Pools() {
		fmt.Fprintf(out, "  %s: %d of %d blocks free (%s)\n", p.Name(), p.FreeBlockCount(), p.BlockCount(), p.Flags())
	}
}
