package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/fixedpool/pool"
	"golang.org/x/exp/slog"
)

type options struct {
	count   int
	linear  bool
	mapped  bool
	jsonOut bool
	verbose bool
}

func (o options) registryCreateInfo() pool.RegistryCreateInfo {
	var flags pool.PoolCreateFlags
	if o.linear {
		flags |= pool.PoolCreateLinearAlgorithm
	}
	if o.mapped {
		flags |= pool.PoolCreateMappedMemory
	}
	return pool.RegistryCreateInfo{Flags: flags}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "pooldemo",
		Short: "Fill pool-backed containers and compare them against a heap-backed reference",
		Long: `pooldemo fills an ordered map with the factorials of 0 through count-1, once in a
heap-backed reference map and once in a map whose nodes live in a fixed-capacity block pool
sized to hold exactly count entries, and prints both. It then fills a pool-backed list the same
way and, with --json, dumps the block occupancy of every pool that was created.

Example:
  pooldemo
  pooldemo --count 5 --linear
  pooldemo --mapped --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(cmd.ErrOrStderr()))

			return runDemo(cmd.OutOrStdout(), logger, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "Number of entries, which is also the capacity of every pool")
	cmd.Flags().BoolVar(&opts.linear, "linear", false, "Use the linear allocation algorithm instead of first-fit")
	cmd.Flags().BoolVar(&opts.mapped, "mapped", false, "Back pools with anonymous memory mappings instead of the Go heap")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the detailed pool map as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pool activity and print statistics")

	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
