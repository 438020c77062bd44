package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	checkIndexBenchmark bool
	checkIndexVerbose   bool
)

var checkIndexPerformanceCmd = &cobra.Command{
	Use:   "check_index_performance",
	Short: "Report on the store's key-prefix scan health",
	Long: `Reports on storage index health: this is external to the engine's
optimization path, a read-only diagnostic over the same LevelDB handle
every other subcommand shares.`,
	RunE: runCheckIndexPerformance,
}

func init() {
	checkIndexPerformanceCmd.Flags().BoolVar(&checkIndexBenchmark, "benchmark", false, "time a full scan of each key prefix")
	checkIndexPerformanceCmd.Flags().BoolVar(&checkIndexVerbose, "verbose", false, "print per-prefix key counts alongside timings")
}

func runCheckIndexPerformance(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	prefixes := []string{"dist|", "geom|", "geocode|", "run|", "assign|", "eventstatus|"}
	for _, p := range prefixes {
		count := 0
		start := time.Now()
		if err := db.IteratePrefix([]byte(p), func(key, value []byte) error {
			count++
			return nil
		}); err != nil {
			return fmt.Errorf("scanning prefix %q: %w", p, err)
		}
		elapsed := time.Since(start)

		if checkIndexBenchmark {
			fmt.Printf("%-14s %6d keys  %v\n", p, count, elapsed)
		} else if checkIndexVerbose {
			fmt.Printf("%-14s %6d keys\n", p, count)
		}
	}
	return nil
}
