package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rdinner/engine/progress"
)

var (
	cacheStatus     bool
	cacheStats      bool
	cacheClearEvent int
	cacheWarmEvent  int
	cacheClearAll   bool
	cacheTest       bool
)

var cacheMonitorCmd = &cobra.Command{
	Use:   "cache_monitor",
	Short: "Inspect and manage the route/geocode/progress cache",
	RunE:  runCacheMonitor,
}

func init() {
	cacheMonitorCmd.Flags().BoolVar(&cacheStatus, "status", false, "report whether the store opens cleanly and its key counts by prefix")
	cacheMonitorCmd.Flags().BoolVar(&cacheStats, "stats", false, "print per-prefix key counts (dist, geom, geocode, run, assign, eventstatus)")
	cacheMonitorCmd.Flags().IntVar(&cacheClearEvent, "clear-event", 0, "delete the run record and all progress/log/assignment entries for the given event id")
	cacheMonitorCmd.Flags().IntVar(&cacheWarmEvent, "warm-event", 0, "read back and print an event's stored progress snapshot")
	cacheMonitorCmd.Flags().BoolVar(&cacheClearAll, "clear-all", false, "delete every key in the store (irreversible)")
	cacheMonitorCmd.Flags().BoolVar(&cacheTest, "test-cache", false, "write and read back a throwaway key to confirm the store is writable")
}

func runCacheMonitor(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	if cacheStatus {
		fmt.Println("store path:", cfg.Store.Path)
		fmt.Println("store opened: ok")
	}

	if cacheStats {
		prefixes := []string{"dist|", "geom|", "geocode|", "run|", "assign|", "eventstatus|", "optimization_progress_", "optimization_log_"}
		for _, p := range prefixes {
			count := 0
			if err := db.IteratePrefix([]byte(p), func(key, value []byte) error {
				count++
				return nil
			}); err != nil {
				return fmt.Errorf("counting prefix %q: %w", p, err)
			}
			fmt.Printf("%-24s %d\n", p, count)
		}
	}

	if cacheClearEvent != 0 {
		if err := db.DeletePrefix([]byte(fmt.Sprintf("assign|%d|", cacheClearEvent))); err != nil {
			return fmt.Errorf("clearing event %d: %w", cacheClearEvent, err)
		}
		if err := db.Delete([]byte(fmt.Sprintf("run|%d", cacheClearEvent))); err != nil {
			return fmt.Errorf("clearing event %d: %w", cacheClearEvent, err)
		}
		if err := db.Delete([]byte(fmt.Sprintf("optimization_progress_%d", cacheClearEvent))); err != nil {
			return err
		}
		if err := db.Delete([]byte(fmt.Sprintf("optimization_log_%d", cacheClearEvent))); err != nil {
			return err
		}
		fmt.Println("cleared event", cacheClearEvent)
	}

	if cacheWarmEvent != 0 {
		store := progress.New(db, cfg.Cache.ProgressTTL)
		snap, ok, err := store.Progress(cacheWarmEvent)
		if err != nil {
			return fmt.Errorf("warming event %d: %w", cacheWarmEvent, err)
		}
		if !ok {
			fmt.Println("no progress entry for event", cacheWarmEvent)
		} else {
			fmt.Printf("event %d: step %d/%d, %s\n", cacheWarmEvent, snap.Step, snap.TotalSteps, snap.Status)
		}
	}

	if cacheClearAll {
		if err := db.DeletePrefix([]byte("")); err != nil {
			return fmt.Errorf("clearing all: %w", err)
		}
		fmt.Println("cleared all keys")
	}

	if cacheTest {
		key := []byte("cache_monitor|test")
		if err := db.Put(key, []byte("ok")); err != nil {
			return fmt.Errorf("writing test key: %w", err)
		}
		value, ok, err := db.Get(key)
		if err != nil {
			return fmt.Errorf("reading back test key: %w", err)
		}
		if !ok {
			return fmt.Errorf("test key vanished immediately after write")
		}
		fmt.Println("test-cache roundtrip:", string(value))
		_ = db.Delete(key)
	}

	return nil
}
