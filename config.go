package engine

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SolverConfig groups the tunables shared by the MILP model and the
// heuristic solver.
type SolverConfig struct {
	TargetGroupSize   int           `yaml:"target_group_size"`   // target guests per host table (default 3)
	MILPMaxTeams      int           `yaml:"milp_max_teams"`      // n <= this uses the exact solver (default 6)
	MILPTimeLimit     time.Duration `yaml:"milp_time_limit"`     // hard cap before falling back to the heuristic (default 30s)
	PenaltyUnderOver  float64       `yaml:"penalty_under_over"`  // under/overbooked-table penalty in the MILP objective (default 100)
	PenaltyRepeatMeet float64       `yaml:"penalty_repeat_meet"` // repeat-meeting penalty in the MILP objective (default 50)
	DiversityWeight   float64       `yaml:"diversity_weight"`    // multiplier on meetings() in guest-assignment score (default 1000)
}

// HeuristicConfig groups the local-improvement pass's tunables.
type HeuristicConfig struct {
	MaxIterations     int     `yaml:"max_iterations"`      // default 3; not read: solve.Heuristic always runs 3 improvement passes
	MinImprovementKM  float64 `yaml:"min_improvement_km"`  // minimum distance gain to accept a move (default 0.1); not read: solve.Heuristic always uses 0.1
	KitchenReroutekM  float64 `yaml:"kitchen_reroute_km"`  // opportunistic guest-kitchen reroute threshold (default 3.0); not read: kitchen uses its own 3.0 constant
	FallbackKM        float64 `yaml:"fallback_km"`         // missing-coordinate distance fallback (default 3.0)
	UpstreamFailureKM float64 `yaml:"upstream_failure_km"` // per-pair upstream-failure distance fallback (default 2.5)
}

// CacheConfig groups the route oracle's cache and rate-limit tunables.
type CacheConfig struct {
	TTL               time.Duration `yaml:"ttl"`                  // cache TTL for distance/geometry/geocode (default 24h)
	MinRequestGap     time.Duration `yaml:"min_request_gap"`      // rate limit between upstream calls (default 1s)
	InMemoryCacheSize int           `yaml:"in_memory_cache_size"` // LRU entries in front of the store (default 4096)
	MatrixFanout      int           `yaml:"matrix_fanout"`        // bounded parallelism for matrix builds (default 4)
	ProgressTTL       time.Duration `yaml:"progress_ttl"`         // progress/log entry expiry (default 300s)
}

// StoreConfig points at the shared embedded key-value store.
type StoreConfig struct {
	Path string `yaml:"path"` // LevelDB directory
}

// Config groups all engine tunables as one small struct per concern
// rather than one flat bag of fields.
type Config struct {
	Solver    SolverConfig    `yaml:"solver"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	Cache     CacheConfig     `yaml:"cache"`
	Store     StoreConfig     `yaml:"store"`
}

// DefaultConfig returns the engine's built-in tunable defaults.
func DefaultConfig() Config {
	return Config{
		Solver: SolverConfig{
			TargetGroupSize:   3,
			MILPMaxTeams:      6,
			MILPTimeLimit:     30 * time.Second,
			PenaltyUnderOver:  100,
			PenaltyRepeatMeet: 50,
			DiversityWeight:   1000,
		},
		Heuristic: HeuristicConfig{
			MaxIterations:     3,
			MinImprovementKM:  0.1,
			KitchenReroutekM:  3.0,
			FallbackKM:        3.0,
			UpstreamFailureKM: 2.5,
		},
		Cache: CacheConfig{
			TTL:               24 * time.Hour,
			MinRequestGap:     1 * time.Second,
			InMemoryCacheSize: 4096,
			MatrixFanout:      4,
			ProgressTTL:       300 * time.Second,
		},
		Store: StoreConfig{
			Path: "./data/rdinner.db",
		},
	}
}

// LoadConfig reads a YAML config file (if path is set and the file
// exists) layered over DefaultConfig, then applies the RDINNER_STORE_PATH
// environment override, the only RDINNER_* variable it reads. A .env file
// is loaded into the environment first if present (godotenv.Load is a
// no-op, not an error, when the file is absent — mirroring how optional
// local env files are treated elsewhere in the corpus).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	if v := os.Getenv("RDINNER_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	return cfg, nil
}
