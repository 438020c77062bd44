package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/cacheinvalidate"
	"github.com/rdinner/engine/geocode"
	"github.com/rdinner/engine/matrix"
	"github.com/rdinner/engine/persist"
	"github.com/rdinner/engine/progress"
	"github.com/rdinner/engine/routeoracle"
	"github.com/rdinner/engine/solve"
)

var (
	runFixturePath string
	runSeed        int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full optimization against a team/kitchen fixture",
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runFixturePath, "fixture", "", "path to a JSON or YAML fixture of teams, kitchens and an optional after-party")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "master RNG seed for this run (0 uses the fixture's event id)")
	_ = runCmd.MarkFlagRequired("fixture")
}

// wireFixture is the on-disk shape of a run command's input: a plain
// JSON or YAML document naming one event's teams, guest kitchens, and
// optional after-party venue.
type wireFixture struct {
	EventID    int                `json:"event_id" yaml:"event_id"`
	Teams      []wireTeam         `json:"teams" yaml:"teams"`
	Kitchens   []wireKitchen      `json:"kitchens" yaml:"kitchens"`
	AfterParty *engine.AfterParty `json:"after_party,omitempty" yaml:"after_party,omitempty"`
}

type wireTeam struct {
	ID            int      `json:"id" yaml:"id"`
	HomeAddress   string   `json:"home_address" yaml:"home_address"`
	Lat           *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
	HasKitchen    bool     `json:"has_kitchen" yaml:"has_kitchen"`
	Participation string   `json:"participation" yaml:"participation"`
}

type wireKitchen struct {
	ID       int     `json:"id" yaml:"id"`
	Lat      float64 `json:"lat" yaml:"lat"`
	Lng      float64 `json:"lng" yaml:"lng"`
	MaxTeams int     `json:"max_teams" yaml:"max_teams"`
}

func loadFixture(path string) (wireFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wireFixture{}, err
	}
	var f wireFixture
	unmarshal := yaml.Unmarshal
	if len(data) > 0 && data[0] == '{' {
		unmarshal = func(in []byte, out interface{}) error { return json.Unmarshal(in, out) }
	}
	if err := unmarshal(data, &f); err != nil {
		return wireFixture{}, err
	}
	return f, nil
}

func participationFromWire(s string) engine.ParticipationType {
	switch s {
	case "kitchen_only":
		return engine.ParticipationKitchenOnly
	case "guest_only":
		return engine.ParticipationGuestOnly
	default:
		return engine.ParticipationFull
	}
}

func (f wireFixture) toRoster() *engine.Roster {
	teams := make([]engine.Team, 0, len(f.Teams))
	for _, t := range f.Teams {
		var coord *engine.Coordinate
		if t.Lat != nil && t.Lng != nil {
			coord = &engine.Coordinate{Lat: *t.Lat, Lng: *t.Lng}
		}
		teams = append(teams, engine.Team{
			ID:            engine.TeamID(t.ID),
			HomeAddress:   t.HomeAddress,
			Coord:         coord,
			HasKitchen:    t.HasKitchen,
			Participation: participationFromWire(t.Participation),
		})
	}
	return engine.NewRoster(f.EventID, teams)
}

func (f wireFixture) toKitchens() []engine.GuestKitchen {
	out := make([]engine.GuestKitchen, 0, len(f.Kitchens))
	for _, k := range f.Kitchens {
		out = append(out, engine.GuestKitchen{
			ID:       engine.KitchenID(k.ID),
			Coord:    engine.Coordinate{Lat: k.Lat, Lng: k.Lng},
			MaxTeams: k.MaxTeams,
		})
	}
	return out
}

func runOptimization(cmd *cobra.Command, args []string) error {
	fixture, err := loadFixture(runFixturePath)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	backend := geocode.NewPseudoGeocoder()
	geocoder := geocode.NewCachedGeocoder(backend, db, cfg.Cache.TTL)

	oracle, err := routeoracle.New(db, routeoracle.Options{
		Primary:        routeoracle.NewDeterministicProvider(routeoracle.SourceOSRM, 1.3),
		TTL:            cfg.Cache.TTL,
		MinRequestGap:  cfg.Cache.MinRequestGap,
		InMemCacheSize: cfg.Cache.InMemoryCacheSize,
	})
	if err != nil {
		return fmt.Errorf("building route oracle: %w", err)
	}

	progressStore := progress.New(db, cfg.Cache.ProgressTTL)

	bus := cacheinvalidate.NewBus(log, 64)
	defer bus.Stop()
	bus.Subscribe(cacheinvalidate.InvalidatorFunc(func(m cacheinvalidate.Mutation) error {
		if m.Kind != cacheinvalidate.KindRunAssignment {
			return nil
		}
		return db.DeletePrefix([]byte(fmt.Sprintf("geom|%d|", m.EventID)))
	}))

	runner := engine.NewRunner(cfg, log)
	runner.Geocoder = geocoder
	runner.Oracle = oracle
	runner.BuildMatrix = func(o engine.DistanceOracle, roster *engine.Roster, kitchens []engine.GuestKitchen, ap *engine.AfterParty, fanout int, missingCoordKM, upstreamFailureKM float64) engine.Matrix {
		return matrix.Build(o, roster, kitchens, ap, matrix.Options{
			Fanout:            fanout,
			MissingCoordKM:    missingCoordKM,
			UpstreamFailureKM: upstreamFailureKM,
		})
	}
	runner.HeuristicSolve = solve.Heuristic
	runner.MILPSolve = solve.MILP
	runner.AllocateKitch = solve.KitchenAllocate
	runner.ExtendParty = solve.AfterPartyExtend
	runner.Validate = solve.Validate
	runner.Persist = func(eventID int, run engine.OptimizationRun, assignments []engine.Assignment) error {
		return persist.Commit(db, eventID, run, assignments, bus)
	}

	roster := fixture.toRoster()
	kitchens := fixture.toKitchens()
	progressCh := engine.NewChannel()

	runner.OnProgress = func(engine.ProgressState) {
		if pubErr := progressStore.Publish(fixture.EventID, progressCh); pubErr != nil {
			log.WithError(pubErr).Warn("failed to publish progress snapshot")
		}
	}

	seed := runSeed
	if seed == 0 {
		seed = int64(fixture.EventID)
	}
	run, assignments, stats, err := runner.Run(context.Background(), fixture.EventID, roster, kitchens, fixture.AfterParty, seed, progressCh)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	out := struct {
		Run         engine.OptimizationRun  `json:"run"`
		Assignments []engine.Assignment     `json:"assignments"`
		AfterParty  *engine.AfterPartyStats `json:"afterparty_stats,omitempty"`
	}{Run: run, Assignments: assignments, AfterParty: stats}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
