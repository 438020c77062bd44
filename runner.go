package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Geocoder resolves a team's home address to coordinates. Matches
// geocode.Geocoder's shape without importing it, so this package stays
// below engine/geocode in the dependency graph.
type Geocoder interface {
	Geocode(address string) *Coordinate
}

// DistanceOracle resolves the travel distance between two coordinates.
// Matches routeoracle.Oracle's Distance method.
type DistanceOracle interface {
	Distance(src, dst Coordinate) (float64, error)
}

// MatrixBuilder builds the full team/kitchen/after-party distance table.
// Matches matrix.Build's signature, parameterized so Runner need not
// import engine/matrix directly and risk a cycle (matrix already
// imports engine).
type MatrixBuilder func(oracle DistanceOracle, roster *Roster, kitchens []GuestKitchen, afterParty *AfterParty, fanout int, missingCoordKM, upstreamFailureKM float64) Matrix

// Matrix is the subset of matrix.Matrix every solver phase needs.
type Matrix interface {
	TeamDistance(a, b TeamID) (float64, bool)
	TeamKitchenDistance(t TeamID, k KitchenID) (float64, bool)
	TeamAfterPartyDistance(t TeamID) (float64, bool)
	KitchenAfterPartyDistance(k KitchenID) (float64, bool)
}

// SolverResult is what a Solver returns. Runner's two solver paths,
// HeuristicSolve and MILPSolve, which it dispatches between by roster
// size, are Solver function values rather than direct package imports:
// engine is the
// foundation package every solver package imports, so Runner cannot
// import heuristic/milp back without a cycle. A cmd-level wiring
// point supplies the concrete functions at startup.
type SolverResult struct {
	Algorithm         RunAlgorithm
	ObjectiveValue    float64
	HostOf            map[Course]map[TeamID]TeamID // course -> guest -> host
	Distances         map[TeamID]map[Course]float64
	Totals            map[TeamID]float64
	HostCourseOf      map[TeamID]Course // host-capable team -> course it hosts
}

type Solver func(ctx context.Context, roster *Roster, dist Matrix, cfg SolverConfig, masterSeed int64) (SolverResult, error)

// KitchenAllocator runs the mandatory and opportunistic guest-kitchen
// passes over a solved route. Matches engine/kitchen's two-pass API,
// folded into one call since Runner only needs the combined outcome.
type KitchenAllocator func(hostCourseOf map[TeamID]Course, roster *Roster, kitchens []GuestKitchen, dist Matrix, result *SolverResult) (kitchenUsage map[Course]map[TeamID]KitchenID, err error)

// AfterPartyExtender computes the terminal leg to the after-party venue
// and folds it into result's totals. Matches engine/afterparty.Extend.
type AfterPartyExtender func(hostCourseOf map[TeamID]Course, roster *Roster, dist Matrix, kitchenUsage map[Course]map[TeamID]KitchenID, result *SolverResult) (legs map[TeamID]AfterPartyLeg, stats AfterPartyStats, err error)

// Validator checks a solved route's invariants before a run is
// accepted. Matches engine/heuristic.Validate.
type Validator func(hostCourseOf map[TeamID]Course, roster *Roster, result *SolverResult) error

// Persister commits a completed run's assignments atomically. Matches
// engine/persist.Commit.
type Persister func(eventID int, run OptimizationRun, assignments []Assignment) error

// Runner orchestrates one event's optimization end to end: geocoding,
// matrix build, solver dispatch, kitchen allocation, after-party
// extension, validation, and persistence, publishing progress
// throughout and serializing concurrent runs for the same event behind
// an advisory lock.
type Runner struct {
	Config Config

	Geocoder       Geocoder
	Oracle         DistanceOracle
	BuildMatrix    MatrixBuilder
	HeuristicSolve Solver
	MILPSolve      Solver
	AllocateKitch  KitchenAllocator
	ExtendParty    AfterPartyExtender
	Validate       Validator
	Persist        Persister

	// OnProgress, if set, is invoked after every phase transition's
	// snapshot is recorded on the in-memory Channel, letting a caller
	// mirror each step into a durable store as the run progresses
	// rather than only once at the end.
	OnProgress func(ProgressState)

	log *logrus.Logger

	locksMu sync.Mutex
	locks   map[int]*sync.Mutex
}

// NewRunner returns a Runner with no collaborators set. Run skips the
// geocoding, kitchen, after-party, validation and persistence phases
// whose field is nil and the exact solver when MILPSolve is nil; a nil
// BuildMatrix, or a nil HeuristicSolve when the heuristic path is
// reached, makes Run fail with an error rather than panic, so a
// partially wired Runner in a test is diagnosable.
func NewRunner(cfg Config, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		Config: cfg,
		log:    log,
		locks:  make(map[int]*sync.Mutex),
	}
}

func (r *Runner) lockFor(eventID int) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	m, ok := r.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[eventID] = m
	}
	return m
}

// Run executes one complete optimization attempt for eventID. It holds
// an advisory per-event lock for the duration, so two runs for the
// same event never overlap; runs for different events proceed fully in
// parallel.
func (r *Runner) Run(ctx context.Context, eventID int, roster *Roster, kitchens []GuestKitchen, afterParty *AfterParty, masterSeed int64, progress *Channel) (OptimizationRun, []Assignment, *AfterPartyStats, error) {
	lock := r.lockFor(eventID)
	lock.Lock()
	defer lock.Unlock()

	run := OptimizationRun{
		EventID:   eventID,
		RunID:     uuid.New().String(),
		Status:    RunPending,
		StartedAt: time.Now(),
	}
	if progress == nil {
		progress = NewChannel()
	}

	publish := func(step, total int, task string, status RunStatus) {
		progress.Publish(ProgressState{Step: step, TotalSteps: total, CurrentTask: task, Percentage: 100 * float64(step) / float64(total), Status: status})
		progress.Log(task, time.Now())
		r.notifyProgress(progress)
	}

	run.Status = RunRunning
	publish(1, 8, "acquiring run", RunStatusRunning)

	if len(roster.HostCapable()) < 3 {
		return r.fail(run, progress, ErrInsufficientTeams)
	}

	if err := r.checkCancelled(ctx); err != nil {
		return r.fail(run, progress, err)
	}
	publish(2, 8, "geocoding teams", RunStatusRunning)
	if r.Geocoder != nil {
		r.geocodeMissing(roster)
	}

	if err := r.checkCancelled(ctx); err != nil {
		return r.fail(run, progress, err)
	}
	publish(3, 8, "building distance matrix", RunStatusRunning)
	if r.BuildMatrix == nil {
		return r.fail(run, progress, fmt.Errorf("no matrix builder wired"))
	}
	dist := r.BuildMatrix(r.Oracle, roster, kitchens, afterParty, r.Config.Cache.MatrixFanout, r.Config.Heuristic.FallbackKM, r.Config.Heuristic.UpstreamFailureKM)

	if err := r.checkCancelled(ctx); err != nil {
		return r.fail(run, progress, err)
	}
	publish(4, 8, "solving", RunStatusRunning)
	result, err := r.solve(ctx, roster, dist, masterSeed)
	if err != nil {
		return r.fail(run, progress, err)
	}
	run.Algorithm = result.Algorithm
	run.ObjectiveValue = result.ObjectiveValue

	if err := r.checkCancelled(ctx); err != nil {
		return r.fail(run, progress, err)
	}
	publish(5, 8, "allocating guest kitchens", RunStatusRunning)
	var kitchenUsage map[Course]map[TeamID]KitchenID
	if r.AllocateKitch != nil {
		kitchenUsage, err = r.AllocateKitch(result.HostCourseOf, roster, kitchens, dist, &result)
		if err != nil {
			return r.fail(run, progress, err)
		}
	}

	if err := r.checkCancelled(ctx); err != nil {
		return r.fail(run, progress, err)
	}
	publish(6, 8, "extending after-party", RunStatusRunning)
	var stats AfterPartyStats
	var legs map[TeamID]AfterPartyLeg
	if afterParty != nil && r.ExtendParty != nil {
		legs, stats, err = r.ExtendParty(result.HostCourseOf, roster, dist, kitchenUsage, &result)
		if err != nil {
			return r.fail(run, progress, err)
		}
	}

	publish(7, 8, "validating route", RunStatusRunning)
	if r.Validate != nil {
		if err := r.Validate(result.HostCourseOf, roster, &result); err != nil {
			return r.fail(run, progress, err)
		}
	}

	assignments := buildAssignments(roster, result, kitchenUsage, legs)
	run.TotalDistanceKM = sumTotals(result.Totals)
	run.FinishedAt = time.Now()
	run.ExecutionTimeMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	for _, entry := range progress.Logs(0) {
		run.LogData = append(run.LogData, entry.Message)
	}

	publish(8, 8, "persisting", RunStatusRunning)
	if r.Persist != nil {
		if err := r.Persist(eventID, run, assignments); err != nil {
			run.Status = RunFailed
			run.ErrorMessage = err.Error()
			publish(8, 8, "persistence failed", RunStatusError)
			return run, nil, nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		}
	}

	run.Status = RunCompleted
	publish(8, 8, "completed", RunStatusCompleted)
	return run, assignments, &stats, nil
}

func (r *Runner) checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

func (r *Runner) fail(run OptimizationRun, progress *Channel, cause error) (OptimizationRun, []Assignment, *AfterPartyStats, error) {
	if cause == ErrCancelled {
		run.Status = RunCancelled
	} else {
		run.Status = RunFailed
	}
	run.ErrorMessage = cause.Error()
	run.FinishedAt = time.Now()
	last := progress.Snapshot()
	progress.Publish(ProgressState{Step: last.Step, TotalSteps: last.TotalSteps, Percentage: last.Percentage, Status: RunStatusError, CurrentTask: cause.Error()})
	progress.Log(cause.Error(), time.Now())
	for _, entry := range progress.Logs(0) {
		run.LogData = append(run.LogData, entry.Message)
	}
	r.notifyProgress(progress)
	r.log.WithError(cause).WithField("event_id", run.EventID).Error("run failed")
	return run, nil, nil, cause
}

// notifyProgress invokes OnProgress, if set, with the channel's latest
// snapshot. Called after every Publish/Log pair so a durable mirror
// (e.g. progress.Store) observes every phase transition, not just the
// run's final state.
func (r *Runner) notifyProgress(progress *Channel) {
	if r.OnProgress != nil {
		r.OnProgress(progress.Snapshot())
	}
}

func (r *Runner) geocodeMissing(roster *Roster) {
	for _, id := range roster.Order() {
		team := roster.Get(id)
		if team.Coord != nil || team.HomeAddress == "" {
			continue
		}
		team.Coord = r.Geocoder.Geocode(team.HomeAddress)
	}
}

func (r *Runner) solve(ctx context.Context, roster *Roster, dist Matrix, masterSeed int64) (SolverResult, error) {
	hosts := roster.HostCapable()
	if len(hosts) <= r.Config.Solver.MILPMaxTeams && r.MILPSolve != nil {
		result, err := r.MILPSolve(ctx, roster, dist, r.Config.Solver, masterSeed)
		if err == nil {
			return result, nil
		}
		r.log.WithError(err).Warn("MILP solve did not complete, falling back to heuristic")
	}
	if r.HeuristicSolve == nil {
		return SolverResult{}, fmt.Errorf("no heuristic solver wired")
	}
	return r.HeuristicSolve(ctx, roster, dist, r.Config.Solver, masterSeed)
}

func sumTotals(totals map[TeamID]float64) float64 {
	sum := 0.0
	for _, v := range totals {
		sum += v
	}
	return sum
}

func buildAssignments(roster *Roster, result SolverResult, kitchenUsage map[Course]map[TeamID]KitchenID, legs map[TeamID]AfterPartyLeg) []Assignment {
	out := make([]Assignment, 0, roster.Len())
	for _, id := range roster.Order() {
		hosted, hosting := result.HostCourseOf[id]
		a := Assignment{
			TeamID:          id,
			Distances:       result.Distances[id],
			TotalDistanceKM: result.Totals[id],
		}
		if hosting {
			a.CourseHosted = hosted
		}
		hosts := make(map[Course]*TeamID, 3)
		for _, c := range Courses {
			if hosting && c == hosted {
				continue
			}
			if host, ok := result.HostOf[c][id]; ok {
				h := host
				hosts[c] = &h
			}
		}
		a.Hosts = hosts

		if kitchenUsage != nil {
			usage := make(map[Course]KitchenID, 1)
			for _, c := range Courses {
				if k, ok := kitchenUsage[c][id]; ok {
					usage[c] = k
				}
			}
			if len(usage) > 0 {
				a.GuestKitchenUsage = usage
			}
		}
		if legs != nil {
			if leg, ok := legs[id]; ok {
				a.AfterPartyLeg = &leg
			}
		}
		out = append(out, a)
	}
	return out
}
