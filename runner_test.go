package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func triangleRoster() *Roster {
	return NewRoster(1, []Team{
		{ID: 1, HomeAddress: "a", Coord: &Coordinate{Lat: 0, Lng: 0}, HasKitchen: true, Participation: ParticipationFull},
		{ID: 2, HomeAddress: "b", Coord: &Coordinate{Lat: 0, Lng: 1}, HasKitchen: true, Participation: ParticipationFull},
		{ID: 3, HomeAddress: "c", Coord: &Coordinate{Lat: 1, Lng: 0}, HasKitchen: true, Participation: ParticipationFull},
	})
}

type fakeMatrix struct{}

func (fakeMatrix) TeamDistance(a, b TeamID) (float64, bool)              { return 1.0, true }
func (fakeMatrix) TeamKitchenDistance(t TeamID, k KitchenID) (float64, bool) { return 1.0, true }
func (fakeMatrix) TeamAfterPartyDistance(t TeamID) (float64, bool)           { return 1.0, true }
func (fakeMatrix) KitchenAfterPartyDistance(k KitchenID) (float64, bool)     { return 1.0, true }

func fakeBuildMatrix(oracle DistanceOracle, roster *Roster, kitchens []GuestKitchen, afterParty *AfterParty, fanout int, missingCoordKM, upstreamFailureKM float64) Matrix {
	return fakeMatrix{}
}

func solverResultFor(roster *Roster, algorithm RunAlgorithm) SolverResult {
	hosts := roster.HostCapable()
	hostCourseOf := make(map[TeamID]Course, len(hosts))
	for i, id := range hosts {
		if i < len(Courses) {
			hostCourseOf[id] = Courses[i]
		}
	}
	totals := make(map[TeamID]float64, roster.Len())
	dists := make(map[TeamID]map[Course]float64, roster.Len())
	for _, id := range roster.Order() {
		totals[id] = 3.0
		dists[id] = map[Course]float64{CourseAppetizer: 1, CourseMain: 1, CourseDessert: 1}
	}
	return SolverResult{
		Algorithm:      algorithm,
		ObjectiveValue: 9.0,
		HostOf:         map[Course]map[TeamID]TeamID{},
		Distances:      dists,
		Totals:         totals,
		HostCourseOf:   hostCourseOf,
	}
}

func fixedMILPSolve(ctx context.Context, roster *Roster, dist Matrix, cfg SolverConfig, masterSeed int64) (SolverResult, error) {
	return solverResultFor(roster, AlgorithmMILP), nil
}

func fixedHeuristicSolve(ctx context.Context, roster *Roster, dist Matrix, cfg SolverConfig, masterSeed int64) (SolverResult, error) {
	return solverResultFor(roster, AlgorithmHeuristic), nil
}

func failingMILPSolve(ctx context.Context, roster *Roster, dist Matrix, cfg SolverConfig, masterSeed int64) (SolverResult, error) {
	return SolverResult{}, errors.New("branch and bound exceeded time limit")
}

func noopKitchenAllocate(hostCourseOf map[TeamID]Course, roster *Roster, kitchens []GuestKitchen, dist Matrix, result *SolverResult) (map[Course]map[TeamID]KitchenID, error) {
	return nil, nil
}

func failingKitchenAllocate(hostCourseOf map[TeamID]Course, roster *Roster, kitchens []GuestKitchen, dist Matrix, result *SolverResult) (map[Course]map[TeamID]KitchenID, error) {
	return nil, ErrKitchenUnavailable
}

func noopValidate(hostCourseOf map[TeamID]Course, roster *Roster, result *SolverResult) error {
	return nil
}

type recordingPersister struct {
	called      bool
	eventID     int
	run         OptimizationRun
	assignments []Assignment
}

func (p *recordingPersister) persist(eventID int, run OptimizationRun, assignments []Assignment) error {
	p.called = true
	p.eventID = eventID
	p.run = run
	p.assignments = assignments
	return nil
}

func newTestRunner() *Runner {
	r := NewRunner(DefaultConfig(), logrus.StandardLogger())
	r.BuildMatrix = fakeBuildMatrix
	r.AllocateKitch = noopKitchenAllocate
	r.Validate = noopValidate
	return r
}

func TestRunFailsFastWithTooFewHostCapableTeams(t *testing.T) {
	r := newTestRunner()
	r.HeuristicSolve = fixedHeuristicSolve

	roster := NewRoster(1, []Team{
		{ID: 1, Participation: ParticipationFull, HasKitchen: true},
		{ID: 2, Participation: ParticipationGuestOnly},
	})

	run, assignments, _, err := r.Run(context.Background(), 1, roster, nil, nil, 1, nil)
	if !errors.Is(err, ErrInsufficientTeams) {
		t.Fatalf("expected ErrInsufficientTeams, got %v", err)
	}
	if run.Status != RunFailed {
		t.Fatalf("expected RunFailed, got %v", run.Status)
	}
	if assignments != nil {
		t.Fatalf("expected no assignments on failure, got %v", assignments)
	}
}

func TestRunDispatchesToMILPWithinThreshold(t *testing.T) {
	r := newTestRunner()
	r.MILPSolve = fixedMILPSolve
	r.HeuristicSolve = func(context.Context, *Roster, Matrix, SolverConfig, int64) (SolverResult, error) {
		t.Fatal("heuristic solver must not run when MILP succeeds")
		return SolverResult{}, nil
	}
	persister := &recordingPersister{}
	r.Persist = persister.persist

	run, assignments, stats, err := r.Run(context.Background(), 1, triangleRoster(), nil, nil, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Algorithm != AlgorithmMILP {
		t.Fatalf("expected MILP algorithm, got %v", run.Algorithm)
	}
	if run.Status != RunCompleted {
		t.Fatalf("expected RunCompleted, got %v", run.Status)
	}
	if len(assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(assignments))
	}
	if stats == nil {
		t.Fatal("expected non-nil after-party stats even with no after-party configured")
	}
	if !persister.called {
		t.Fatal("expected Persist to be called")
	}
}

func TestRunFallsBackToHeuristicWhenMILPFails(t *testing.T) {
	r := newTestRunner()
	r.MILPSolve = failingMILPSolve
	r.HeuristicSolve = fixedHeuristicSolve

	run, _, _, err := r.Run(context.Background(), 1, triangleRoster(), nil, nil, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Algorithm != AlgorithmHeuristic {
		t.Fatalf("expected fallback to heuristic, got %v", run.Algorithm)
	}
}

func TestRunPropagatesKitchenUnavailableWithoutPersisting(t *testing.T) {
	r := newTestRunner()
	r.MILPSolve = fixedMILPSolve
	r.AllocateKitch = failingKitchenAllocate
	persister := &recordingPersister{}
	r.Persist = persister.persist

	run, assignments, _, err := r.Run(context.Background(), 1, triangleRoster(), nil, nil, 1, nil)
	if !errors.Is(err, ErrKitchenUnavailable) {
		t.Fatalf("expected ErrKitchenUnavailable, got %v", err)
	}
	if run.Status != RunFailed {
		t.Fatalf("expected RunFailed, got %v", run.Status)
	}
	if assignments != nil {
		t.Fatalf("expected no assignments on failure")
	}
	if persister.called {
		t.Fatal("Persist must not be called when an earlier phase fails")
	}
}

func TestRunReportsProgressThroughCompletion(t *testing.T) {
	r := newTestRunner()
	r.MILPSolve = fixedMILPSolve

	progress := NewChannel()
	_, _, _, err := r.Run(context.Background(), 1, triangleRoster(), nil, nil, 1, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := progress.Snapshot()
	if snap.Status != RunStatusCompleted {
		t.Fatalf("expected final snapshot status completed, got %v", snap.Status)
	}
	if snap.Step != snap.TotalSteps {
		t.Fatalf("expected final snapshot step %d to equal total %d", snap.Step, snap.TotalSteps)
	}
	if len(progress.Logs(0)) == 0 {
		t.Fatal("expected at least one log entry across the run")
	}
}

func TestRunSerializesConcurrentCallsForSameEvent(t *testing.T) {
	r := newTestRunner()
	r.MILPSolve = fixedMILPSolve

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _, _, err := r.Run(context.Background(), 1, triangleRoster(), nil, nil, 1, nil)
			if err != nil {
				t.Errorf("unexpected error from concurrent run: %v", err)
			}
			done <- struct{}{}
		}()
	}
	<-done
	<-done
}
