package persist

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/cacheinvalidate"
	"github.com/rdinner/engine/store"
)

func sampleRun() engine.OptimizationRun {
	return engine.OptimizationRun{
		RunID:               "11111111-1111-1111-1111-111111111111",
		Algorithm:           engine.AlgorithmHeuristic,
		TotalDistanceKM:     42.5,
		ObjectiveValue:      12.0,
		IterationsCompleted: 3,
		ExecutionTimeMS:     150,
		LogData:             []string{"partitioning hosts", "solving via heuristic", "persisting"},
	}
}

func teamID(id int) *engine.TeamID {
	t := engine.TeamID(id)
	return &t
}

func sampleAssignments() []engine.Assignment {
	return []engine.Assignment{
		{
			TeamID:          1,
			CourseHosted:    engine.CourseAppetizer,
			Hosts:           map[engine.Course]*engine.TeamID{engine.CourseMain: teamID(2), engine.CourseDessert: teamID(3)},
			Distances:       map[engine.Course]float64{engine.CourseAppetizer: 0, engine.CourseMain: 1.2, engine.CourseDessert: 2.3},
			TotalDistanceKM: 3.5,
		},
		{
			TeamID:          2,
			CourseHosted:    engine.CourseMain,
			Hosts:           map[engine.Course]*engine.TeamID{engine.CourseAppetizer: teamID(1), engine.CourseDessert: teamID(3)},
			Distances:       map[engine.Course]float64{engine.CourseAppetizer: 1.2, engine.CourseMain: 0, engine.CourseDessert: 1.1},
			TotalDistanceKM: 2.3,
		},
	}
}

func TestCommitWritesRunAndAssignments(t *testing.T) {
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Commit(db, 1, sampleRun(), sampleAssignments(), nil))

	run, ok, err := LoadRun(db, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, engine.RunCompleted, run.Status)
	require.Equal(t, 42.5, run.TotalDistanceKM)
	require.Equal(t, engine.AlgorithmHeuristic, run.Algorithm)
	require.Equal(t, 3, run.IterationsCompleted)
	require.Equal(t, []string{"partitioning hosts", "solving via heuristic", "persisting"}, run.LogData)

	assignments, err := LoadAssignments(db, 1)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.ElementsMatch(t, sampleAssignments(), assignments)

	status, ok, err := EventStatus(db, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, EventStatusOptimized, status)
}

func TestCommitDeletesPriorAssignmentsForSameEvent(t *testing.T) {
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Commit(db, 1, sampleRun(), sampleAssignments(), nil))

	secondRun := sampleRun()
	secondRun.TotalDistanceKM = 10
	onlyOne := sampleAssignments()[:1]
	require.NoError(t, Commit(db, 1, secondRun, onlyOne, nil))

	assignments, err := LoadAssignments(db, 1)
	require.NoError(t, err)
	require.Len(t, assignments, 1, "prior assignments must be replaced, not merged")
	require.Equal(t, onlyOne[0].TeamID, assignments[0].TeamID)
}

func TestCommitIsolatesDifferentEvents(t *testing.T) {
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Commit(db, 1, sampleRun(), sampleAssignments(), nil))
	require.NoError(t, Commit(db, 2, sampleRun(), sampleAssignments()[:1], nil))

	a1, err := LoadAssignments(db, 1)
	require.NoError(t, err)
	a2, err := LoadAssignments(db, 2)
	require.NoError(t, err)
	require.Len(t, a1, 2)
	require.Len(t, a2, 1)
}

func TestFailPreservesPriorAssignments(t *testing.T) {
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Commit(db, 1, sampleRun(), sampleAssignments(), nil))

	cause := errors.New("boom")
	run := sampleRun()
	gotErr := Fail(db, 1, run, cause)
	require.ErrorIs(t, gotErr, cause)

	failedRun, ok, err := LoadRun(db, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, engine.RunFailed, failedRun.Status)
	require.Equal(t, "boom", failedRun.ErrorMessage)

	assignments, err := LoadAssignments(db, 1)
	require.NoError(t, err)
	require.Len(t, assignments, 2, "Fail must never disturb prior assignments")
}

func TestCommitPublishesRunAssignmentMutation(t *testing.T) {
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	bus := cacheinvalidate.NewBus(nil, 4)
	defer bus.Stop()

	var mu sync.Mutex
	var got []cacheinvalidate.Mutation
	received := make(chan struct{}, 1)
	bus.Subscribe(cacheinvalidate.InvalidatorFunc(func(m cacheinvalidate.Mutation) error {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
		received <- struct{}{}
		return nil
	}))

	require.NoError(t, Commit(db, 1, sampleRun(), sampleAssignments(), bus))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Commit to publish a mutation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, cacheinvalidate.KindRunAssignment, got[0].Kind)
	require.Equal(t, 1, got[0].EventID)
}
