// Package persist commits one optimization run's assignments to the
// shared LevelDB store as a single atomic batch: prior assignments for
// the event are deleted and the new run, its per-team assignments, and
// the event's status are all written together, or none are.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/cacheinvalidate"
	"github.com/rdinner/engine/store"
)

func runKey(eventID int) []byte {
	return []byte(fmt.Sprintf("run|%d", eventID))
}

func assignPrefix(eventID int) []byte {
	return []byte(fmt.Sprintf("assign|%d|", eventID))
}

func assignKey(eventID int, teamID engine.TeamID) []byte {
	return []byte(fmt.Sprintf("assign|%d|%d", eventID, teamID))
}

func eventStatusKey(eventID int) []byte {
	return []byte(fmt.Sprintf("eventstatus|%d", eventID))
}

// EventStatusOptimized and EventStatusFailed are the two values written
// to the eventstatus| key by Commit.
const (
	EventStatusOptimized = "optimized"
	EventStatusFailed    = "failed"
)

type wireRun struct {
	RunID               string   `json:"run_id"`
	Status              string   `json:"status"`
	Algorithm           string   `json:"algorithm"`
	TotalDistanceKM     float64  `json:"total_distance_km"`
	ObjectiveValue      float64  `json:"objective_value"`
	IterationsCompleted int      `json:"iterations_completed"`
	ExecutionTimeMS     int64    `json:"execution_time_ms"`
	ErrorMessage        string   `json:"error_message,omitempty"`
	LogData             []string `json:"log_data,omitempty"`
}

type wireAssignment struct {
	TeamID            engine.TeamID                      `json:"team_id"`
	CourseHosted      engine.Course                      `json:"course_hosted"`
	Hosts             map[engine.Course]*engine.TeamID   `json:"hosts"`
	Distances         map[engine.Course]float64          `json:"distances"`
	TotalDistanceKM   float64                            `json:"total_distance_km"`
	GuestKitchenUsage map[engine.Course]engine.KitchenID `json:"guest_kitchen_usage,omitempty"`
	AfterPartyLeg     *engine.AfterPartyLeg              `json:"afterparty_leg,omitempty"`
}

func toWireRun(run engine.OptimizationRun) wireRun {
	return wireRun{
		RunID:               run.RunID,
		Status:              string(run.Status),
		Algorithm:           string(run.Algorithm),
		TotalDistanceKM:     run.TotalDistanceKM,
		ObjectiveValue:      run.ObjectiveValue,
		IterationsCompleted: run.IterationsCompleted,
		ExecutionTimeMS:     run.ExecutionTimeMS,
		ErrorMessage:        run.ErrorMessage,
		LogData:             run.LogData,
	}
}

func toWireAssignment(a engine.Assignment) wireAssignment {
	return wireAssignment{
		TeamID:            a.TeamID,
		CourseHosted:      a.CourseHosted,
		Hosts:             a.Hosts,
		Distances:         a.Distances,
		TotalDistanceKM:   a.TotalDistanceKM,
		GuestKitchenUsage: a.GuestKitchenUsage,
		AfterPartyLeg:     a.AfterPartyLeg,
	}
}

// Commit atomically replaces event eventID's assignments: every prior
// assign|eventID|* key is deleted, the run record and every new
// assignment are written, and eventstatus|eventID is set to
// "optimized" -- all in one LevelDB batch, so a crash mid-commit never
// leaves a half-written run visible. On any error before the batch is
// written, the prior assignments are untouched and a best-effort
// failure record is written instead.
//
// If bus is non-nil, a successful commit publishes a
// cacheinvalidate.KindRunAssignment mutation for eventID, so subscribers
// (e.g. a per-event route-geometry cache) can drop entries this run
// made stale. bus may be nil in tests or other callers with nothing
// subscribed.
func Commit(db *store.Store, eventID int, run engine.OptimizationRun, assignments []engine.Assignment, bus *cacheinvalidate.Bus) error {
	batch := db.NewBatch()

	if err := db.IteratePrefix(assignPrefix(eventID), func(key, _ []byte) error {
		batch.Delete(key)
		return nil
	}); err != nil {
		return Fail(db, eventID, run, err)
	}

	run.Status = engine.RunCompleted
	runPayload, err := json.Marshal(toWireRun(run))
	if err != nil {
		return Fail(db, eventID, run, err)
	}
	batch.Put(runKey(eventID), runPayload)

	for _, a := range assignments {
		payload, err := json.Marshal(toWireAssignment(a))
		if err != nil {
			return Fail(db, eventID, run, err)
		}
		batch.Put(assignKey(eventID, a.TeamID), payload)
	}

	batch.Put(eventStatusKey(eventID), []byte(EventStatusOptimized))

	if err := db.WriteBatch(batch); err != nil {
		return Fail(db, eventID, run, err)
	}

	if bus != nil {
		bus.Publish(cacheinvalidate.Mutation{Kind: cacheinvalidate.KindRunAssignment, EventID: eventID})
	}
	return nil
}

// Fail writes a failed run record (never touching existing assignment
// rows) and returns cause unchanged, so callers can write `return
// persist.Fail(...)` directly. Used both by Commit on a mid-batch error
// and by a caller that never reaches Commit at all (e.g. a run that
// fails before host partitioning).
func Fail(db *store.Store, eventID int, run engine.OptimizationRun, cause error) error {
	run.Status = engine.RunFailed
	run.ErrorMessage = cause.Error()
	if payload, merr := json.Marshal(toWireRun(run)); merr == nil {
		_ = db.Put(runKey(eventID), payload)
		_ = db.Put(eventStatusKey(eventID), []byte(EventStatusFailed))
	}
	return cause
}

// LoadRun reads back the run record written by Commit or Fail.
func LoadRun(db *store.Store, eventID int) (engine.OptimizationRun, bool, error) {
	raw, ok, err := db.Get(runKey(eventID))
	if err != nil || !ok {
		return engine.OptimizationRun{}, ok, err
	}
	var w wireRun
	if err := json.Unmarshal(raw, &w); err != nil {
		return engine.OptimizationRun{}, false, err
	}
	return engine.OptimizationRun{
		RunID:               w.RunID,
		Status:              engine.RunState(w.Status),
		Algorithm:           engine.RunAlgorithm(w.Algorithm),
		TotalDistanceKM:     w.TotalDistanceKM,
		ObjectiveValue:      w.ObjectiveValue,
		IterationsCompleted: w.IterationsCompleted,
		ExecutionTimeMS:     w.ExecutionTimeMS,
		ErrorMessage:        w.ErrorMessage,
		LogData:             w.LogData,
	}, true, nil
}

// LoadAssignments reads back every assignment committed for eventID.
func LoadAssignments(db *store.Store, eventID int) ([]engine.Assignment, error) {
	var out []engine.Assignment
	err := db.IteratePrefix(assignPrefix(eventID), func(_ []byte, value []byte) error {
		var w wireAssignment
		if err := json.Unmarshal(value, &w); err != nil {
			return err
		}
		out = append(out, engine.Assignment{
			TeamID:            w.TeamID,
			CourseHosted:      w.CourseHosted,
			Hosts:             w.Hosts,
			Distances:         w.Distances,
			TotalDistanceKM:   w.TotalDistanceKM,
			GuestKitchenUsage: w.GuestKitchenUsage,
			AfterPartyLeg:     w.AfterPartyLeg,
		})
		return nil
	})
	return out, err
}

// EventStatus reads back the eventstatus| key for eventID.
func EventStatus(db *store.Store, eventID int) (string, bool, error) {
	raw, ok, err := db.Get(eventStatusKey(eventID))
	if err != nil || !ok {
		return "", ok, err
	}
	return string(raw), true, nil
}
