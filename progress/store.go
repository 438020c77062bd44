// Package progress persists an engine.Channel's snapshot and log lines
// into the shared LevelDB store under the external contract's key
// names, so a status poller reading the database directly (rather than
// holding the in-process Channel) can observe a run's progress.
package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/store"
)

// defaultTTL is how long a progress or log entry survives in the store
// once written when a Store is constructed without an explicit TTL. A
// poller that misses this window sees the key as absent, matching a
// run that finished or was abandoned long ago.
const defaultTTL = 300 * time.Second

func progressKey(eventID int) []byte {
	return []byte(fmt.Sprintf("optimization_progress_%d", eventID))
}

func logKey(eventID int) []byte {
	return []byte(fmt.Sprintf("optimization_log_%d", eventID))
}

type wireProgress struct {
	Step        int              `json:"step"`
	TotalSteps  int              `json:"total_steps"`
	CurrentTask string           `json:"current_task"`
	Percentage  float64          `json:"percentage"`
	Status      engine.RunStatus `json:"status"`
}

type wireLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Store wraps the shared store.Store to publish one event's progress
// channel under the keys external pollers expect.
type Store struct {
	db  *store.Store
	ttl time.Duration
}

// New returns a progress.Store backed by db, using ttl as the expiry for
// every progress/log key it writes. ttl <= 0 uses defaultTTL (300s).
func New(db *store.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{db: db, ttl: ttl}
}

// Publish writes the channel's current snapshot and full log buffer for
// eventID, each under its own TTL'd key.
func (s *Store) Publish(eventID int, ch *engine.Channel) error {
	snap := ch.Snapshot()
	wp := wireProgress{
		Step:        snap.Step,
		TotalSteps:  snap.TotalSteps,
		CurrentTask: snap.CurrentTask,
		Percentage:  snap.Percentage,
		Status:      snap.Status,
	}
	payload, err := json.Marshal(wp)
	if err != nil {
		return err
	}
	if err := s.db.PutTTL(progressKey(eventID), payload, s.ttl); err != nil {
		return err
	}

	entries := ch.Logs(0)
	wireEntries := make([]wireLogEntry, len(entries))
	for i, e := range entries {
		wireEntries[i] = wireLogEntry{Timestamp: e.Timestamp, Message: e.Message}
	}
	logPayload, err := json.Marshal(wireEntries)
	if err != nil {
		return err
	}
	return s.db.PutTTL(logKey(eventID), logPayload, s.ttl)
}

// Progress reads back the last published snapshot for eventID. ok is
// false if no entry exists or it has expired.
func (s *Store) Progress(eventID int) (engine.ProgressState, bool, error) {
	raw, ok, err := s.db.GetTTL(progressKey(eventID))
	if err != nil || !ok {
		return engine.ProgressState{}, ok, err
	}
	var wp wireProgress
	if err := json.Unmarshal(raw, &wp); err != nil {
		return engine.ProgressState{}, false, err
	}
	return engine.ProgressState{
		Step:        wp.Step,
		TotalSteps:  wp.TotalSteps,
		CurrentTask: wp.CurrentTask,
		Percentage:  wp.Percentage,
		Status:      wp.Status,
	}, true, nil
}

// Log reads back the last published log entries for eventID. ok is
// false if no entry exists or it has expired.
func (s *Store) Log(eventID int) ([]engine.LogEntry, bool, error) {
	raw, ok, err := s.db.GetTTL(logKey(eventID))
	if err != nil || !ok {
		return nil, ok, err
	}
	var wireEntries []wireLogEntry
	if err := json.Unmarshal(raw, &wireEntries); err != nil {
		return nil, false, err
	}
	out := make([]engine.LogEntry, len(wireEntries))
	for i, e := range wireEntries {
		out[i] = engine.LogEntry{Timestamp: e.Timestamp, Message: e.Message}
	}
	return out, true, nil
}
