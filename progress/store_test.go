package progress

import (
	"testing"
	"time"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/store"
)

func TestPublishAndReadBackProgress(t *testing.T) {
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()

	ch := engine.NewChannel()
	ch.Publish(engine.ProgressState{Step: 2, TotalSteps: 5, CurrentTask: "building matrix", Percentage: 40, Status: engine.RunStatusRunning})
	ch.Log("starting geocode", time.Now())
	ch.Log("matrix built", time.Now())

	s := New(db, 0)
	if err := s.Publish(7, ch); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, ok, err := s.Progress(7)
	if err != nil || !ok {
		t.Fatalf("Progress: ok=%v err=%v", ok, err)
	}
	if got.Step != 2 || got.CurrentTask != "building matrix" || got.Status != engine.RunStatusRunning {
		t.Errorf("Progress = %+v, want step=2 task=building matrix status=running", got)
	}

	logs, ok, err := s.Log(7)
	if err != nil || !ok {
		t.Fatalf("Log: ok=%v err=%v", ok, err)
	}
	if len(logs) != 2 || logs[0].Message != "starting geocode" || logs[1].Message != "matrix built" {
		t.Errorf("Log = %+v, want 2 entries in order", logs)
	}
}

func TestProgressAbsentForUnknownEvent(t *testing.T) {
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()

	s := New(db, 0)
	_, ok, err := s.Progress(99)
	if err != nil || ok {
		t.Errorf("Progress(99) ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestPublishOverwritesPreviousSnapshot(t *testing.T) {
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()

	ch := engine.NewChannel()
	s := New(db, 0)

	ch.Publish(engine.ProgressState{Step: 1, Status: engine.RunStatusRunning})
	if err := s.Publish(1, ch); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ch.Publish(engine.ProgressState{Step: 5, Status: engine.RunStatusCompleted})
	if err := s.Publish(1, ch); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, ok, err := s.Progress(1)
	if err != nil || !ok {
		t.Fatalf("Progress: ok=%v err=%v", ok, err)
	}
	if got.Step != 5 || got.Status != engine.RunStatusCompleted {
		t.Errorf("Progress after second publish = %+v, want step=5 status=completed", got)
	}
}
