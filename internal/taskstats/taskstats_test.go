package taskstats

import (
	"math"
	"testing"
	"time"
)

func TestRecord(t *testing.T) {
	r := NewRegistry()
	base := time.Now()

	r.Record(TaskController, base, base.Add(100*time.Microsecond))
	r.Record(TaskController, base.Add(300*time.Microsecond), base.Add(320*time.Microsecond))
	r.Record(TaskController, base.Add(400*time.Microsecond), base.Add(460*time.Microsecond))

	var got Snapshot
	for _, s := range r.Snapshot() {
		if s.Name == "controller" {
			got = s
		}
	}
	want := Snapshot{Name: "controller", Runs: 3, MinUs: 20, MaxUs: 100, AvgUs: 60, MaxGapUs: 300}
	if got != want {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}
}

func TestUnusedTaskSnapshot(t *testing.T) {
	r := NewRegistry()
	snaps := r.Snapshot()
	if len(snaps) != int(numTasks) {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	for _, s := range snaps {
		if s.Runs != 0 || s.MinUs != 0 || s.AvgUs != 0 {
			t.Fatalf("fresh task %s has data: %+v", s.Name, s)
		}
	}
}

func TestFailAndReset(t *testing.T) {
	r := NewRegistry()
	r.Fail(TaskGPS, 3)
	r.Fail(TaskGPS, 7)
	s := r.Task(TaskGPS)
	if s.errors.Load() != 2 || s.lastError.Load() != 7 {
		t.Fatalf("errors=%d last=%d", s.errors.Load(), s.lastError.Load())
	}
	r.Reset()
	if s.errors.Load() != 0 || s.minDur.Load() != math.MaxInt64 {
		t.Fatal("reset did not clear counters")
	}
}

func TestCountersSaturate(t *testing.T) {
	r := NewRegistry()
	s := r.Task(TaskIMURead)
	s.runs.Store(math.MaxUint32)
	s.errors.Store(math.MaxUint32)

	now := time.Now()
	r.Record(TaskIMURead, now, now)
	r.Fail(TaskIMURead, 1)
	if s.runs.Load() != math.MaxUint32 || s.errors.Load() != math.MaxUint32 {
		t.Fatal("counter wrapped")
	}
}

func TestTaskNames(t *testing.T) {
	if TaskBaro.String() != "baro" || Task(99).String() != "unknown" {
		t.Fatal("unexpected task names")
	}
}

func TestRecordDoesNotAllocate(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	allocs := testing.AllocsPerRun(100, func() {
		r.Record(TaskEstimator, now, now.Add(time.Microsecond))
	})
	if allocs != 0 {
		t.Fatalf("Record allocated %v times", allocs)
	}
}
