// Package taskstats keeps lock-free timing counters for the control tick
// stages and the slow tasks. Each Stats has a single writer; any goroutine
// may take a Snapshot.
package taskstats

import (
	"math"
	"sync/atomic"
	"time"
)

// Task identifies one instrumented task or tick stage.
type Task int

const (
	TaskIMURead Task = iota
	TaskEstimator
	TaskController
	TaskMotorOutput
	TaskRC
	TaskModes
	TaskBaro
	TaskGPS
	TaskTuning
	TaskTelemetry
	TaskStats

	numTasks
)

var taskNames = [numTasks]string{
	TaskIMURead:     "imu_read",
	TaskEstimator:   "estimator",
	TaskController:  "controller",
	TaskMotorOutput: "motor_output",
	TaskRC:          "rc",
	TaskModes:       "modes",
	TaskBaro:        "baro",
	TaskGPS:         "gps",
	TaskTuning:      "tuning",
	TaskTelemetry:   "telemetry",
	TaskStats:       "task_stats",
}

func (t Task) String() string {
	if t < 0 || t >= numTasks {
		return "unknown"
	}
	return taskNames[t]
}

// Stats holds the counters of one task. Durations are nanoseconds.
type Stats struct {
	runs      atomic.Uint32
	minDur    atomic.Int64
	maxDur    atomic.Int64
	totalDur  atomic.Int64
	maxGap    atomic.Int64
	lastStart atomic.Int64 // ns since registry epoch, 0 before the first run
	errors    atomic.Uint32
	lastError atomic.Uint32
}

// Registry owns the Stats of every task.
type Registry struct {
	epoch time.Time
	tasks [numTasks]Stats
}

func NewRegistry() *Registry {
	r := &Registry{epoch: time.Now()}
	for i := range r.tasks {
		r.tasks[i].minDur.Store(math.MaxInt64)
	}
	return r
}

// Task returns the counters for t. It panics on an unknown task.
func (r *Registry) Task(t Task) *Stats { return &r.tasks[t] }

// Record accounts one run of t that started at start and ended at end.
func (r *Registry) Record(t Task, start, end time.Time) {
	s := &r.tasks[t]
	at := start.Sub(r.epoch).Nanoseconds() + 1

	if last := s.lastStart.Load(); last != 0 {
		if gap := at - last; gap > s.maxGap.Load() {
			s.maxGap.Store(gap)
		}
	}
	s.lastStart.Store(at)
	inc32(&s.runs)

	d := end.Sub(start).Nanoseconds()
	if d < s.minDur.Load() {
		s.minDur.Store(d)
	}
	if d > s.maxDur.Load() {
		s.maxDur.Store(d)
	}
	if total := s.totalDur.Load(); total <= math.MaxInt64-d {
		s.totalDur.Store(total + d)
	}
}

// Fail counts an error for t and keeps its code.
func (r *Registry) Fail(t Task, code uint32) {
	s := &r.tasks[t]
	inc32(&s.errors)
	s.lastError.Store(code)
}

// Reset clears the counters of every task.
func (r *Registry) Reset() {
	for i := range r.tasks {
		s := &r.tasks[i]
		s.runs.Store(0)
		s.minDur.Store(math.MaxInt64)
		s.maxDur.Store(0)
		s.totalDur.Store(0)
		s.maxGap.Store(0)
		s.lastStart.Store(0)
		s.errors.Store(0)
		s.lastError.Store(0)
	}
}

// Snapshot is a copy of one task's counters in microseconds.
type Snapshot struct {
	Name      string  `json:"name"`
	Runs      uint32  `json:"runs"`
	MinUs     float64 `json:"min_us"`
	MaxUs     float64 `json:"max_us"`
	AvgUs     float64 `json:"avg_us"`
	MaxGapUs  float64 `json:"max_gap_us"`
	Errors    uint32  `json:"errors"`
	LastError uint32  `json:"last_error"`
}

// Snapshot copies every task. Fields are read one by one, so a snapshot taken
// while a task runs may mix two consecutive runs.
func (r *Registry) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, numTasks)
	for i := range r.tasks {
		s := &r.tasks[i]
		snap := Snapshot{
			Name:      Task(i).String(),
			Runs:      s.runs.Load(),
			MaxUs:     micros(s.maxDur.Load()),
			MaxGapUs:  micros(s.maxGap.Load()),
			Errors:    s.errors.Load(),
			LastError: s.lastError.Load(),
		}
		if snap.Runs > 0 {
			snap.MinUs = micros(s.minDur.Load())
			snap.AvgUs = micros(s.totalDur.Load()) / float64(snap.Runs)
		}
		out = append(out, snap)
	}
	return out
}

func micros(ns int64) float64 { return float64(ns) / 1e3 }

func inc32(v *atomic.Uint32) {
	if n := v.Load(); n < math.MaxUint32 {
		v.Store(n + 1)
	}
}
