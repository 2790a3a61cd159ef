// Package dashboard holds the live operational snapshot of the pipeline and
// serves it over HTTP.
package dashboard

import "sync"

// Entry is one completed relay in the history, newest first.
type Entry struct {
	Artifact    string `json:"artifact"`
	PatientName string `json:"patient_name"`
	PatientID   string `json:"patient_id"`
	StudyDate   string `json:"study_date"`
	Result      string `json:"result"`
}

// Snapshot is a point-in-time copy of the dashboard state.
type Snapshot struct {
	QueueDepth   int     `json:"queue_depth"`
	Processing   string  `json:"processing"`
	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`
	History      []Entry `json:"history"`
}

// State is the process-wide mutable dashboard state. One instance is owned
// by the daemon and shared by reference with the receiver and the relay
// worker; all access goes through the mutex.
type State struct {
	mu          sync.Mutex
	historySize int

	queueDepth   int
	processing   string
	successCount int
	failureCount int
	history      []Entry
}

// NewState builds a State with the given bounded history size.
func NewState(historySize int) *State {
	if historySize <= 0 {
		historySize = 1
	}
	return &State{historySize: historySize}
}

// SetQueueDepth records the current work queue depth.
func (s *State) SetQueueDepth(depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if depth < 0 {
		depth = 0
	}
	s.queueDepth = depth
}

// SetProcessing marks an artifact as in flight.
func (s *State) SetProcessing(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = name
}

// ClearProcessing clears the in-flight marker.
func (s *State) ClearProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = ""
}

// RecordSuccess increments the success counter and pushes the entry to the
// front of the bounded history, evicting the oldest entry when full.
func (s *State) RecordSuccess(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successCount++
	s.history = append([]Entry{entry}, s.history...)
	if len(s.history) > s.historySize {
		s.history = s.history[:s.historySize]
	}
}

// SeedHistory replaces the history with entries restored from persistent
// storage, newest first. Counters are untouched; seeding reflects past runs,
// not this one.
func (s *State) SeedHistory(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) > s.historySize {
		entries = entries[:s.historySize]
	}
	s.history = append([]Entry(nil), entries...)
}

// RecordFailure increments the failure counter. Failed items leave no
// history entry; only the counters record them.
func (s *State) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureCount++
}

// Snapshot returns a read-only copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Entry, len(s.history))
	copy(history, s.history)
	return Snapshot{
		QueueDepth:   s.queueDepth,
		Processing:   s.processing,
		SuccessCount: s.successCount,
		FailureCount: s.failureCount,
		History:      history,
	}
}
