package core

import (
	"log"
	"sync"
	"time"
)

// Logger is the minimal structured logging surface the loaders need.
// Arguments are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// StdLogger adapts the standard library logger. Verbose gates Debug.
type StdLogger struct {
	L       *log.Logger
	Verbose bool
}

// NewStdLogger wraps l, falling back to the process default logger.
func NewStdLogger(l *log.Logger, verbose bool) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{L: l, Verbose: verbose}
}

func (s *StdLogger) Debug(msg string, args ...any) {
	if s.Verbose {
		s.print("DEBUG", msg, args)
	}
}
func (s *StdLogger) Info(msg string, args ...any)  { s.print("INFO", msg, args) }
func (s *StdLogger) Warn(msg string, args ...any)  { s.print("WARN", msg, args) }
func (s *StdLogger) Error(msg string, args ...any) { s.print("ERROR", msg, args) }

func (s *StdLogger) print(level, msg string, args []any) {
	if len(args) == 0 {
		s.L.Printf("%s %s", level, msg)
		return
	}
	s.L.Printf("%s %s %v", level, msg, args)
}

// MetricsRecorder aggregates operation outcomes and durations. Operations
// are free-form labels such as "fasta_record" or "region_store"; statuses
// are "ok", "ambiguous", "error" and the like.
type MetricsRecorder interface {
	IncResult(op, status string)
	ObserveDuration(op string, d time.Duration)
}

// NopMetrics discards all recordings.
type NopMetrics struct{}

func (NopMetrics) IncResult(string, string)               {}
func (NopMetrics) ObserveDuration(string, time.Duration)  {}

// MemoryMetrics keeps counters in process memory for tests and dry runs.
type MemoryMetrics struct {
	mu        sync.Mutex
	results   map[string]map[string]int64
	durations map[string]time.Duration
}

// NewMemoryMetrics returns an empty in-memory recorder.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		results:   make(map[string]map[string]int64),
		durations: make(map[string]time.Duration),
	}
}

func (m *MemoryMetrics) IncResult(op, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStatus := m.results[op]
	if byStatus == nil {
		byStatus = make(map[string]int64)
		m.results[op] = byStatus
	}
	byStatus[status]++
}

func (m *MemoryMetrics) ObserveDuration(op string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[op] += d
}

// Result returns the accumulated count for one op/status pair.
func (m *MemoryMetrics) Result(op, status string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[op][status]
}

// Duration returns the accumulated duration for one op.
func (m *MemoryMetrics) Duration(op string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durations[op]
}
