// Package progress is the side channel for incremental progress and
// ETA reporting. It is ordered but non-blocking and has no bearing on
// the computed results.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reporter receives one Step per completed unit of work.
type Reporter interface {
	Start(label string, total int)
	Step()
}

// Nop returns a Reporter that discards all progress.
func Nop() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Start(string, int) {}
func (nopReporter) Step()             {}

// NewLog returns a Reporter that logs percent complete and an ETA
// after every step.
func NewLog(log *zap.Logger) Reporter {
	return &logReporter{log: log}
}

type logReporter struct {
	log *zap.Logger

	mu    sync.Mutex
	label string
	total int
	done  int
	t0    time.Time
}

func (r *logReporter) Start(label string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label = label
	r.total = total
	r.done = 0
	r.t0 = time.Now()
}

func (r *logReporter) Step() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	if r.total == 0 {
		return
	}
	elapsed := time.Since(r.t0)
	eta := time.Duration(float64(elapsed) * (float64(r.total)/float64(r.done) - 1))
	r.log.Info("progress",
		zap.String("term", r.label),
		zap.Float64("percent", 100*float64(r.done)/float64(r.total)),
		zap.Duration("elapsed", elapsed),
		zap.Duration("eta", eta))
}
