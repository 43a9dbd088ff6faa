// Package scheduler runs the service's periodic maintenance tasks,
// currently the audit log purge. The surface is deliberately small:
// named tickers that survive task panics, stopped together with the
// process.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler manages named periodic tasks.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	logger  *zap.Logger
	stopCh  chan struct{}
}

type tickerEntry struct {
	ticker *time.Ticker
	stopCh chan struct{}
	runs   int64
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	entry := &tickerEntry{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	s.tickers[name] = entry

	go s.run(name, entry, fn)
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) run(name string, entry *tickerEntry, fn TaskFn) {
	for {
		select {
		case <-entry.ticker.C:
			s.runOnce(name, entry, fn)
		case <-entry.stopCh:
			entry.ticker.Stop()
			return
		case <-s.stopCh:
			entry.ticker.Stop()
			return
		}
	}
}

// runOnce shields the scheduler from a panicking task: the ticker keeps
// firing on its next interval.
func (s *Scheduler) runOnce(name string, entry *tickerEntry, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	s.mu.Lock()
	entry.runs++
	s.mu.Unlock()
	fn()
}

// Remove stops and removes one ticker by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
}

// Stop stops all tasks. Tickers added afterwards never fire.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// TickerStatus is one row of the admin task listing.
type TickerStatus struct {
	Name string `json:"name"`
	Runs int64  `json:"runs"`
}

// ListTickers reports the registered tasks with their completed run
// counts, for the admin metrics endpoint.
func (s *Scheduler) ListTickers() []TickerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TickerStatus, 0, len(s.tickers))
	for name, entry := range s.tickers {
		out = append(out, TickerStatus{Name: name, Runs: entry.runs})
	}
	return out
}
