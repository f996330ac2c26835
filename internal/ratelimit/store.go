// Package ratelimit is a fixed-window request counter keyed by client id.
// State is in process memory only; a restart forgets every window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 60
	DefaultWindow      = time.Minute
	DefaultSweepEvery  = 5 * time.Minute
)

type Config struct {
	MaxRequests int
	Window      time.Duration
	// SweepEvery is how often idle records are dropped. Records idle for more
	// than two windows are removed.
	SweepEvery time.Duration
}

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left in the client's current window.
	ResetIn time.Duration
}

type record struct {
	count       int
	windowStart time.Time
}

type Store struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	records map[string]*record

	life    sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewStore(cfg Config) *Store {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = DefaultSweepEvery
	}
	return &Store{
		cfg:     cfg,
		now:     time.Now,
		records: make(map[string]*record),
	}
}

func (s *Store) Config() Config { return s.cfg }

// Check counts one request for clientID. The check and the increment happen
// under one lock, so concurrent callers never exceed MaxRequests per window.
func (s *Store) Check(clientID string) Result {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[clientID]
	if !ok || now.Sub(rec.windowStart) >= s.cfg.Window {
		s.records[clientID] = &record{count: 1, windowStart: now}
		return Result{
			Allowed:   true,
			Limit:     s.cfg.MaxRequests,
			Remaining: s.cfg.MaxRequests - 1,
			ResetIn:   s.cfg.Window,
		}
	}

	resetIn := s.cfg.Window - now.Sub(rec.windowStart)
	if rec.count >= s.cfg.MaxRequests {
		return Result{Limit: s.cfg.MaxRequests, ResetIn: resetIn}
	}
	rec.count++
	return Result{
		Allowed:   true,
		Limit:     s.cfg.MaxRequests,
		Remaining: s.cfg.MaxRequests - rec.count,
		ResetIn:   resetIn,
	}
}

// Sweep drops records whose window started more than two windows ago and
// returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-2 * s.cfg.Window)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.records {
		if rec.windowStart.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n
}

// Len is the number of tracked clients.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Start runs Sweep every SweepEvery until ctx is done or Stop is called.
// Only the first call starts a sweeper; later calls, and calls after Stop,
// do nothing.
func (s *Store) Start(ctx context.Context) {
	s.life.Lock()
	defer s.life.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		t := time.NewTicker(s.cfg.SweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}(s.done)
}

// Stop ends the sweeper started by Start and waits for it to exit. It is safe
// to call more than once.
func (s *Store) Stop() {
	s.life.Lock()
	s.started = true
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.life.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
