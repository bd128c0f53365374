package chardev

import (
	"sync"
	"sync/atomic"
	"time"
)

// ReaperStatus reports the current state of a SessionReaper.
type ReaperStatus struct {
	IsRunning   bool      `json:"is_running"`
	LastSweep   time.Time `json:"last_sweep,omitempty"`
	TotalSweeps int64     `json:"total_sweeps"`
	TotalReaped int64     `json:"total_reaped"`
}

// SessionReaper closes sessions that have been idle longer than the
// configured TTL, so abandoned remote handles do not stay open forever.
type SessionReaper struct {
	binding  *DeviceBinding
	interval time.Duration
	ttl      time.Duration
	logger   Logger
	clock    Clock

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu          sync.RWMutex
	lastSweep   time.Time
	totalSweeps int64
	totalReaped int64
}

// NewSessionReaper creates a reaper for the binding's sessions. A TTL of 0
// disables reaping (Start becomes a no-op). The sweep interval defaults to
// 30 seconds.
func NewSessionReaper(b *DeviceBinding, interval, ttl time.Duration, logger Logger) *SessionReaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SessionReaper{
		binding:  b,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		clock:    b.clock,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (r *SessionReaper) Start() {
	if r.ttl <= 0 {
		return
	}
	if r.running.Swap(true) {
		return // Already running
	}

	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.loop()
}

// Stop stops the sweep loop.
func (r *SessionReaper) Stop() {
	if !r.running.Swap(false) {
		return // Not running
	}
	close(r.stopCh)
	r.wg.Wait()
}

// IsRunning returns true if the sweep loop is active.
func (r *SessionReaper) IsRunning() bool {
	return r.running.Load()
}

// Status returns the current reaper status.
func (r *SessionReaper) Status() ReaperStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ReaperStatus{
		IsRunning:   r.running.Load(),
		LastSweep:   r.lastSweep,
		TotalSweeps: r.totalSweeps,
		TotalReaped: r.totalReaped,
	}
}

// SweepNow runs a single sweep synchronously and returns the number of
// sessions closed.
func (r *SessionReaper) SweepNow() int {
	return r.sweep()
}

func (r *SessionReaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

func (r *SessionReaper) sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	now := r.clock.Now()
	reaped := 0
	for _, s := range r.binding.sessions.list() {
		if now.Sub(s.LastUsed()) >= r.ttl {
			_ = s.Close()
			reaped++
		}
	}

	r.mu.Lock()
	r.lastSweep = now
	r.totalSweeps++
	r.totalReaped += int64(reaped)
	r.mu.Unlock()

	if reaped > 0 && r.logger != nil {
		r.logger.Debug("idle sessions reaped",
			"device", r.binding.Name(), "count", reaped, "ttl", r.ttl.String())
	}
	return reaped
}
