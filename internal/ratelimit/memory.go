package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps one counter per key in process. A key's window opens on
// its first request and resets once the window length has passed.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter starts a limiter that drops expired windows every cleanupInterval.
func NewMemoryLimiter(limit int, windowLen, cleanupInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:   limit,
		window:  windowLen,
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.cleanupLoop(cleanupInterval)
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++

	return decide(w.count, l.limit, w.start.Add(l.window)), nil
}

// Cleanup removes windows that have fully elapsed and returns how many were dropped.
func (l *MemoryLimiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Keys returns the number of tracked keys.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *MemoryLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
	return nil
}

func (l *MemoryLimiter) cleanupLoop(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
