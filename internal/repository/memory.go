package repository

import (
	"context"
	"sync"
	"time"
)

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// MemoryAttemptLimiter is the single-process counterpart of RedisAttemptLimiter.
type MemoryAttemptLimiter struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow
	now     func() time.Time
}

func NewMemoryAttemptLimiter() *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{
		windows: make(map[string]*attemptWindow),
		now:     time.Now,
	}
}

func (r *MemoryAttemptLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.windows[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &attemptWindow{expiresAt: now.Add(window)}
		r.windows[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Sweep drops expired windows.
func (r *MemoryAttemptLimiter) Sweep() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.windows {
		if !now.Before(entry.expiresAt) {
			delete(r.windows, key)
		}
	}
}
