package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/openhexmap/internal/config"
)

// KeyRateLimiter counts failed API key attempts per client IP and locks an
// IP out with exponential backoff once it reaches the attempt limit.
type KeyRateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*failureRecord
	maxAttempts int
	lockout     time.Duration
	maxLockout  time.Duration
	now         func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

type failureRecord struct {
	failures    int
	lockouts    int
	lockedUntil time.Time
	lastFailure time.Time
}

// NewKeyRateLimiter creates a limiter and starts its sweeper. Call Stop to
// release it.
func NewKeyRateLimiter(cfg config.RateLimitConfig) *KeyRateLimiter {
	rl := &KeyRateLimiter{
		clients:     make(map[string]*failureRecord),
		maxAttempts: cfg.MaxAttempts,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		now:         time.Now,
		sweepEvery:  5 * time.Minute,
		stop:        make(chan struct{}),
	}

	if rl.maxAttempts <= 0 {
		rl.maxAttempts = 5
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout < rl.lockout {
		rl.maxLockout = 10 * rl.lockout
	}

	go rl.sweepLoop()
	return rl
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *KeyRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Locked reports whether ip is locked out and for how much longer.
func (rl *KeyRateLimiter) Locked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.clients[ip]
	if !ok {
		return false, 0
	}
	if now := rl.now(); now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed attempt. It returns true with the lockout
// length when this failure locks the IP out.
func (rl *KeyRateLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.clients[ip]
	if !ok {
		rec = &failureRecord{}
		rl.clients[ip] = rec
	}

	now := rl.now()
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}

	rec.failures++
	rec.lastFailure = now
	if rec.failures < rl.maxAttempts {
		return false, 0
	}

	rec.lockouts++
	d := rl.lockout
	for i := 1; i < rec.lockouts && d < rl.maxLockout; i++ {
		d *= 2
	}
	if d > rl.maxLockout {
		d = rl.maxLockout
	}

	rec.lockedUntil = now.Add(d)
	rec.failures = 0
	return true, d
}

// RecordSuccess forgets the failure history of ip.
func (rl *KeyRateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, ip)
}

// Failures returns the failures counted toward the next lockout.
func (rl *KeyRateLimiter) Failures(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rec, ok := rl.clients[ip]; ok {
		return rec.failures
	}
	return 0
}

func (rl *KeyRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops records that have been unlocked for a while and have not
// failed since. Pending failures below the limit expire with them.
func (rl *KeyRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * time.Minute)
	for ip, rec := range rl.clients {
		if rec.lastFailure.Before(cutoff) && rec.lockedUntil.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}
