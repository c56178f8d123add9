package server

import (
	"sync"
	"testing"

	"github.com/lawnchairsociety/openhexmap/internal/config"
)

func TestConnLimiter_PerIPLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100})

	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("first session should be allowed")
	}
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("second session should be allowed")
	}
	if limiter.TryAcquire("192.168.1.1") {
		t.Error("third session from same IP should be rejected")
	}
	if !limiter.TryAcquire("192.168.1.2") {
		t.Error("session from a different IP should be allowed")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("session should be allowed after release")
	}
}

func TestConnLimiter_TotalLimit(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 3})

	for i, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !limiter.TryAcquire(ip) {
			t.Fatalf("session %d should be allowed", i+1)
		}
	}
	if limiter.TryAcquire("10.0.0.4") {
		t.Error("session over the total limit should be rejected")
	}

	sessions, clients := limiter.Stats()
	if sessions != 3 || clients != 3 {
		t.Errorf("Stats() = %d sessions, %d clients; want 3, 3", sessions, clients)
	}
}

func TestConnLimiter_Unlimited(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{})
	for i := 0; i < 50; i++ {
		if !limiter.TryAcquire("10.0.0.1") {
			t.Fatalf("session %d rejected with no limits", i)
		}
	}
	if got := limiter.Count("10.0.0.1"); got != 50 {
		t.Errorf("Count = %d, want 50", got)
	}
}

func TestConnLimiter_ReleaseUnknownIP(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 1})
	limiter.Release("10.0.0.9")

	sessions, clients := limiter.Stats()
	if sessions != 0 || clients != 0 {
		t.Errorf("Stats() after stray release = %d, %d; want 0, 0", sessions, clients)
	}
	if !limiter.TryAcquire("10.0.0.1") {
		t.Error("stray release must not consume capacity")
	}
}

func TestConnLimiter_Concurrent(t *testing.T) {
	limiter := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1000, MaxTotal: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAcquire("10.0.0.1") {
				limiter.Release("10.0.0.1")
			}
		}()
	}
	wg.Wait()

	if sessions, _ := limiter.Stats(); sessions != 0 {
		t.Errorf("sessions = %d after balanced acquire/release, want 0", sessions)
	}
}
