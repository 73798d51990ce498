package folio

import (
	"sync"
	"time"
)

// IPLimiter caps accepted comments per client IP within a sliding window.
// It complements the per-browser cookie cooldown, which a client can dodge
// by dropping cookies.
type IPLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewIPLimiter creates an IPLimiter that allows max hits per window.
// Call Stop to end its cleanup goroutine.
func NewIPLimiter(max int, window time.Duration) *IPLimiter {
	l := &IPLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip := range l.hits {
				l.prune(ip)
			}
			l.mu.Unlock()
		}
	}
}

// prune drops hits older than the window. Callers hold l.mu.
func (l *IPLimiter) prune(ip string) int {
	cutoff := l.now().Add(-l.window)
	hits := l.hits[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, ip)
		return 0
	}
	l.hits[ip] = kept
	return len(kept)
}

// Reserve records a hit for ip and reports true if ip was under the limit.
// Over the limit it records nothing and reports false.
func (l *IPLimiter) Reserve(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prune(ip) >= l.max {
		return false
	}
	l.hits[ip] = append(l.hits[ip], l.now())
	return true
}

// Release drops the newest hit for ip, undoing a Reserve whose comment was
// not stored.
func (l *IPLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hits := l.hits[ip]
	switch len(hits) {
	case 0:
	case 1:
		delete(l.hits, ip)
	default:
		l.hits[ip] = hits[:len(hits)-1]
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *IPLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
