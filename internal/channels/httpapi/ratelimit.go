package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedIPs caps limiter entries so rotating source addresses cannot
// exhaust memory.
const maxTrackedIPs = 4096

// ipLimiter applies a per-source-IP token bucket. rpm <= 0 disables limiting.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
	burst    int
}

func newIPLimiter(rpm, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rpm:      rpm,
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	if l.rpm <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxTrackedIPs {
			for k := range l.limiters {
				delete(l.limiters, k)
				break
			}
		}
		lim = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.burst)
		l.limiters[ip] = lim
	}
	return lim.Allow()
}
