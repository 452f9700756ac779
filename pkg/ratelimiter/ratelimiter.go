package ratelimiter

import (
	"sync"
	"time"
)

// Policy is the budget for one namespace: at most Limit hits per sliding Window
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision describes the outcome of a single hit
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until the oldest counted hit leaves the window.
	// It is zero when the hit was allowed.
	RetryAfter time.Duration
}

// Limiter is an in-memory sliding-window rate limiter keyed by namespace and key.
// Namespaces without a policy are denied.
//
//	rl := ratelimiter.New()
//	rl.SetPolicy("api", 120, time.Minute)
//	if d := rl.Take("api", userID); !d.Allowed { ... }
type Limiter struct {
	mu       sync.Mutex
	hits     map[string][]time.Time
	policies map[string]Policy
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// New creates a limiter and starts the background goroutine that drops idle keys
func New() *Limiter {
	rl := &Limiter{
		hits:     make(map[string][]time.Time),
		policies: make(map[string]Policy),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.janitor(time.Minute)
	return rl
}

// SetPolicy configures the budget of a namespace
func (rl *Limiter) SetPolicy(namespace string, limit int, window time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.policies[namespace] = Policy{Limit: limit, Window: window}
}

// Take records a hit for namespace:key when the budget allows it
func (rl *Limiter) Take(namespace, key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok || policy.Limit <= 0 {
		return Decision{Allowed: false}
	}

	now := rl.now()
	id := namespace + ":" + key
	hits := prune(rl.hits[id], now.Add(-policy.Window))

	if len(hits) >= policy.Limit {
		rl.hits[id] = hits
		return Decision{
			Allowed:    false,
			Limit:      policy.Limit,
			Remaining:  0,
			RetryAfter: hits[0].Add(policy.Window).Sub(now),
		}
	}

	hits = append(hits, now)
	rl.hits[id] = hits
	return Decision{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - len(hits),
	}
}

// Allow is Take reduced to its verdict
func (rl *Limiter) Allow(namespace, key string) bool {
	return rl.Take(namespace, key).Allowed
}

// Reset forgets every hit recorded for namespace:key
func (rl *Limiter) Reset(namespace, key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.hits, namespace+":"+key)
}

// Stop ends the background cleanup. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// prune drops hits at or before cutoff; hits are kept in ascending order
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

func (rl *Limiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *Limiter) dropIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for namespace, policy := range rl.policies {
		prefix := namespace + ":"
		for id, hits := range rl.hits {
			if len(id) < len(prefix) || id[:len(prefix)] != prefix {
				continue
			}
			if len(prune(hits, now.Add(-policy.Window))) == 0 {
				delete(rl.hits, id)
			}
		}
	}
}
