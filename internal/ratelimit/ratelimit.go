// Package ratelimit implements the per-(endpoint,identifier) limiter of
// component C9, grounded on the reference's
// src/rate_limiter/middleware.go (endpoint-key format, identifier
// fallback, fail-open semantics, X-RateLimit-* headers). Each key is a
// fixed-window counter: at most Rule.Limit requests per Rule.Window, with
// the count reset to zero when the window ends; there is no gradual token
// refill within a window. Unlike golang.org/x/time/rate.Limiter, a Store
// here reports how many requests remain and when the window resets, which
// the HTTP headers spec.md §6 requires depend on.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Scope distinguishes which identifier a rule is keyed on.
type Scope string

const (
	ScopeIP   Scope = "ip"
	ScopeUser Scope = "user"
)

// Rule configures one endpoint's limit: at most Limit requests per fixed
// Window, grounded on the reference's RateLimitRule dataclass.
type Rule struct {
	Limit  int
	Window time.Duration
	Scope  Scope
}

// Decision is what a Store returns for a single check-and-consume call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Store is the storage/algorithm abstraction a Limiter is built over —
// in-memory for a single instance, Redis-backed for many.
type Store interface {
	Allow(ctx context.Context, key string, rule Rule, now time.Time) (Decision, error)
}

// Limiter enforces Rules per endpoint key, grounded on the reference's
// RateLimiterService facade (endpoint-key lookup, per-identifier
// dispatch, fail-open on backend error).
type Limiter struct {
	store Store
	rules map[string]Rule
}

func New(store Store, rules map[string]Rule) *Limiter {
	return &Limiter{store: store, rules: rules}
}

// Key builds the composite bucket key for an endpoint/identifier pair.
func Key(endpoint, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, identifier)
}

// Check consumes one token for endpoint/identifier. When endpoint has no
// configured Rule, every request is allowed (unmetered endpoint) — this
// mirrors the reference's "no rule found -> skip enforcement" branch.
// Store errors fail open (spec.md §7: "rate-limiter backend failures are
// fail-open"): the request proceeds and Decision.Allowed is true.
func (l *Limiter) Check(ctx context.Context, endpoint, identifier string, now time.Time) (Decision, bool) {
	rule, ok := l.rules[endpoint]
	if !ok {
		return Decision{Allowed: true}, false
	}

	dec, err := l.store.Allow(ctx, Key(endpoint, identifier), rule, now)
	if err != nil {
		return Decision{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit}, true
	}
	return dec, true
}
