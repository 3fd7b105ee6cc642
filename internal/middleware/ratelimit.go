// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"linksaver/internal/apperr"
)

const rateKeyPrefix = "ratelimit:"

// RateLimiter limits requests per client IP. With a Valkey client the
// count is a fixed window shared by every server instance; without one,
// or while Valkey is failing, each process keeps its own sliding window.
type RateLimiter struct {
	limit  int
	window time.Duration
	client *redis.Client
	now    func() time.Time

	// trusted lists the proxies whose forwarding headers are believed.
	trusted []netip.Prefix

	mu   sync.Mutex
	hits map[string][]time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// RateLimitOption configures a RateLimiter.
type RateLimitOption func(*RateLimiter)

// WithValkey counts requests in Valkey. A nil client is ignored.
func WithValkey(client *redis.Client) RateLimitOption {
	return func(rl *RateLimiter) { rl.client = client }
}

// WithTrustedProxies makes the limiter key on the address a proxy reports
// in X-Forwarded-For or X-Real-IP, but only for requests whose socket peer
// is inside one of prefixes. Other requests are keyed on the peer itself.
func WithTrustedProxies(prefixes []netip.Prefix) RateLimitOption {
	return func(rl *RateLimiter) { rl.trusted = prefixes }
}

// NewRateLimiter creates a rate limiter that allows limit requests per
// window. It starts a goroutine that prunes idle in-memory entries; call
// Stop to end it.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimitOption) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.prune()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the pruning goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects clients over the limit with 429 and a Retry-After
// header. It guards the credential endpoints against password guessing.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(r.Context(), clientIP(r, rl.trusted))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retry)))
			writeError(w, http.StatusTooManyRequests, apperr.KindRateLimited, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow records a request from key and reports whether it is within the
// limit. When it is not, retry is how long until the next one would be.
func (rl *RateLimiter) allow(ctx context.Context, key string) (ok bool, retry time.Duration) {
	if rl.client != nil {
		ok, retry, err := rl.allowValkey(ctx, key)
		if err == nil {
			return ok, retry
		}
		slog.Warn("rate limit valkey error, using local window", "error", err)
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) allowValkey(ctx context.Context, key string) (bool, time.Duration, error) {
	slot := rl.now().UnixNano() / int64(rl.window)
	redisKey := rateKeyPrefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.ExpireNX(ctx, redisKey, rl.window)
		ttl = p.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if incr.Val() > int64(rl.limit) {
		return false, ttl.Val(), nil
	}
	return true, 0, nil
}

func (rl *RateLimiter) allowLocal(key string) (bool, time.Duration) {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.hits[key]
	drop := 0
	for drop < len(recent) && !recent[drop].After(cutoff) {
		drop++
	}
	recent = recent[drop:]

	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false, recent[0].Sub(cutoff)
	}
	rl.hits[key] = append(recent, now)
	return true, 0
}

// prune forgets clients with no request inside the window.
func (rl *RateLimiter) prune() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, recent := range rl.hits {
		if len(recent) == 0 || !recent[len(recent)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}

// retrySeconds rounds up so clients never retry early.
func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// clientIP returns the address requests are counted against. Forwarding
// headers are only read when the socket peer is a trusted proxy; then
// X-Forwarded-For is walked from the right and the first hop that is not
// itself a trusted proxy is the client.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !isTrusted(addr, trusted) {
		return peer
	}

	if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
		hops := strings.Split(strings.Join(values, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !isTrusted(hop, trusted) {
				return hop.Unmap().String()
			}
		}
	}

	if ip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return ip.Unmap().String()
	}
	return peer
}

// remoteHost strips the port from a RemoteAddr.
func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
