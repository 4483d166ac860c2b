package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ipLimiter is a fixed-window per-IP counter. Windows reset lazily on the
// next request, and a shared purge goroutine drops idle IPs.
type ipLimiter struct {
	limit   int
	window  time.Duration
	message string

	mu     sync.Mutex
	counts map[string]int
	resets map[string]time.Time
}

func newIPLimiter(limit int, window time.Duration, message string) *ipLimiter {
	l := &ipLimiter{
		limit:   limit,
		window:  window,
		message: message,
		counts:  make(map[string]int),
		resets:  make(map[string]time.Time),
	}
	registerForPurge(l)
	return l
}

func (l *ipLimiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reset, ok := l.resets[ip]
	if !ok || now.After(reset) {
		reset = now.Add(l.window)
		l.resets[ip] = reset
		l.counts[ip] = 0
	}
	l.counts[ip]++
	return l.counts[ip] <= l.limit, reset
}

func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	purged := 0
	for ip, reset := range l.resets {
		if now.After(reset) {
			delete(l.resets, ip)
			delete(l.counts, ip)
			purged++
		}
	}
	return purged
}

func (l *ipLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, reset := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", reset.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter caps PIN attempts at 20 per minute per IP. PINs are
// short, so brute force past the limiter has to be slow.
func LoginRateLimiter() gin.HandlerFunc {
	return newIPLimiter(20, time.Minute, "too many login attempts, retry in a minute").handler()
}

// RateLimiter caps all API traffic from one IP within the window.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newIPLimiter(limit, window, "too many requests, retry shortly").handler()
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

var (
	purgeMu      sync.Mutex
	purgeTargets []*ipLimiter
	purgeStarted bool
)

func registerForPurge(l *ipLimiter) {
	purgeMu.Lock()
	defer purgeMu.Unlock()
	purgeTargets = append(purgeTargets, l)
	if !purgeStarted {
		purgeStarted = true
		go purgeExpiredEntries()
	}
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purgeMu.Lock()
		targets := make([]*ipLimiter, len(purgeTargets))
		copy(targets, purgeTargets)
		purgeMu.Unlock()

		total := 0
		for _, l := range targets {
			total += l.purge(now)
		}
		if total > 0 {
			log.Debug().Int("entries_purged", total).Msg("rate limiter maps purged")
		}
	}
}
