package throttle

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"little-lemon/internal/auth"
	"little-lemon/internal/httpx"
	"little-lemon/internal/logger"
)

// Rule is a request budget per window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Throttler enforces an anonymous rule keyed by client address and a user
// rule keyed by the authenticated user id.
type Throttler struct {
	limiter Limiter
	anon    Rule
	user    Rule
	logger  *logger.Logger
}

func New(limiter Limiter, anon, user Rule, log *logger.Logger) *Throttler {
	return &Throttler{
		limiter: limiter,
		anon:    anon,
		user:    user,
		logger:  log,
	}
}

// Anonymous limits requests without credentials by remote address. Mount
// it ahead of authentication; requests presenting credentials that fail
// verification are charged through RejectedCredentials.
func (t *Throttler) Anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}
		if t.allow(w, r, "anon:"+clientIP(r), t.anon) {
			next.ServeHTTP(w, r)
		}
	})
}

// RejectedCredentials charges a request whose Authorization header failed
// verification to the anonymous budget of its address. Requests without
// the header were already charged by Anonymous. It reports whether the
// caller should go on to answer 401.
func (t *Throttler) RejectedCredentials(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") == "" {
		return true
	}
	return t.allow(w, r, "anon:"+clientIP(r), t.anon)
}

// User limits requests by authenticated user. Mount it after
// authentication.
func (t *Throttler) User(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester, ok := auth.RequesterFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if t.allow(w, r, "user:"+strconv.FormatInt(requester.User.ID, 10), t.user) {
			next.ServeHTTP(w, r)
		}
	})
}

func (t *Throttler) allow(w http.ResponseWriter, r *http.Request, key string, rule Rule) bool {
	res, err := t.limiter.Allow(r.Context(), key, rule.Limit, rule.Window)
	if err != nil {
		// Fail open: a limiter outage must not take the API down.
		t.logger.Warn("throttle_unavailable", "Rate limiter failed, allowing request", logger.RequestID(r.Context()), map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return true
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
	if res.Allowed {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		return true
	}

	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
	t.logger.Info("throttled", "Request throttled", logger.RequestID(r.Context()), map[string]interface{}{
		"key": key,
	})
	httpx.WriteStatus(w, r, http.StatusTooManyRequests, "Request was throttled")
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
