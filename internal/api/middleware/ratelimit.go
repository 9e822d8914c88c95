package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/airsight/airsight/internal/api/models"
)

// RateLimit is a named request budget over a sliding window.
type RateLimit struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Rate limit tiers used by the router.
var (
	// ReadLimit covers cheap reads served from cache or pure computation.
	ReadLimit = RateLimit{Name: "read", Requests: 100, Window: time.Minute}

	// UpstreamLimit covers requests that fan out to a paid upstream such as
	// geocoding or the two-source export.
	UpstreamLimit = RateLimit{Name: "upstream", Requests: 30, Window: time.Minute}

	// TokenLimit covers token issuance.
	TokenLimit = RateLimit{Name: "token", Requests: 10, Window: time.Minute}
)

// PerClient limits by client IP. RealIP must run earlier in the chain for
// proxied traffic to be keyed correctly.
func (l RateLimit) PerClient() func(http.Handler) http.Handler {
	return l.limiter(httprate.KeyByRealIP)
}

// PerUser limits authenticated requests by user ID and anything else by IP.
// It must run after Auth.
func (l RateLimit) PerUser() func(http.Handler) http.Handler {
	return l.limiter(userOrClientKey)
}

func (l RateLimit) limiter(key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(l.Requests, l.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(l.exceeded),
	)
}

func userOrClientKey(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// exceeded writes a 429 problem. Retry-After falls back to the full window
// when httprate has not set it.
func (l RateLimit) exceeded(w http.ResponseWriter, r *http.Request) {
	retryAfter := w.Header().Get("Retry-After")
	if retryAfter == "" {
		retryAfter = strconv.Itoa(int(l.Window.Seconds()))
		w.Header().Set("Retry-After", retryAfter)
	}
	models.NewTooManyRequests(GetRequestID(r.Context()),
		l.Name+" rate limit exceeded, retry in "+retryAfter+"s").
		WithInstance(r.URL.Path).
		Write(w)
}
