package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/airsight/airsight/internal/api/models"
)

// SecurityConfig tunes the security middleware.
type SecurityConfig struct {
	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds.
	// Zero omits the header.
	HSTSMaxAge int

	// RequireTLS rejects requests that reached the load balancer over plain
	// HTTP (REQUIRE_TLS=true).
	RequireTLS bool

	// PlainHTTPPrefixes are path prefixes exempt from RequireTLS, typically
	// the health endpoints hit directly by the platform.
	PlainHTTPPrefixes []string
}

// DefaultSecurityConfig sends a one year HSTS policy, leaves TLS enforcement
// off and exempts the ops health checks.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:        365 * 24 * 60 * 60,
		PlainHTTPPrefixes: []string{"/v1/ops/health", "/v1/ops/ready"},
	}
}

// Security sets the API's hardening headers and, when RequireTLS is set,
// enforces HTTPS using X-Forwarded-Proto.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			// Coordinates arrive as query parameters; the browser API is never needed.
			h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}

			if cfg.RequireTLS && !securedByProxy(r) && !exempt(r.URL.Path, cfg.PlainHTTPPrefixes) {
				models.NewProblem(models.ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, GetRequestID(r.Context())).
					WithDetail("use https to reach this endpoint").
					WithInstance(r.URL.Path).
					Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// securedByProxy treats a missing X-Forwarded-Proto as secure: the request
// did not come through the load balancer.
func securedByProxy(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	return proto == "" || strings.EqualFold(proto, "https")
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
