package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards credential-bearing endpoints such as login and token
// refresh.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest checks the limiter under a "scope:ip" key so each endpoint
// throttles independently. A nil limiter disables throttling.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}

	key := clientIP(r)
	if scope != "" {
		key = scope + ":" + key
	}
	return limiter.Allow(key)
}

func clientIP(r *http.Request) string {
	// Trust the first hop recorded by the reverse proxy when present.
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
