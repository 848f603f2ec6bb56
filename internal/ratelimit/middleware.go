package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/observability"
)

// WalletHeader identifies the caller's wallet when no address parameter is present.
const WalletHeader = "X-Wallet-Address"

// KeyFor builds the limiter key: caller identity joined with the request path.
// Identity is the address query parameter, then the wallet header, then the client IP.
func KeyFor(r *http.Request) string {
	id := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("address")))
	if id == "" {
		id = strings.ToLower(strings.TrimSpace(r.Header.Get(WalletHeader)))
	}
	if id == "" {
		id = clientIP(r)
	}
	return id + "|" + r.URL.Path
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds is the Retry-After header value, never below one.
func retryAfterSeconds(d Decision, now time.Time) int {
	secs := int(math.Ceil(d.RetryAfter(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Middleware rejects requests over the limit with 429. Limiter errors let the
// request through.
func Middleware(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Allow(r.Context(), KeyFor(r))
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				observability.RecordRateLimited(route)

				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(d, time.Now())))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
