package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/vetclinic/internal/http/errors"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	"github.com/dropDatabas3/vetclinic/internal/rate"
)

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithRateLimit limita por IP. Pensado para el endpoint de login: acota
// fuerza bruta online sin reemplazar el lockout por cuenta.
func WithRateLimit(limiter rate.Limiter) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientIP(r)+"|"+r.URL.Path)
			if err != nil {
				// Limiter caído: dejamos pasar, el lockout por cuenta sigue activo.
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				errors.WriteError(w, errors.ErrTooManyRequests.WithDetail(
					fmt.Sprintf("retry in %ds", int(res.RetryAfter.Seconds()))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
