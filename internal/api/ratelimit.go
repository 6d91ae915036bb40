package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/metrics"
)

// authRateLimit is a huma operation middleware throttling credential
// endpoints per client IP. Returns 429 with Retry-After when exceeded.
func (s *Server) authRateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.authRateLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP"), ctx.RemoteAddr())
	if s.authRateLimiter.Allow(key) {
		next(ctx)
		return
	}

	metrics.RecordRateLimitHit("auth")
	s.logger.Warn("rate limit exceeded",
		"ip", key,
		"path", ctx.URL().Path,
	)

	wait := s.authRateLimiter.RetryAfter(key)
	secs := int(wait.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	ctx.SetHeader("Retry-After", strconv.Itoa(secs))
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}

// clientIP picks the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address without its port.
func clientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
