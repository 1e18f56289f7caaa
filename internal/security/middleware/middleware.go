package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/librarydesk/internal/security/audit"
	"github.com/aryan0dhankhar/librarydesk/internal/security/auth"
	"github.com/aryan0dhankhar/librarydesk/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// Error messages written by the security chain
const (
	MsgUnauthorized = "Invalid or expired JWT"
	MsgForbidden    = "Forbidden"
	MsgRateLimited  = "Too many requests. Please slow down."
)

var publicPaths = map[string]bool{
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
}

// IsPublic reports whether path is served without a token
func IsPublic(path string) bool {
	return publicPaths[path]
}

func isAuthEndpoint(path string) bool {
	return path == "/api/auth/login" || path == "/api/auth/register"
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var tokenString string
			var err error
			if strings.HasPrefix(r.URL.Path, "/ws/") && r.URL.Query().Get("token") != "" {
				// browsers cannot set headers on a websocket upgrade
				tokenString = r.URL.Query().Get("token")
			} else {
				tokenString, err = auth.ExtractToken(r.Header.Get("Authorization"))
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("rejected token", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates /api/admin and /ws/admin to ADMIN and /api/user to USER
func RequireRole(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var want domain.Role
			switch {
			case strings.HasPrefix(r.URL.Path, "/api/admin/"), strings.HasPrefix(r.URL.Path, "/ws/admin/"):
				want = domain.RoleAdmin
			case strings.HasPrefix(r.URL.Path, "/api/user/"):
				want = domain.RoleUser
			default:
				next.ServeHTTP(w, r)
				return
			}

			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}
			if domain.Role(claims.Role) != want {
				auditLog.LogDenied(r.Context(), strconv.FormatInt(claims.UserID, 10), "role "+claims.Role+" on "+r.URL.Path)
				writeError(w, http.StatusForbidden, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits callers per user id, and auth endpoints per
// client IP with the stricter authPerMinute.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, perMinute, authPerMinute int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			scope, key, limit := "user", "", perMinute
			if isAuthEndpoint(r.URL.Path) {
				scope, key, limit = "auth", "ip:"+ClientIP(r), authPerMinute
			} else if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = "user:" + strconv.FormatInt(claims.UserID, 10)
			}

			if !limiter.Allow(r.Context(), key, limit, time.Minute) {
				metrics.ObserveRateLimited(scope)
				log.Warn("rate limit exceeded", slog.String("scope", scope), slog.String("key", key))
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, MsgRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every state-changing admin request
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodOptions && strings.HasPrefix(r.URL.Path, "/api/admin/") {
				userID := ""
				if claims := GetClaimsFromContext(r.Context()); claims != nil {
					userID = strconv.FormatInt(claims.UserID, 10)
				}
				auditLog.LogAction(r.Context(), userID, strings.ToLower(r.Method), "api", r.URL.Path, "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

// WithClaims stores claims the way JWTMiddleware does
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey{}, claims)
}

// ClientIP prefers the first X-Forwarded-For hop and falls back to RemoteAddr
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(errorBody{Success: false, Message: msg})
}
