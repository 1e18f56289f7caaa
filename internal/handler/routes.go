package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/librarydesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/librarydesk/internal/security/audit"
	"github.com/aryan0dhankhar/librarydesk/internal/security/auth"
	"github.com/aryan0dhankhar/librarydesk/internal/security/middleware"
	"github.com/aryan0dhankhar/librarydesk/internal/security/ratelimit"
)

// Router holds everything needed to serve the API
type Router struct {
	Auth     *AuthHandler
	Books    *BookHandler
	Borrow   *BorrowHandler
	Reports  *ReportHandler
	Health   *HealthHandler
	Activity *ActivityHub

	Tokens             *auth.TokenManager
	Limiter            ratelimit.RateLimiter
	RateLimitPerMinute int
	AuthRatePerMinute  int
	Audit              *audit.Logger
	Logger             *slog.Logger
}

// Handler registers the routes and wraps them in the security chain:
// metrics -> sanitize -> JWT -> role gate -> rate limit -> audit -> content type.
func (rt *Router) Handler() http.Handler {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.HandleFunc("GET /readyz", rt.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", rt.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", rt.Auth.Login)
	mux.HandleFunc("GET /api/auth/me", rt.Auth.Me)

	mux.HandleFunc("POST /api/admin/books/add", rt.Books.Add)
	mux.HandleFunc("PUT /api/admin/books/{id}", rt.Books.Update)
	mux.HandleFunc("DELETE /api/admin/books/delete/{id}", rt.Books.Delete)
	mux.HandleFunc("GET /api/admin/books", rt.Books.ListAll)
	mux.HandleFunc("GET /api/admin/borrow-records", rt.Reports.Records)
	mux.HandleFunc("GET /api/admin/reports/monthly", rt.Reports.Monthly)

	mux.HandleFunc("GET /api/user/books", rt.Books.ListAvailable)
	mux.HandleFunc("POST /api/user/borrow/book/{bookId}", rt.Borrow.Borrow)
	mux.HandleFunc("POST /api/user/borrow/return", rt.Borrow.Return)
	mux.HandleFunc("GET /api/user/borrow/history", rt.Borrow.History)

	if rt.Activity != nil {
		mux.Handle("GET /ws/admin/activity", rt.Activity)
	}

	var h http.Handler = mux
	h = middleware.ValidateJSONContentType(rt.Logger)(h)
	h = middleware.AuditMiddleware(rt.Audit)(h)
	h = middleware.RateLimitMiddleware(rt.Limiter, rt.RateLimitPerMinute, rt.AuthRatePerMinute, rt.Logger)(h)
	h = middleware.RequireRole(rt.Audit)(h)
	h = middleware.JWTMiddleware(rt.Tokens, rt.Logger)(h)
	h = middleware.SanitizeInputs(rt.Logger)(h)
	return metrics.HTTPMetricsMiddleware(h)
}
