// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns stay
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credtrust/internal/credential/models"
	"credtrust/internal/platform/health"
	"credtrust/internal/platform/metrics"
	"credtrust/internal/platform/middleware"
	dErrors "credtrust/pkg/domain-errors"
)

const timeFormat = time.RFC3339

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	JWTSigningKey []byte
	Credentials   *CredentialHandler
	DIDs          *DIDHandler
	Issuers       *IssuerHandler
	Cleanup       *CleanupHandler
	Health        *health.Handler
}

// NewRouter assembles the full route tree: public health and metrics,
// authenticated lifecycle routes, and the admin-gated subtree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(cfg.Metrics))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(cfg.JWTSigningKey, cfg.Logger))
		authed.Use(middleware.Device)

		cfg.Credentials.Register(authed)
		cfg.DIDs.Register(authed)
		cfg.Issuers.Register(authed)
		cfg.Cleanup.Register(authed)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			cfg.DIDs.RegisterAdmin(admin)
			cfg.Issuers.RegisterAdmin(admin)
			cfg.Cleanup.RegisterAdmin(admin)
		})
	})

	return r
}

// parseListFilter reads paging, filter and sort parameters off the query
// string. Unknown values surface as validation errors in the service.
func parseListFilter(r *http.Request) (*models.ListFilter, error) {
	q := r.URL.Query()
	filter := &models.ListFilter{}

	if v := q.Get("category"); v != "" {
		category := models.Category(v)
		filter.Category = &category
	}
	if v := q.Get("status"); v != "" {
		status := models.Status(v)
		filter.Status = &status
	}
	if v := q.Get("sort_by"); v != "" {
		switch models.SortField(v) {
		case models.SortByCreatedAt, models.SortByTitle, models.SortByVerifiedAt:
			filter.SortBy = models.SortField(v)
		default:
			return nil, dErrors.New(dErrors.CodeValidation, "unknown sort field")
		}
	}
	filter.SortDesc = q.Get("order") == "desc"

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}
