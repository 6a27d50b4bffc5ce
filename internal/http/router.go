// Package httpapi assembles the public HTTP surface: the middleware chain,
// the per-context handlers, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authorityhandler "custodia/internal/authority/handler"
	dossierhandler "custodia/internal/dossier/handler"
	fthandler "custodia/internal/forcedtransfer/handler"
	ledgerhandler "custodia/internal/ledger/handler"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
)

// Handlers carries the per-context handlers the router mounts.
type Handlers struct {
	ForcedTransfers *fthandler.Handler
	Ledger          *ledgerhandler.Handler
	Dossiers        *dossierhandler.Handler
	Authority       *authorityhandler.Handler
}

// NewRouter wires all public endpoints. Operational endpoints (/healthz,
// /metrics) stay outside the auth boundary; everything else requires a valid
// access token.
func NewRouter(
	h Handlers,
	jwtValidator middleware.JWTValidator,
	m *metrics.Metrics,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtValidator, logger))
		r.Route("/forced-transfers", h.ForcedTransfers.Register)
		r.Route("/ledger", h.Ledger.Register)
		r.Route("/dossiers", h.Dossiers.Register)
		r.Route("/authority", h.Authority.Register)
	})

	return r
}
