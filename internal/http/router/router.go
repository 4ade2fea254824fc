package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/product-catalog-service/internal/health"
	"github.com/sandeepkv93/product-catalog-service/internal/http/handler"
	"github.com/sandeepkv93/product-catalog-service/internal/http/middleware"
	"github.com/sandeepkv93/product-catalog-service/internal/http/response"
)

const defaultBodyLimit = 1 << 20

type Dependencies struct {
	ProductHandler   *handler.ProductHandler
	IngestionHandler *handler.IngestionHandler
	Readiness        *health.ProbeRunner
	CORSOrigins      []string
	BodyLimitBytes   int64
	Logger           *slog.Logger
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	bodyLimit := dep.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(dep.Logger))
	r.Use(middleware.StructuredRequestLogger(dep.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(bodyLimit))
	r.NotFound(middleware.NotFound)
	r.MethodNotAllowed(middleware.MethodNotAllowed)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if results == nil {
			results = []health.CheckResult{}
		}
		status, state := http.StatusOK, "ready"
		if !ready {
			status, state = http.StatusServiceUnavailable, "unready"
		}
		response.JSON(w, r, status, map[string]any{"status": state, "checks": results})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", dep.ProductHandler.List)
		r.Get("/sorted", dep.ProductHandler.SortedByPrice)
		r.Get("/categories", dep.ProductHandler.Categories)
		r.Get("/sku/{sku}", dep.ProductHandler.GetBySKU)
		if dep.IngestionHandler != nil {
			r.Get("/ingestion", dep.IngestionHandler.Status)
		}
		r.Get("/{id}", dep.ProductHandler.GetByID)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
