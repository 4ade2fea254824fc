package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/health"
	"github.com/sandeepkv93/product-catalog-service/internal/http/handler"
	"github.com/sandeepkv93/product-catalog-service/internal/http/response"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
	servicegomock "github.com/sandeepkv93/product-catalog-service/internal/service/gomock"
)

type staticChecker struct{ res health.CheckResult }

func (s staticChecker) Check(context.Context) health.CheckResult { return s.res }

func newRouterForTest(t *testing.T, svc service.ProductService, status service.IngestionStatusReader, checkers ...health.Checker) http.Handler {
	t.Helper()
	return NewRouter(Dependencies{
		ProductHandler:   handler.NewProductHandler(svc),
		IngestionHandler: handler.NewIngestionHandler(status),
		Readiness:        health.NewProbeRunner(time.Second, 0, checkers...),
		CORSOrigins:      []string{"http://localhost:3000"},
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestRouterServesProductRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	status := servicegomock.NewMockIngestionStatusReader(ctrl)
	h := newRouterForTest(t, svc, status)

	p := domain.Product{ID: 4, Title: "Red Lipstick", SKU: "O5IF1NTA", Price: decimal.RequireFromString("12.99")}
	svc.EXPECT().FindByID(gomock.Any(), uint(4)).Return(&p, nil)
	svc.EXPECT().SortByPrice(gomock.Any(), "desc").Return([]domain.Product{p}, nil)
	svc.EXPECT().Categories(gomock.Any()).Return([]string{"beauty"}, nil)
	status.EXPECT().Status().Return(service.IngestionStatus{State: service.IngestionRunning})

	for _, target := range []string{
		"/api/v1/products/4",
		"/api/v1/products/sorted?direction=desc",
		"/api/v1/products/categories",
		"/api/v1/products/ingestion",
	} {
		if rr := do(h, http.MethodGet, target); rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%s", target, rr.Code, rr.Body.String())
		}
	}
}

func TestRouterUnknownRouteAndMethodUseErrorBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newRouterForTest(t, servicegomock.NewMockProductService(ctrl), servicegomock.NewMockIngestionStatusReader(ctrl))

	for _, tc := range []struct {
		method, target string
		status         int
	}{
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/products/categories", http.StatusMethodNotAllowed},
	} {
		rr := do(h, tc.method, tc.target)
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.target, tc.status, rr.Code)
		}
		var body response.ErrorBody
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body.Status != tc.status || body.Timestamp.IsZero() {
			t.Fatalf("unexpected error body %+v", body)
		}
	}
}

func TestRouterHealthEndpoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	status := servicegomock.NewMockIngestionStatusReader(ctrl)

	healthy := newRouterForTest(t, svc, status, staticChecker{health.CheckResult{Name: "db", Healthy: true}})
	if rr := do(healthy, http.MethodGet, "/health/live"); rr.Code != http.StatusOK {
		t.Fatalf("expected live 200, got %d", rr.Code)
	}
	if rr := do(healthy, http.MethodGet, "/health/ready"); rr.Code != http.StatusOK {
		t.Fatalf("expected ready 200, got %d", rr.Code)
	}

	unhealthy := newRouterForTest(t, svc, status, staticChecker{health.CheckResult{Name: "db", Healthy: false, Error: "down"}})
	if rr := do(unhealthy, http.MethodGet, "/health/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503, got %d", rr.Code)
	}
}

func TestRouterRecoversPanicsWithErrorBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockProductService(ctrl)
	svc.EXPECT().Categories(gomock.Any()).DoAndReturn(func(context.Context) ([]string, error) {
		panic("boom")
	})
	h := newRouterForTest(t, svc, servicegomock.NewMockIngestionStatusReader(ctrl))

	rr := do(h, http.MethodGet, "/api/v1/products/categories")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body response.ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Status != http.StatusInternalServerError {
		t.Fatalf("expected structured 500 body, got %s err=%v", rr.Body.String(), err)
	}
}

func TestRouterAnswersCORSPreflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newRouterForTest(t, servicegomock.NewMockProductService(ctrl), servicegomock.NewMockIngestionStatusReader(ctrl))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing allow-origin header: %v", rr.Header())
	}
}
