package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNewRouterMountsHealthEndpoints(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected %s to return 200, got %d", path, rr.Code)
		}
	}
}

func TestNewRouterUnknownRouteReturnsJSON404(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON error response, got %q", ct)
	}
}

func TestNewRouterUnconfiguredGroupReturnsNotImplemented(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rr.Code)
	}
}

func TestNewRouterMountsConfiguredGroups(t *testing.T) {
	router := NewRouter(
		WithPublicRoutes(func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/ping", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestNewRouterCheckoutMiddlewareScopedToCheckout(t *testing.T) {
	var sawHeader bool
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawHeader = true
			w.Header().Set("X-Guarded", "1")
			next.ServeHTTP(w, r)
		})
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	router := NewRouter(
		WithCheckoutRoutes(func(r chi.Router) {
			r.Post("/", ok)
		}),
		WithPublicRoutes(func(r chi.Router) {
			r.Get("/ping", ok)
		}),
		WithCheckoutMiddlewares(guard),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !sawHeader || rr.Header().Get("X-Guarded") != "1" {
		t.Fatalf("expected checkout middleware to run")
	}

	sawHeader = false
	req = httptest.NewRequest(http.MethodGet, "/api/v1/public/ping", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if sawHeader {
		t.Fatalf("checkout middleware must not apply to other groups")
	}
}
