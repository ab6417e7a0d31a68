package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

func TestPublicHandlersListProductsAnonymous(t *testing.T) {
	var captured services.ProductListQuery
	catalog := &stubCatalogService{
		listProductsFunc: func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
			captured = query
			return domain.CursorPage[services.PricedProduct]{
				Items: []services.PricedProduct{
					{
						Product:     domain.Product{ID: "prod-1", Name: "Pea Protein 1kg", UnitPrice: 1000, Currency: "aud", InStock: true},
						TieredPrice: 1000,
					},
				},
				NextPageToken: "tok-2",
			}, nil
		},
	}
	pricing := &stubPricingService{
		tierFunc: func(ctx context.Context, userID string) (services.PricingTier, error) {
			if userID != "" {
				t.Fatalf("expected anonymous tier lookup, got %q", userID)
			}
			return services.PricingTier{}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/public", NewPublicHandlers(catalog, pricing).Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/products?category=protein&inStock=true&pageSize=20", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if captured.Category != "protein" || !captured.InStockOnly {
		t.Fatalf("unexpected query %+v", captured)
	}
	if captured.Pagination.PageSize != 20 {
		t.Fatalf("expected page size 20, got %d", captured.Pagination.PageSize)
	}

	var resp productListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(resp.Products))
	}
	if resp.Products[0].ListPrice != 1000 || resp.Products[0].YourPrice != 1000 {
		t.Fatalf("unexpected prices %+v", resp.Products[0])
	}
	if resp.NextPageToken != "tok-2" {
		t.Fatalf("expected next page token, got %q", resp.NextPageToken)
	}
}

func TestPublicHandlersListProductsTieredPricing(t *testing.T) {
	catalog := &stubCatalogService{
		listProductsFunc: func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
			if query.Tier.DiscountPercent != 15 {
				t.Fatalf("expected tier passed through, got %+v", query.Tier)
			}
			return domain.CursorPage[services.PricedProduct]{
				Items: []services.PricedProduct{
					{
						Product:     domain.Product{ID: "prod-1", Name: "Pea Protein 1kg", UnitPrice: 1000, InStock: true},
						TieredPrice: 850,
					},
				},
			}, nil
		},
	}
	pricing := &stubPricingService{
		tierFunc: func(ctx context.Context, userID string) (services.PricingTier, error) {
			if userID != "buyer-7" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return services.PricingTier{ID: "tier-gold", DiscountPercent: 15}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/public", NewPublicHandlers(catalog, pricing).Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/products", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "buyer-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp productListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Products[0].ListPrice != 1000 || resp.Products[0].YourPrice != 850 {
		t.Fatalf("expected discounted price, got %+v", resp.Products[0])
	}
}

func TestPublicHandlersGetProductNotFound(t *testing.T) {
	catalog := &stubCatalogService{
		getProductFunc: func(ctx context.Context, productID string, tier services.PricingTier) (services.PricedProduct, error) {
			return services.PricedProduct{}, services.ErrCatalogNotFound
		},
	}

	router := chi.NewRouter()
	router.Route("/public", NewPublicHandlers(catalog, &stubPricingService{}).Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/products/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestPublicHandlersListShippingOptions(t *testing.T) {
	catalog := &stubCatalogService{
		listShippingFunc: func(ctx context.Context, activeOnly bool) ([]services.ShippingOption, error) {
			if !activeOnly {
				t.Fatalf("expected active only listing")
			}
			return []services.ShippingOption{
				{ID: "ship-tnt", Name: "TNT Road", Carrier: domain.CarrierTNT, Price: 900, Active: true},
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/public", NewPublicHandlers(catalog, &stubPricingService{}).Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/shipping-options", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		ShippingOptions []shippingOptionPayload `json:"shippingOptions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.ShippingOptions) != 1 || resp.ShippingOptions[0].Carrier != "tnt" {
		t.Fatalf("unexpected options %+v", resp.ShippingOptions)
	}
}

func TestPublicHandlersCatalogUnavailable(t *testing.T) {
	catalog := &stubCatalogService{
		listProductsFunc: func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
			return domain.CursorPage[services.PricedProduct]{}, services.ErrCatalogUnavailable
		},
	}

	router := chi.NewRouter()
	router.Route("/public", NewPublicHandlers(catalog, &stubPricingService{}).Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

type stubCatalogService struct {
	listProductsFunc func(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error)
	getProductFunc   func(ctx context.Context, productID string, tier services.PricingTier) (services.PricedProduct, error)
	upsertProductFn  func(ctx context.Context, product services.Product) (services.Product, error)
	deleteProductFn  func(ctx context.Context, productID string) error
	listTiersFunc    func(ctx context.Context) ([]services.PricingTier, error)
	upsertTierFunc   func(ctx context.Context, tier services.PricingTier) (services.PricingTier, error)
	deleteTierFunc   func(ctx context.Context, tierID string) error
	listShippingFunc func(ctx context.Context, activeOnly bool) ([]services.ShippingOption, error)
	upsertShipFunc   func(ctx context.Context, option services.ShippingOption) (services.ShippingOption, error)
	deleteShipFunc   func(ctx context.Context, optionID string) error
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[services.PricedProduct], error) {
	if s.listProductsFunc != nil {
		return s.listProductsFunc(ctx, query)
	}
	return domain.CursorPage[services.PricedProduct]{}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string, tier services.PricingTier) (services.PricedProduct, error) {
	if s.getProductFunc != nil {
		return s.getProductFunc(ctx, productID, tier)
	}
	return services.PricedProduct{}, nil
}

func (s *stubCatalogService) UpsertProduct(ctx context.Context, product services.Product) (services.Product, error) {
	if s.upsertProductFn != nil {
		return s.upsertProductFn(ctx, product)
	}
	return product, nil
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s.deleteProductFn != nil {
		return s.deleteProductFn(ctx, productID)
	}
	return nil
}

func (s *stubCatalogService) ListPricingTiers(ctx context.Context) ([]services.PricingTier, error) {
	if s.listTiersFunc != nil {
		return s.listTiersFunc(ctx)
	}
	return nil, nil
}

func (s *stubCatalogService) UpsertPricingTier(ctx context.Context, tier services.PricingTier) (services.PricingTier, error) {
	if s.upsertTierFunc != nil {
		return s.upsertTierFunc(ctx, tier)
	}
	return tier, nil
}

func (s *stubCatalogService) DeletePricingTier(ctx context.Context, tierID string) error {
	if s.deleteTierFunc != nil {
		return s.deleteTierFunc(ctx, tierID)
	}
	return nil
}

func (s *stubCatalogService) ListShippingOptions(ctx context.Context, activeOnly bool) ([]services.ShippingOption, error) {
	if s.listShippingFunc != nil {
		return s.listShippingFunc(ctx, activeOnly)
	}
	return nil, nil
}

func (s *stubCatalogService) UpsertShippingOption(ctx context.Context, option services.ShippingOption) (services.ShippingOption, error) {
	if s.upsertShipFunc != nil {
		return s.upsertShipFunc(ctx, option)
	}
	return option, nil
}

func (s *stubCatalogService) DeleteShippingOption(ctx context.Context, optionID string) error {
	if s.deleteShipFunc != nil {
		return s.deleteShipFunc(ctx, optionID)
	}
	return nil
}

type stubPricingService struct {
	tierFunc func(ctx context.Context, userID string) (services.PricingTier, error)
}

func (s *stubPricingService) TierForUser(ctx context.Context, userID string) (services.PricingTier, error) {
	if s.tierFunc != nil {
		return s.tierFunc(ctx, userID)
	}
	return services.PricingTier{}, nil
}
