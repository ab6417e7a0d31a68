package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/pagination"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

// PublicHandlers serves the catalog surfaces available to every storefront
// visitor. Prices are tier-adjusted when the caller is authenticated.
type PublicHandlers struct {
	catalog services.CatalogService
	pricing services.PricingService
}

// NewPublicHandlers constructs the public catalog handlers.
func NewPublicHandlers(catalog services.CatalogService, pricing services.PricingService) *PublicHandlers {
	return &PublicHandlers{catalog: catalog, pricing: pricing}
}

// Routes wires the public endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/shipping-options", h.listShippingOptions)
}

type productPayload struct {
	ID          string `json:"id"`
	SKU         string `json:"sku,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ListPrice   int64  `json:"listPrice"`
	YourPrice   int64  `json:"yourPrice"`
	Currency    string `json:"currency,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	MinQuantity int    `json:"minQuantity,omitempty"`
	InStock     bool   `json:"inStock"`
}

type productListResponse struct {
	Products      []productPayload `json:"products"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type shippingOptionPayload struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Carrier           string `json:"carrier"`
	Price             int64  `json:"price"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{
		DefaultPageSize: pagination.DefaultPageSize,
		MaxPageSize:     pagination.DefaultMaxPageSize,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	tier, err := h.resolveTier(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := services.ProductListQuery{
		Category:    strings.TrimSpace(r.URL.Query().Get("category")),
		InStockOnly: r.URL.Query().Get("inStock") == "true",
		Tier:        tier,
		Pagination: domain.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}

	page, err := h.catalog.ListProducts(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	resp := productListResponse{
		Products:      make([]productPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, item := range page.Items {
		resp.Products = append(resp.Products, buildProductPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	tier, err := h.resolveTier(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing is unavailable", http.StatusServiceUnavailable))
		return
	}

	priced, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"), tier)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(priced))
}

func (h *PublicHandlers) listShippingOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	options, err := h.catalog.ListShippingOptions(ctx, true)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]shippingOptionPayload, 0, len(options))
	for _, option := range options {
		payload = append(payload, shippingOptionPayload{
			ID:                option.ID,
			Name:              option.Name,
			Carrier:           string(option.Carrier),
			Price:             option.Price,
			EstimatedDelivery: option.EstimatedDelivery,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"shippingOptions": payload})
}

// resolveTier prices for the caller's tier when authenticated, and for the
// default tier otherwise.
func (h *PublicHandlers) resolveTier(ctx context.Context) (domain.PricingTier, error) {
	if h.pricing == nil {
		return domain.PricingTier{}, nil
	}
	uid := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		uid = identity.UID
	}
	return h.pricing.TierForUser(ctx, uid)
}

func buildProductPayload(priced services.PricedProduct) productPayload {
	product := priced.Product
	return productPayload{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		ListPrice:   product.UnitPrice,
		YourPrice:   priced.TieredPrice,
		Currency:    product.Currency,
		ImageURL:    product.ImageURL,
		MinQuantity: product.MinQuantity,
		InStock:     product.InStock,
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "record not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", "record has been modified; retry", http.StatusConflict))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "catalog request failed", http.StatusInternalServerError))
	}
}
