package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

type upsertProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	UnitPrice   int64  `json:"unitPrice"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"imageUrl"`
	MinQuantity int    `json:"minQuantity"`
	InStock     bool   `json:"inStock"`
}

type adminProductPayload struct {
	ID          string `json:"id"`
	SKU         string `json:"sku,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	UnitPrice   int64  `json:"unitPrice"`
	Currency    string `json:"currency,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	MinQuantity int    `json:"minQuantity,omitempty"`
	InStock     bool   `json:"inStock"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type upsertPricingTierRequest struct {
	Name            string `json:"name"`
	DiscountPercent int    `json:"discountPercent"`
	Default         bool   `json:"default"`
}

type pricingTierPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DiscountPercent int    `json:"discountPercent"`
	Default         bool   `json:"default"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

type upsertShippingOptionRequest struct {
	Name              string `json:"name"`
	Carrier           string `json:"carrier"`
	Price             int64  `json:"price"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	Active            bool   `json:"active"`
}

type adminShippingOptionPayload struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Carrier           string `json:"carrier"`
	Price             int64  `json:"price"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	Active            bool   `json:"active"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

func buildAdminProductPayload(product services.Product) adminProductPayload {
	return adminProductPayload{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		UnitPrice:   product.UnitPrice,
		Currency:    product.Currency,
		ImageURL:    product.ImageURL,
		MinQuantity: product.MinQuantity,
		InStock:     product.InStock,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

func buildPricingTierPayload(tier services.PricingTier) pricingTierPayload {
	return pricingTierPayload{
		ID:              tier.ID,
		Name:            tier.Name,
		DiscountPercent: tier.DiscountPercent,
		Default:         tier.Default,
		CreatedAt:       formatTime(tier.CreatedAt),
		UpdatedAt:       formatTime(tier.UpdatedAt),
	}
}

func buildAdminShippingOptionPayload(option services.ShippingOption) adminShippingOptionPayload {
	return adminShippingOptionPayload{
		ID:                option.ID,
		Name:              option.Name,
		Carrier:           string(option.Carrier),
		Price:             option.Price,
		EstimatedDelivery: option.EstimatedDelivery,
		Active:            option.Active,
		CreatedAt:         formatTime(option.CreatedAt),
		UpdatedAt:         formatTime(option.UpdatedAt),
	}
}

func (h *AdminHandlers) requireCatalog(w http.ResponseWriter, r *http.Request) bool {
	if h.catalog != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	return false
}

func (h *AdminHandlers) upsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}

	var req upsertProductRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.UpsertProduct(ctx, domain.Product{
		ID:          chi.URLParam(r, "productID"),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice,
		Currency:    req.Currency,
		ImageURL:    req.ImageURL,
		MinQuantity: req.MinQuantity,
		InStock:     req.InStock,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildAdminProductPayload(product))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}
	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

func (h *AdminHandlers) listPricingTiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}

	tiers, err := h.catalog.ListPricingTiers(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]pricingTierPayload, 0, len(tiers))
	for _, tier := range tiers {
		payload = append(payload, buildPricingTierPayload(tier))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"pricingTiers": payload})
}

func (h *AdminHandlers) upsertPricingTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}

	var req upsertPricingTierRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	tier, err := h.catalog.UpsertPricingTier(ctx, domain.PricingTier{
		ID:              chi.URLParam(r, "tierID"),
		Name:            req.Name,
		DiscountPercent: req.DiscountPercent,
		Default:         req.Default,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildPricingTierPayload(tier))
}

func (h *AdminHandlers) deletePricingTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}
	if err := h.catalog.DeletePricingTier(ctx, chi.URLParam(r, "tierID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

func (h *AdminHandlers) listAdminShippingOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}

	options, err := h.catalog.ListShippingOptions(ctx, false)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]adminShippingOptionPayload, 0, len(options))
	for _, option := range options {
		payload = append(payload, buildAdminShippingOptionPayload(option))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"shippingOptions": payload})
}

func (h *AdminHandlers) upsertShippingOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}

	var req upsertShippingOptionRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	option, err := h.catalog.UpsertShippingOption(ctx, domain.ShippingOption{
		ID:                chi.URLParam(r, "optionID"),
		Name:              req.Name,
		Carrier:           domain.Carrier(req.Carrier),
		Price:             req.Price,
		EstimatedDelivery: req.EstimatedDelivery,
		Active:            req.Active,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildAdminShippingOptionPayload(option))
}

func (h *AdminHandlers) deleteShippingOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCatalog(w, r) {
		return
	}
	if err := h.catalog.DeleteShippingOption(ctx, chi.URLParam(r, "optionID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}
