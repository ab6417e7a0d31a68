package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested record does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogConflict indicates the record could not be written due to a concurrent update.
var ErrCatalogConflict = errors.New("catalog service: conflict")

// ErrCatalogUnavailable indicates the backend cannot fulfil the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

const defaultProductPageSize = 50

// CatalogServiceDeps wires the persistence behind the catalog surfaces.
type CatalogServiceDeps struct {
	Products        repositories.ProductRepository
	PricingTiers    repositories.PricingTierRepository
	ShippingOptions repositories.ShippingOptionRepository
	Logger          func(context.Context, string, map[string]any)
}

type catalogService struct {
	products repositories.ProductRepository
	tiers    repositories.PricingTierRepository
	shipping repositories.ShippingOptionRepository
	logger   func(context.Context, string, map[string]any)
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs the catalog service enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.PricingTiers == nil {
		return nil, errors.New("catalog service: pricing tier repository is required")
	}
	if deps.ShippingOptions == nil {
		return nil, errors.New("catalog service: shipping option repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		products: deps.Products,
		tiers:    deps.PricingTiers,
		shipping: deps.ShippingOptions,
		logger:   logger,
	}, nil
}

// ListProducts returns a page of catalog entries priced for the query's tier.
func (s *catalogService) ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[PricedProduct], error) {
	pager := query.Pagination
	if pager.PageSize <= 0 {
		pager.PageSize = defaultProductPageSize
	}

	page, err := s.products.List(ctx, repositories.ProductListFilter{
		Category:    strings.TrimSpace(query.Category),
		InStockOnly: query.InStockOnly,
		Pagination:  pager,
	})
	if err != nil {
		return domain.CursorPage[PricedProduct]{}, s.translate(err)
	}

	items := make([]PricedProduct, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, priceProduct(product, query.Tier))
	}
	return domain.CursorPage[PricedProduct]{
		Items:         items,
		NextPageToken: page.NextPageToken,
	}, nil
}

// GetProduct fetches one catalog entry priced for the tier.
func (s *catalogService) GetProduct(ctx context.Context, productID string, tier PricingTier) (PricedProduct, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return PricedProduct{}, ErrCatalogInvalidInput
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return PricedProduct{}, s.translate(err)
	}
	return priceProduct(product, tier), nil
}

// UpsertProduct validates and persists a catalog entry.
func (s *catalogService) UpsertProduct(ctx context.Context, product Product) (Product, error) {
	if strings.TrimSpace(product.Name) == "" {
		return Product{}, ErrCatalogInvalidInput
	}
	if product.UnitPrice < 0 {
		return Product{}, ErrCatalogInvalidInput
	}
	if product.MinQuantity < 0 {
		return Product{}, ErrCatalogInvalidInput
	}
	saved, err := s.products.Upsert(ctx, product)
	if err != nil {
		return Product{}, s.translate(err)
	}
	s.logger(ctx, "catalog.product.upserted", map[string]any{
		"productID": saved.ID,
		"sku":       saved.SKU,
	})
	return saved, nil
}

// DeleteProduct removes a catalog entry.
func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return s.translate(err)
	}
	s.logger(ctx, "catalog.product.deleted", map[string]any{"productID": productID})
	return nil
}

// ListPricingTiers returns every tier.
func (s *catalogService) ListPricingTiers(ctx context.Context) ([]PricingTier, error) {
	tiers, err := s.tiers.List(ctx)
	if err != nil {
		return nil, s.translate(err)
	}
	return tiers, nil
}

// UpsertPricingTier validates and persists a tier.
func (s *catalogService) UpsertPricingTier(ctx context.Context, tier PricingTier) (PricingTier, error) {
	if strings.TrimSpace(tier.Name) == "" {
		return PricingTier{}, ErrCatalogInvalidInput
	}
	if tier.DiscountPercent < 0 || tier.DiscountPercent > 100 {
		return PricingTier{}, ErrCatalogInvalidInput
	}
	saved, err := s.tiers.Upsert(ctx, tier)
	if err != nil {
		return PricingTier{}, s.translate(err)
	}
	s.logger(ctx, "catalog.pricing_tier.upserted", map[string]any{
		"tierID":  saved.ID,
		"default": saved.Default,
	})
	return saved, nil
}

// DeletePricingTier removes a tier.
func (s *catalogService) DeletePricingTier(ctx context.Context, tierID string) error {
	tierID = strings.TrimSpace(tierID)
	if tierID == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.tiers.Delete(ctx, tierID); err != nil {
		return s.translate(err)
	}
	return nil
}

// ListShippingOptions returns delivery methods, cheapest first.
func (s *catalogService) ListShippingOptions(ctx context.Context, activeOnly bool) ([]ShippingOption, error) {
	options, err := s.shipping.List(ctx, activeOnly)
	if err != nil {
		return nil, s.translate(err)
	}
	return options, nil
}

// UpsertShippingOption validates and persists a delivery method.
func (s *catalogService) UpsertShippingOption(ctx context.Context, option ShippingOption) (ShippingOption, error) {
	if strings.TrimSpace(option.Name) == "" {
		return ShippingOption{}, ErrCatalogInvalidInput
	}
	if !domain.KnownCarrier(option.Carrier) {
		return ShippingOption{}, ErrCatalogInvalidInput
	}
	if option.Price < 0 {
		return ShippingOption{}, ErrCatalogInvalidInput
	}
	saved, err := s.shipping.Upsert(ctx, option)
	if err != nil {
		return ShippingOption{}, s.translate(err)
	}
	return saved, nil
}

// DeleteShippingOption removes a delivery method.
func (s *catalogService) DeleteShippingOption(ctx context.Context, optionID string) error {
	optionID = strings.TrimSpace(optionID)
	if optionID == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.shipping.Delete(ctx, optionID); err != nil {
		return s.translate(err)
	}
	return nil
}

func (s *catalogService) translate(err error) error {
	return translateRepoError(err, ErrCatalogNotFound, ErrCatalogConflict, ErrCatalogUnavailable)
}

func priceProduct(product Product, tier PricingTier) PricedProduct {
	return PricedProduct{
		Product:     product,
		TieredPrice: tier.TieredPrice(product.UnitPrice),
	}
}
