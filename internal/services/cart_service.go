package services

import (
	"context"
	"errors"
	"strings"

	cartengine "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/cart"
	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartProductNotFound indicates the product being added does not exist.
var ErrCartProductNotFound = errors.New("cart service: product not found")

// ErrCartUnavailable indicates the cart store cannot fulfil the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// CartStore persists the full line sequence per buyer profile.
type CartStore interface {
	Load(ctx context.Context, profileID string) ([]domain.CartLine, error)
	Save(ctx context.Context, profileID string, lines []domain.CartLine) error
	Clear(ctx context.Context, profileID string) error
}

type cartProductFinder interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
}

// CartServiceDeps wires the store, catalog lookup, and pricing dependencies.
type CartServiceDeps struct {
	Store           CartStore
	Products        cartProductFinder
	Pricing         PricingService
	DefaultCurrency string
	Logger          func(context.Context, string, map[string]any)
}

type cartService struct {
	store    CartStore
	products cartProductFinder
	pricing  PricingService
	currency string
	logger   func(context.Context, string, map[string]any)
}

var _ CartService = (*cartService)(nil)

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errors.New("cart service: store is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product finder is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("cart service: pricing service is required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.DefaultCurrency))
	if currency == "" {
		currency = "aud"
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		store:    deps.Store,
		products: deps.Products,
		pricing:  deps.Pricing,
		currency: currency,
		logger:   logger,
	}, nil
}

// Get loads the buyer's cart and computes tiered totals.
func (s *cartService) Get(ctx context.Context, userID string) (CartView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	lines, err := s.store.Load(ctx, uid)
	if err != nil {
		return CartView{}, ErrCartUnavailable
	}
	return s.view(ctx, uid, lines)
}

// AddItem merges quantity units of the product into the cart and persists the
// new sequence. The product name and unit price are snapshotted at add time.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error) {
	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	if cmd.Quantity < 1 {
		return CartView{}, ErrCartInvalidInput
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return CartView{}, ErrCartProductNotFound
		}
		return CartView{}, ErrCartUnavailable
	}

	lines, err := s.store.Load(ctx, uid)
	if err != nil {
		return CartView{}, ErrCartUnavailable
	}

	cart := cartengine.FromLines(lines)
	if err := cart.Add(product, cmd.Quantity); err != nil {
		return CartView{}, ErrCartInvalidInput
	}

	return s.persist(ctx, uid, cart)
}

// UpdateItemQuantity replaces the stored quantity. A quantity below one
// removes the line; updating an absent product is a no-op.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (CartView, error) {
	uid := strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if uid == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}

	lines, err := s.store.Load(ctx, uid)
	if err != nil {
		return CartView{}, ErrCartUnavailable
	}

	cart := cartengine.FromLines(lines)
	cart.UpdateQuantity(productID, quantity)

	return s.persist(ctx, uid, cart)
}

// RemoveItem deletes the matching line; removing an absent product is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (CartView, error) {
	uid := strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if uid == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}

	lines, err := s.store.Load(ctx, uid)
	if err != nil {
		return CartView{}, ErrCartUnavailable
	}

	cart := cartengine.FromLines(lines)
	cart.Remove(productID)

	return s.persist(ctx, uid, cart)
}

// Clear empties the cart and removes the persisted record.
func (s *cartService) Clear(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}
	if err := s.store.Clear(ctx, uid); err != nil {
		return ErrCartUnavailable
	}
	s.logger(ctx, "cart.cleared", map[string]any{"userID": uid})
	return nil
}

func (s *cartService) persist(ctx context.Context, uid string, cart *cartengine.Cart) (CartView, error) {
	lines := cart.Lines()
	if err := s.store.Save(ctx, uid, lines); err != nil {
		return CartView{}, ErrCartUnavailable
	}
	return s.view(ctx, uid, lines)
}

func (s *cartService) view(ctx context.Context, uid string, lines []domain.CartLine) (CartView, error) {
	tier, err := s.pricing.TierForUser(ctx, uid)
	if err != nil {
		return CartView{}, ErrCartUnavailable
	}

	var subtotal int64
	totalItems := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		totalItems += line.Quantity
		subtotal += tier.TieredPrice(line.UnitPrice) * int64(line.Quantity)
	}

	return CartView{
		Lines:      lines,
		TotalItems: totalItems,
		Subtotal:   subtotal,
		Currency:   s.currency,
	}, nil
}
