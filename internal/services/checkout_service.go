package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/payments"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutEmptyCart indicates the buyer has nothing to check out.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutShippingNotFound indicates the chosen delivery method does not exist or is inactive.
var ErrCheckoutShippingNotFound = errors.New("checkout service: shipping option not found")

// ErrCheckoutPaymentFailed indicates the payment intent could not be created.
var ErrCheckoutPaymentFailed = errors.New("checkout service: payment failed")

// ErrCheckoutUnavailable indicates a backend dependency cannot fulfil the request.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

const orderNumberCounter = "orders"

// CheckoutServiceDeps wires everything a confirm touches: the cart store,
// catalog pricing, order persistence, payments, and email fan-out.
type CheckoutServiceDeps struct {
	CartStore CartStore
	Pricing   PricingService
	Shipping  repositories.ShippingOptionRepository
	Orders    repositories.OrderRepository
	Counters  repositories.CounterRepository
	Payments  payments.Provider
	Email     EmailService
	Currency  string
	Clock     func() time.Time
	IDGen     func() string
	Logger    func(context.Context, string, map[string]any)
}

type checkoutService struct {
	cartStore CartStore
	pricing   PricingService
	shipping  repositories.ShippingOptionRepository
	orders    repositories.OrderRepository
	counters  repositories.CounterRepository
	payments  payments.Provider
	email     EmailService
	currency  string
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs the checkout orchestrator.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.CartStore == nil {
		return nil, errors.New("checkout service: cart store is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("checkout service: pricing service is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("checkout service: shipping option repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("checkout service: counter repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment provider is required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "aud"
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		cartStore: deps.CartStore,
		pricing:   deps.Pricing,
		shipping:  deps.Shipping,
		orders:    deps.Orders,
		counters:  deps.Counters,
		payments:  deps.Payments,
		email:     deps.Email,
		currency:  currency,
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Quote prices the buyer's current cart against the chosen delivery method
// without mutating anything.
func (s *checkoutService) Quote(ctx context.Context, cmd QuoteCommand) (CheckoutQuote, error) {
	uid := strings.TrimSpace(cmd.UserID)
	optionID := strings.TrimSpace(cmd.ShippingOptionID)
	if uid == "" || optionID == "" {
		return CheckoutQuote{}, ErrCheckoutInvalidInput
	}

	lines, option, totals, err := s.price(ctx, uid, optionID)
	if err != nil {
		return CheckoutQuote{}, err
	}

	return CheckoutQuote{
		Lines:          lines,
		Totals:         totals,
		ShippingOption: option,
		Currency:       s.currency,
	}, nil
}

// Confirm turns the cart into an order: persists it, creates the payment
// intent, clears the cart, and queues the confirmation emails. One attempt;
// failures before the order is written surface unwrapped.
func (s *checkoutService) Confirm(ctx context.Context, cmd ConfirmCommand) (CheckoutResult, error) {
	uid := strings.TrimSpace(cmd.UserID)
	optionID := strings.TrimSpace(cmd.ShippingOptionID)
	contactEmail := strings.ToLower(strings.TrimSpace(cmd.ContactEmail))
	if uid == "" || optionID == "" {
		return CheckoutResult{}, ErrCheckoutInvalidInput
	}
	if contactEmail == "" || !strings.Contains(contactEmail, "@") {
		return CheckoutResult{}, ErrCheckoutInvalidInput
	}

	lines, option, totals, err := s.price(ctx, uid, optionID)
	if err != nil {
		return CheckoutResult{}, err
	}

	sequence, err := s.counters.Next(ctx, orderNumberCounter, 1)
	if err != nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	now := s.now()
	tier, err := s.pricing.TierForUser(ctx, uid)
	if err != nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		unitPrice := tier.TieredPrice(line.UnitPrice)
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Total:     unitPrice * int64(line.Quantity),
		})
	}

	optionCopy := option
	order := domain.Order{
		ID:             s.newID(),
		OrderNumber:    fmt.Sprintf("PPP-%06d", sequence),
		UserID:         uid,
		Status:         domain.OrderStatusPendingPayment,
		Currency:       s.currency,
		Items:          items,
		Totals:         totals,
		ShippingOption: &optionCopy,
		ContactEmail:   contactEmail,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return CheckoutResult{}, translateRepoError(err, ErrCheckoutUnavailable, ErrCheckoutUnavailable, ErrCheckoutUnavailable)
	}

	intent, err := s.payments.CreateIntent(ctx, payments.IntentRequest{
		Amount:        totals.Total,
		Currency:      s.currency,
		CustomerEmail: contactEmail,
		Description:   fmt.Sprintf("Wholesale order %s", order.OrderNumber),
		Metadata: map[string]string{
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
		},
		IdempotencyKey: order.ID,
	})
	if err != nil {
		s.logger(ctx, "checkout.payment_intent_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
		return CheckoutResult{}, ErrCheckoutPaymentFailed
	}

	order.PaymentIntentID = intent.ID
	order.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, order); err != nil {
		return CheckoutResult{}, translateRepoError(err, ErrCheckoutUnavailable, ErrCheckoutUnavailable, ErrCheckoutUnavailable)
	}

	if err := s.cartStore.Clear(ctx, uid); err != nil {
		// The order stands; a stale cart is recoverable by the buyer.
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}

	if s.email != nil {
		if _, err := s.email.DispatchOrderEmails(ctx, order); err != nil {
			s.logger(ctx, "checkout.email_dispatch_failed", map[string]any{
				"orderID": order.ID,
				"error":   err.Error(),
			})
		}
	}

	s.logger(ctx, "checkout.confirmed", map[string]any{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       totals.Total,
	})

	return CheckoutResult{
		Order:               order,
		PaymentClientSecret: intent.ClientSecret,
	}, nil
}

func (s *checkoutService) price(ctx context.Context, uid, optionID string) ([]domain.CartLine, domain.ShippingOption, domain.OrderTotals, error) {
	lines, err := s.cartStore.Load(ctx, uid)
	if err != nil {
		return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutUnavailable
	}
	if len(lines) == 0 {
		return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutEmptyCart
	}

	option, err := s.shipping.FindByID(ctx, optionID)
	if err != nil {
		if isRepoNotFound(err) {
			return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutShippingNotFound
		}
		return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutUnavailable
	}
	if !option.Active {
		return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutShippingNotFound
	}

	tier, err := s.pricing.TierForUser(ctx, uid)
	if err != nil {
		return nil, domain.ShippingOption{}, domain.OrderTotals{}, ErrCheckoutUnavailable
	}

	var subtotal, discounted int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal += line.UnitPrice * int64(line.Quantity)
		discounted += tier.TieredPrice(line.UnitPrice) * int64(line.Quantity)
	}

	totals := domain.OrderTotals{
		Subtotal: subtotal,
		Discount: subtotal - discounted,
		Shipping: option.Price,
		Total:    discounted + option.Price,
	}
	return lines, option, totals, nil
}
