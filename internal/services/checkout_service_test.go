package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/payments"
)

func checkoutFixtures() (*memoryCartStore, *stubShippingRepo, *stubOrderRepo, *stubCounterRepo, *stubPaymentProvider) {
	store := newMemoryCartStore()
	store.lines["user-1"] = []domain.CartLine{
		{ProductID: "prod-1", Name: "Pea Protein 1kg", UnitPrice: 1000, Quantity: 2},
		{ProductID: "prod-2", Name: "Rice Protein 1kg", UnitPrice: 500, Quantity: 1},
	}
	shipping := &stubShippingRepo{
		findByIDFn: func(_ context.Context, optionID string) (domain.ShippingOption, error) {
			return domain.ShippingOption{ID: optionID, Name: "Road freight", Carrier: domain.CarrierTNT, Price: 900, Active: true}, nil
		},
	}
	orders := &stubOrderRepo{}
	counters := &stubCounterRepo{
		nextFn: func(context.Context, string, int64) (int64, error) { return 42, nil },
	}
	provider := &stubPaymentProvider{}
	return store, shipping, orders, counters, provider
}

func newTestCheckoutService(t *testing.T, deps CheckoutServiceDeps) CheckoutService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) }
	}
	if deps.IDGen == nil {
		deps.IDGen = func() string { return "order-fixed" }
	}
	svc, err := NewCheckoutService(deps)
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	return svc
}

func TestCheckoutQuoteComputesTieredTotals(t *testing.T) {
	store, shipping, orders, counters, provider := checkoutFixtures()
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{tier: domain.PricingTier{DiscountPercent: 15}},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
	})

	quote, err := svc.Quote(context.Background(), QuoteCommand{UserID: "user-1", ShippingOptionID: "ship-1"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	// 2x1000 + 1x500 = 2500 undiscounted; 2x850 + 1x425 = 2125 at 15%.
	if quote.Totals.Subtotal != 2500 {
		t.Fatalf("expected subtotal 2500, got %d", quote.Totals.Subtotal)
	}
	if quote.Totals.Discount != 375 {
		t.Fatalf("expected discount 375, got %d", quote.Totals.Discount)
	}
	if quote.Totals.Shipping != 900 {
		t.Fatalf("expected shipping 900, got %d", quote.Totals.Shipping)
	}
	if quote.Totals.Total != 3025 {
		t.Fatalf("expected total 3025, got %d", quote.Totals.Total)
	}
	if len(orders.inserted) != 0 {
		t.Fatalf("quote must not write orders, wrote %d", len(orders.inserted))
	}
}

func TestCheckoutConfirmCreatesOrderAndClearsCart(t *testing.T) {
	store, shipping, orders, counters, provider := checkoutFixtures()
	email := &stubEmailService{}
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{tier: domain.PricingTier{DiscountPercent: 15}},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
		Email:     email,
	})

	result, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "Buyer@Example.com",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if result.Order.OrderNumber != "PPP-000042" {
		t.Fatalf("expected order number PPP-000042, got %s", result.Order.OrderNumber)
	}
	if result.Order.Status != domain.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", result.Order.Status)
	}
	if result.Order.ContactEmail != "buyer@example.com" {
		t.Fatalf("expected lowercased contact email, got %s", result.Order.ContactEmail)
	}
	if result.PaymentClientSecret != "pi_test_secret" {
		t.Fatalf("expected client secret handed back, got %s", result.PaymentClientSecret)
	}
	if len(result.Order.Items) != 2 || result.Order.Items[0].UnitPrice != 850 {
		t.Fatalf("expected tiered item prices, got %+v", result.Order.Items)
	}

	if len(orders.inserted) != 1 {
		t.Fatalf("expected one order insert, got %d", len(orders.inserted))
	}
	if len(orders.updated) != 1 || orders.updated[0].PaymentIntentID != "pi_test" {
		t.Fatalf("expected order updated with intent id, got %+v", orders.updated)
	}

	if len(provider.requests) != 1 {
		t.Fatalf("expected one intent request, got %d", len(provider.requests))
	}
	req := provider.requests[0]
	if req.Amount != 3025 {
		t.Fatalf("expected intent amount 3025, got %d", req.Amount)
	}
	if req.Metadata["orderNumber"] != "PPP-000042" {
		t.Fatalf("expected order number in metadata, got %v", req.Metadata)
	}
	if req.IdempotencyKey != result.Order.ID {
		t.Fatalf("expected order id as idempotency key, got %s", req.IdempotencyKey)
	}

	if len(store.cleared) != 1 {
		t.Fatalf("expected cart cleared once, got %v", store.cleared)
	}
	if len(email.dispatched) != 1 {
		t.Fatalf("expected one email dispatch, got %d", len(email.dispatched))
	}
}

func TestCheckoutConfirmEmptyCart(t *testing.T) {
	_, shipping, orders, counters, provider := checkoutFixtures()
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: newMemoryCartStore(),
		Pricing:   fixedPricing{},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
	})

	_, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "buyer@example.com",
	})
	if !errors.Is(err, ErrCheckoutEmptyCart) {
		t.Fatalf("expected ErrCheckoutEmptyCart, got %v", err)
	}
}

func TestCheckoutConfirmInactiveShippingOption(t *testing.T) {
	store, _, orders, counters, provider := checkoutFixtures()
	shipping := &stubShippingRepo{
		findByIDFn: func(_ context.Context, optionID string) (domain.ShippingOption, error) {
			return domain.ShippingOption{ID: optionID, Active: false}, nil
		},
	}
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
	})

	_, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "buyer@example.com",
	})
	if !errors.Is(err, ErrCheckoutShippingNotFound) {
		t.Fatalf("expected ErrCheckoutShippingNotFound, got %v", err)
	}
}

func TestCheckoutConfirmPaymentFailureSurfaces(t *testing.T) {
	store, shipping, orders, counters, provider := checkoutFixtures()
	provider.createFn = func(context.Context, payments.IntentRequest) (payments.Intent, error) {
		return payments.Intent{}, errors.New("card declined")
	}
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
	})

	_, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "buyer@example.com",
	})
	if !errors.Is(err, ErrCheckoutPaymentFailed) {
		t.Fatalf("expected ErrCheckoutPaymentFailed, got %v", err)
	}
	if len(store.cleared) != 0 {
		t.Fatalf("cart must survive a failed payment, cleared %v", store.cleared)
	}
}

func TestCheckoutConfirmEmailFailureDoesNotSurface(t *testing.T) {
	store, shipping, orders, counters, provider := checkoutFixtures()
	email := &stubEmailService{
		dispatchFn: func(context.Context, domain.Order) ([]string, error) {
			return nil, errors.New("topic gone")
		},
	}
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
		Email:     email,
	})

	if _, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "buyer@example.com",
	}); err != nil {
		t.Fatalf("confirm must succeed despite email failure, got %v", err)
	}
}

func TestCheckoutConfirmRejectsBadEmail(t *testing.T) {
	store, shipping, orders, counters, provider := checkoutFixtures()
	svc := newTestCheckoutService(t, CheckoutServiceDeps{
		CartStore: store,
		Pricing:   fixedPricing{},
		Shipping:  shipping,
		Orders:    orders,
		Counters:  counters,
		Payments:  provider,
	})

	_, err := svc.Confirm(context.Background(), ConfirmCommand{
		UserID:           "user-1",
		ShippingOptionID: "ship-1",
		ContactEmail:     "not-an-email",
	})
	if !errors.Is(err, ErrCheckoutInvalidInput) {
		t.Fatalf("expected ErrCheckoutInvalidInput, got %v", err)
	}
}
