package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v78"
)

type stubIntentAPI struct {
	newParams *stripe.PaymentIntentParams
	newResult *stripe.PaymentIntent
	newErr    error

	getID     string
	getResult *stripe.PaymentIntent
	getErr    error
}

func (s *stubIntentAPI) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.newParams = params
	if s.newErr != nil {
		return nil, s.newErr
	}
	return s.newResult, nil
}

func (s *stubIntentAPI) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.getID = id
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getResult, nil
}

type stubRefundAPI struct {
	params *stripe.RefundParams
	err    error
}

func (s *stubRefundAPI) New(params *stripe.RefundParams) (*stripe.Refund, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &stripe.Refund{ID: "re_1"}, nil
}

func newTestProvider(t *testing.T, intents *stubIntentAPI, refunds *stubRefundAPI) *StripeProvider {
	t.Helper()
	provider, err := NewStripeProvider(StripeProviderConfig{
		Clients: &stripeClients{intents: intents, refunds: refunds},
	})
	if err != nil {
		t.Fatalf("NewStripeProvider returned error: %v", err)
	}
	return provider
}

func TestCreateIntentBuildsParams(t *testing.T) {
	intents := &stubIntentAPI{
		newResult: &stripe.PaymentIntent{
			ID:           "pi_1",
			ClientSecret: "pi_1_secret",
			Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
			Amount:       8500,
			Currency:     "aud",
		},
	}
	provider := newTestProvider(t, intents, &stubRefundAPI{})

	intent, err := provider.CreateIntent(context.Background(), IntentRequest{
		Amount:         8500,
		Currency:       "AUD",
		CustomerEmail:  "buyer@example.com",
		Description:    "Order ord_1",
		Metadata:       map[string]string{"orderId": "ord_1"},
		IdempotencyKey: "idem-1",
	})
	if err != nil {
		t.Fatalf("CreateIntent returned error: %v", err)
	}

	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected intent %#v", intent)
	}
	if intent.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", intent.Status)
	}

	params := intents.newParams
	if params == nil {
		t.Fatal("expected intent params to be captured")
	}
	if got := stripe.StringValue(params.Currency); got != "aud" {
		t.Errorf("expected currency lowered to aud, got %s", got)
	}
	if got := stripe.Int64Value(params.Amount); got != 8500 {
		t.Errorf("unexpected amount %d", got)
	}
	if got := stripe.StringValue(params.ReceiptEmail); got != "buyer@example.com" {
		t.Errorf("unexpected receipt email %s", got)
	}
	if params.Metadata["orderId"] != "ord_1" {
		t.Errorf("expected order metadata, got %v", params.Metadata)
	}
}

func TestCreateIntentRejectsInvalidInput(t *testing.T) {
	provider := newTestProvider(t, &stubIntentAPI{}, &stubRefundAPI{})

	if _, err := provider.CreateIntent(context.Background(), IntentRequest{Amount: 0, Currency: "aud"}); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := provider.CreateIntent(context.Background(), IntentRequest{Amount: 100}); err == nil {
		t.Error("expected error for missing currency")
	}
}

func TestLookupPaymentMapsRefund(t *testing.T) {
	intents := &stubIntentAPI{
		getResult: &stripe.PaymentIntent{
			ID:       "pi_1",
			Status:   stripe.PaymentIntentStatusSucceeded,
			Amount:   8500,
			Currency: "aud",
			LatestCharge: &stripe.Charge{
				Paid:           true,
				Captured:       true,
				Created:        1767225600,
				Amount:         8500,
				AmountRefunded: 8500,
				Refunded:       true,
			},
		},
	}
	provider := newTestProvider(t, intents, &stubRefundAPI{})

	details, err := provider.LookupPayment(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("LookupPayment returned error: %v", err)
	}
	if details.Status != StatusRefunded {
		t.Errorf("expected refunded status, got %s", details.Status)
	}
	if !details.Captured || details.CapturedAt == nil || details.RefundedAt == nil {
		t.Errorf("expected capture and refund timestamps, got %#v", details)
	}
	if intents.getID != "pi_1" {
		t.Errorf("unexpected lookup id %s", intents.getID)
	}
}

func TestRefundPassesReasonAndAmount(t *testing.T) {
	refunds := &stubRefundAPI{}
	intents := &stubIntentAPI{
		getResult: &stripe.PaymentIntent{
			ID:       "pi_1",
			Status:   stripe.PaymentIntentStatusSucceeded,
			Amount:   8500,
			Currency: "aud",
		},
	}
	provider := newTestProvider(t, intents, refunds)

	amount := int64(4000)
	if _, err := provider.Refund(context.Background(), RefundRequest{
		IntentID: "pi_1",
		Amount:   &amount,
		Reason:   "requested_by_customer",
	}); err != nil {
		t.Fatalf("Refund returned error: %v", err)
	}

	if refunds.params == nil {
		t.Fatal("expected refund params to be captured")
	}
	if got := stripe.Int64Value(refunds.params.Amount); got != 4000 {
		t.Errorf("unexpected refund amount %d", got)
	}
	if got := stripe.StringValue(refunds.params.Reason); got != string(stripe.RefundReasonRequestedByCustomer) {
		t.Errorf("unexpected refund reason %s", got)
	}
}

func TestRefundPropagatesError(t *testing.T) {
	refunds := &stubRefundAPI{err: errors.New("boom")}
	provider := newTestProvider(t, &stubIntentAPI{}, refunds)

	if _, err := provider.Refund(context.Background(), RefundRequest{IntentID: "pi_1"}); err == nil {
		t.Fatal("expected refund error")
	}
}
