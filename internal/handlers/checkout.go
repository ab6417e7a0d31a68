package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

// CheckoutHandlers exposes quote and confirm endpoints. The confirm route is
// expected to sit behind the idempotency middleware so replayed submissions
// return the stored response instead of a duplicate order.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
	activity func(http.Handler) http.Handler
}

const maxCheckoutBodySize = 16 * 1024

// NewCheckoutHandlers constructs the checkout endpoints.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService, opts ...HandlerOption) *CheckoutHandlers {
	cfg := newHandlerConfig(opts)
	return &CheckoutHandlers{authn: authn, checkout: checkout, activity: cfg.activity}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	if h.activity != nil {
		r.Use(h.activity)
	}
	r.Post("/quote", h.quote)
	r.Post("/", h.confirm)
}

type checkoutRequest struct {
	ShippingOptionID string `json:"shippingOptionId"`
	ContactEmail     string `json:"contactEmail,omitempty"`
}

type totalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

type quoteResponse struct {
	Items          []cartLinePayload     `json:"items"`
	Totals         totalsPayload         `json:"totals"`
	ShippingOption shippingOptionPayload `json:"shippingOption"`
	Currency       string                `json:"currency"`
}

type confirmResponse struct {
	Order               orderPayload `json:"order"`
	PaymentClientSecret string       `json:"paymentClientSecret"`
}

func (h *CheckoutHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quote, err := h.checkout.Quote(ctx, services.QuoteCommand{
		UserID:           identity.UID,
		ShippingOptionID: req.ShippingOptionID,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	resp := quoteResponse{
		Items:  make([]cartLinePayload, 0, len(quote.Lines)),
		Totals: totalsPayload(quote.Totals),
		ShippingOption: shippingOptionPayload{
			ID:                quote.ShippingOption.ID,
			Name:              quote.ShippingOption.Name,
			Carrier:           string(quote.ShippingOption.Carrier),
			Price:             quote.ShippingOption.Price,
			EstimatedDelivery: quote.ShippingOption.EstimatedDelivery,
		},
		Currency: quote.Currency,
	}
	for _, line := range quote.Lines {
		resp.Items = append(resp.Items, cartLinePayload{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *CheckoutHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	contactEmail := req.ContactEmail
	if contactEmail == "" {
		contactEmail = identity.Email
	}

	result, err := h.checkout.Confirm(ctx, services.ConfirmCommand{
		UserID:           identity.UID,
		ShippingOptionID: req.ShippingOptionID,
		ContactEmail:     contactEmail,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, confirmResponse{
		Order:               buildOrderPayload(result.Order),
		PaymentClientSecret: result.PaymentClientSecret,
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutShippingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("shipping_option_not_found", "shipping option not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_failed", "payment could not be initiated", http.StatusBadGateway))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "checkout request failed", http.StatusInternalServerError))
	}
}
