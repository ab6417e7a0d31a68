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

// OrderHandlers serves the buyer-facing order history. Listing is always
// scoped to the caller regardless of any filter they send.
type OrderHandlers struct {
	authn    *auth.Authenticator
	orders   services.OrderService
	activity func(http.Handler) http.Handler
}

// NewOrderHandlers constructs the buyer order endpoints.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, opts ...HandlerOption) *OrderHandlers {
	cfg := newHandlerConfig(opts)
	return &OrderHandlers{authn: authn, orders: orders, activity: cfg.activity}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	if h.activity != nil {
		r.Use(h.activity)
	}
	r.Get("/", h.list)
	r.Get("/{orderID}", h.get)
}

type orderItemPayload struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

type orderPayload struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	UserID          string                 `json:"userId"`
	Status          string                 `json:"status"`
	Currency        string                 `json:"currency"`
	Items           []orderItemPayload     `json:"items"`
	Totals          totalsPayload          `json:"totals"`
	ShippingOption  *shippingOptionPayload `json:"shippingOption,omitempty"`
	ContactEmail    string                 `json:"contactEmail,omitempty"`
	PaymentIntentID string                 `json:"paymentIntentId,omitempty"`
	CreatedAt       string                 `json:"createdAt,omitempty"`
	UpdatedAt       string                 `json:"updatedAt,omitempty"`
	PaidAt          string                 `json:"paidAt,omitempty"`
}

type orderListResponse struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          string(order.Status),
		Currency:        order.Currency,
		Items:           make([]orderItemPayload, 0, len(order.Items)),
		Totals:          totalsPayload(order.Totals),
		ContactEmail:    order.ContactEmail,
		PaymentIntentID: order.PaymentIntentID,
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
		PaidAt:          formatTimePtr(order.PaidAt),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload(item))
	}
	if opt := order.ShippingOption; opt != nil {
		payload.ShippingOption = &shippingOptionPayload{
			ID:                opt.ID,
			Name:              opt.Name,
			Carrier:           string(opt.Carrier),
			Price:             opt.Price,
			EstimatedDelivery: opt.EstimatedDelivery,
		}
	}
	return payload
}

func parseOrderStatuses(raw string) []domain.OrderStatus {
	var statuses []domain.OrderStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		statuses = append(statuses, domain.OrderStatus(part))
	}
	return statuses
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
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

	page, err := h.orders.ListOrders(ctx, services.OrderListQuery{
		RequestedBy: identity.UID,
		Status:      parseOrderStatuses(r.URL.Query().Get("status")),
		Pagination: domain.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	resp := orderListResponse{
		Orders:        make([]orderPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, order := range page.Items {
		resp.Orders = append(resp.Orders, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, services.GetOrderCommand{
		RequestedBy: identity.UID,
		OrderID:     chi.URLParam(r, "orderID"),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "order request failed", http.StatusInternalServerError))
	}
}
