package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/pagination"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) requireOrders(w http.ResponseWriter, r *http.Request) bool {
	if h.orders != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	return false
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireOrders(w, r) {
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
		Admin:       true,
		UserID:      r.URL.Query().Get("userId"),
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

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireOrders(w, r) {
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, services.GetOrderCommand{
		RequestedBy: identity.UID,
		Admin:       true,
		OrderID:     chi.URLParam(r, "orderID"),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireOrders(w, r) {
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  domain.OrderStatus(req.Status),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}
