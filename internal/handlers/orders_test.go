package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

func TestOrderHandlersList(t *testing.T) {
	created := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	var captured services.OrderListQuery
	service := &stubOrderService{
		listFunc: func(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[services.Order], error) {
			captured = query
			return domain.CursorPage[services.Order]{
				Items: []services.Order{
					{
						ID:          "order-1",
						OrderNumber: "PPP-000042",
						UserID:      "buyer-7",
						Status:      domain.OrderStatusPaid,
						Currency:    "aud",
						Totals:      domain.OrderTotals{Subtotal: 2500, Total: 3025},
						CreatedAt:   created,
						UpdatedAt:   created,
					},
				},
				NextPageToken: "tok-2",
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/orders", NewOrderHandlers(nil, service).Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=paid,dispatched&pageSize=10", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "buyer-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if captured.RequestedBy != "buyer-7" || captured.Admin {
		t.Fatalf("expected buyer scoped query, got %+v", captured)
	}
	if len(captured.Status) != 2 || captured.Status[0] != domain.OrderStatusPaid {
		t.Fatalf("unexpected status filter %+v", captured.Status)
	}
	if captured.Pagination.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", captured.Pagination.PageSize)
	}

	var resp orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].OrderNumber != "PPP-000042" {
		t.Fatalf("unexpected orders %+v", resp.Orders)
	}
	if resp.NextPageToken != "tok-2" {
		t.Fatalf("expected next page token, got %q", resp.NextPageToken)
	}
}

func TestOrderHandlersGet(t *testing.T) {
	paid := time.Date(2025, 7, 2, 11, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		getFunc: func(ctx context.Context, cmd services.GetOrderCommand) (services.Order, error) {
			if cmd.OrderID != "order-1" || cmd.RequestedBy != "buyer-7" || cmd.Admin {
				t.Fatalf("unexpected command %+v", cmd)
			}
			opt := domain.ShippingOption{ID: "ship-tnt", Name: "TNT Road", Carrier: domain.CarrierTNT, Price: 900}
			return services.Order{
				ID:             "order-1",
				OrderNumber:    "PPP-000042",
				Status:         domain.OrderStatusPaid,
				ShippingOption: &opt,
				PaidAt:         &paid,
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/orders", NewOrderHandlers(nil, service).Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders/order-1", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "buyer-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ShippingOption == nil || resp.ShippingOption.Carrier != "tnt" {
		t.Fatalf("expected shipping option, got %+v", resp.ShippingOption)
	}
	if resp.PaidAt == "" {
		t.Fatalf("expected paidAt to be set")
	}
}

func TestOrderHandlersGetNotFound(t *testing.T) {
	service := &stubOrderService{
		getFunc: func(ctx context.Context, cmd services.GetOrderCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}

	router := chi.NewRouter()
	router.Route("/orders", NewOrderHandlers(nil, service).Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders/ghost", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "buyer-7"}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersListRequiresIdentity(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/orders", NewOrderHandlers(nil, &stubOrderService{}).Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

type stubOrderService struct {
	listFunc   func(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[services.Order], error)
	getFunc    func(ctx context.Context, cmd services.GetOrderCommand) (services.Order, error)
	updateFunc func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error)
}

func (s *stubOrderService) ListOrders(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[services.Order], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, query)
	}
	return domain.CursorPage[services.Order]{}, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, cmd services.GetOrderCommand) (services.Order, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, cmd)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, cmd)
	}
	return services.Order{}, nil
}
