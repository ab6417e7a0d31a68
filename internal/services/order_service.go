package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the order does not exist or the caller may not see it.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderForbidden indicates the caller may not perform the operation.
var ErrOrderForbidden = errors.New("order service: forbidden")

// ErrOrderUnavailable indicates the backend cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

const defaultOrderPageSize = 25

// OrderServiceDeps wires order persistence and the clock.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

var _ OrderService = (*orderService)(nil)

// NewOrderService constructs the order read/transition service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		orders: deps.Orders,
		now:    func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

// ListOrders pages through orders. Buyers only ever see their own; admins may
// scope to any user or none.
func (s *orderService) ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[Order], error) {
	requester := strings.TrimSpace(query.RequestedBy)
	if requester == "" {
		return domain.CursorPage[Order]{}, ErrOrderInvalidInput
	}

	userID := strings.TrimSpace(query.UserID)
	if !query.Admin {
		userID = requester
	}

	pager := query.Pagination
	if pager.PageSize <= 0 {
		pager.PageSize = defaultOrderPageSize
	}

	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:     userID,
		Status:     query.Status,
		Pagination: pager,
	})
	if err != nil {
		return domain.CursorPage[Order]{}, s.translate(err)
	}
	return page, nil
}

// GetOrder fetches one order. Buyers may only fetch their own.
func (s *orderService) GetOrder(ctx context.Context, cmd GetOrderCommand) (Order, error) {
	requester := strings.TrimSpace(cmd.RequestedBy)
	orderID := strings.TrimSpace(cmd.OrderID)
	if requester == "" || orderID == "" {
		return Order{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.translate(err)
	}
	if !cmd.Admin && order.UserID != requester {
		// Hide existence from other buyers.
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus transitions the order lifecycle. Reaching paid stamps PaidAt.
func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, ErrOrderInvalidInput
	}
	if !knownOrderStatus(cmd.Status) {
		return Order{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.translate(err)
	}

	now := s.now()
	order.Status = cmd.Status
	order.UpdatedAt = now
	if cmd.Status == domain.OrderStatusPaid && order.PaidAt == nil {
		paidAt := now
		order.PaidAt = &paidAt
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.translate(err)
	}

	s.logger(ctx, "order.status_updated", map[string]any{
		"orderID": order.ID,
		"status":  string(order.Status),
	})
	return order, nil
}

func (s *orderService) translate(err error) error {
	return translateRepoError(err, ErrOrderNotFound, ErrOrderUnavailable, ErrOrderUnavailable)
}

func knownOrderStatus(status OrderStatus) bool {
	switch status {
	case domain.OrderStatusPendingPayment,
		domain.OrderStatusPaid,
		domain.OrderStatusDispatched,
		domain.OrderStatusCompleted,
		domain.OrderStatusCanceled:
		return true
	}
	return false
}
