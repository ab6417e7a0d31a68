package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists order documents in Firestore.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{base: base}, nil
}

// Insert stores a new order document. The ID must be unique.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	if strings.TrimSpace(order.UserID) == "" {
		return errors.New("order repository: user id is required")
	}
	ref, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}
	doc := encodeOrderDocument(order)
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update replaces the persisted order with the provided snapshot.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	ref, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}
	doc := encodeOrderDocument(order)
	if _, err := ref.Set(ctx, doc); err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	return nil
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data), nil
}

// List returns orders newest first, optionally scoped to a buyer and statuses.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	userID := strings.TrimSpace(filter.UserID)
	statuses := normaliseOrderStatuses(filter.Status)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if userID != "" {
			q = q.Where("userId", "==", userID)
		}
		if len(statuses) == 1 {
			q = q.Where("status", "==", statuses[0])
		} else if len(statuses) > 1 {
			// Firestore in clause supports up to 10 values.
			if len(statuses) > 10 {
				statuses = statuses[:10]
			}
			q = q.Where("status", "in", statuses)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	nextToken := ""
	if limit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-1]
		tokenTime := last.Data.CreatedAt
		if tokenTime.IsZero() {
			tokenTime = last.CreateTime
		}
		nextToken = encodeListToken(tokenTime, last.ID)
		docs = docs[:len(docs)-1]
	}

	items := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeOrderDocument(doc.ID, doc.Data))
	}

	return domain.CursorPage[domain.Order]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type orderDocument struct {
	OrderNumber     string                  `firestore:"orderNumber"`
	UserID          string                  `firestore:"userId"`
	Status          string                  `firestore:"status"`
	Currency        string                  `firestore:"currency"`
	Items           []orderItemDocument     `firestore:"items"`
	Totals          orderTotalsDocument     `firestore:"totals"`
	ShippingOption  *shippingOptionDocument `firestore:"shippingOption,omitempty"`
	ShippingID      string                  `firestore:"shippingOptionId,omitempty"`
	ContactEmail    string                  `firestore:"contactEmail,omitempty"`
	PaymentIntentID string                  `firestore:"paymentIntentId,omitempty"`
	CreatedAt       time.Time               `firestore:"createdAt"`
	UpdatedAt       time.Time               `firestore:"updatedAt"`
	PaidAt          *time.Time              `firestore:"paidAt,omitempty"`
}

type orderItemDocument struct {
	ProductID string `firestore:"productId"`
	SKU       string `firestore:"sku,omitempty"`
	Name      string `firestore:"name"`
	Quantity  int    `firestore:"quantity"`
	UnitPrice int64  `firestore:"unitPrice"`
	Total     int64  `firestore:"total"`
}

type orderTotalsDocument struct {
	Subtotal int64 `firestore:"subtotal"`
	Discount int64 `firestore:"discount"`
	Shipping int64 `firestore:"shipping"`
	Total    int64 `firestore:"total"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:     strings.TrimSpace(order.OrderNumber),
		UserID:          strings.TrimSpace(order.UserID),
		Status:          string(order.Status),
		Currency:        strings.ToLower(strings.TrimSpace(order.Currency)),
		Totals:          orderTotalsDocument(order.Totals),
		ContactEmail:    strings.ToLower(strings.TrimSpace(order.ContactEmail)),
		PaymentIntentID: strings.TrimSpace(order.PaymentIntentID),
		CreatedAt:       order.CreatedAt.UTC(),
		UpdatedAt:       order.UpdatedAt.UTC(),
	}
	if order.PaidAt != nil {
		paidAt := order.PaidAt.UTC()
		doc.PaidAt = &paidAt
	}
	if len(order.Items) > 0 {
		doc.Items = make([]orderItemDocument, 0, len(order.Items))
		for _, item := range order.Items {
			doc.Items = append(doc.Items, orderItemDocument{
				ProductID: item.ProductID,
				SKU:       item.SKU,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Total:     item.Total,
			})
		}
	}
	if order.ShippingOption != nil {
		now := order.UpdatedAt.UTC()
		shippingDoc := encodeShippingOptionDocument(*order.ShippingOption, now)
		// Preserve the option timestamps as captured at checkout.
		shippingDoc.CreatedAt = order.ShippingOption.CreatedAt
		shippingDoc.UpdatedAt = order.ShippingOption.UpdatedAt
		doc.ShippingOption = &shippingDoc
		doc.ShippingID = order.ShippingOption.ID
	}
	return doc
}

func decodeOrderDocument(docID string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:              docID,
		OrderNumber:     doc.OrderNumber,
		UserID:          doc.UserID,
		Status:          domain.OrderStatus(doc.Status),
		Currency:        doc.Currency,
		Totals:          domain.OrderTotals(doc.Totals),
		ContactEmail:    doc.ContactEmail,
		PaymentIntentID: doc.PaymentIntentID,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		PaidAt:          doc.PaidAt,
	}
	if len(doc.Items) > 0 {
		order.Items = make([]domain.OrderItem, 0, len(doc.Items))
		for _, item := range doc.Items {
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: item.ProductID,
				SKU:       item.SKU,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Total:     item.Total,
			})
		}
	}
	if doc.ShippingOption != nil {
		option := decodeShippingOptionDocument(doc.ShippingID, *doc.ShippingOption)
		order.ShippingOption = &option
	}
	return order
}

func normaliseOrderStatuses(statuses []domain.OrderStatus) []string {
	if len(statuses) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(statuses))
	normalised := make([]string, 0, len(statuses))
	for _, status := range statuses {
		value := strings.ToLower(strings.TrimSpace(string(status)))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		normalised = append(normalised, value)
	}
	return normalised
}
