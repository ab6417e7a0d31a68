package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Product represents a wholesale catalog entry. Prices are stored in the
// smallest currency unit.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Category    string
	UnitPrice   int64
	Currency    string
	ImageURL    string
	MinQuantity int
	InStock     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PricingTier applies a percentage discount to catalog prices for the
// customers assigned to it.
type PricingTier struct {
	ID              string
	Name            string
	DiscountPercent int
	Default         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TieredPrice returns the unit price after applying the tier discount,
// rounded down to the smallest currency unit.
func (t PricingTier) TieredPrice(unitPrice int64) int64 {
	if t.DiscountPercent <= 0 {
		return unitPrice
	}
	if t.DiscountPercent >= 100 {
		return 0
	}
	return unitPrice * int64(100-t.DiscountPercent) / 100
}

// Carrier enumerates the shipping carriers offered at checkout.
type Carrier string

const (
	// CarrierAusPost ships via Australia Post.
	CarrierAusPost Carrier = "auspost"
	// CarrierTNT ships via TNT road freight.
	CarrierTNT Carrier = "tnt"
	// CarrierCourier ships via local courier.
	CarrierCourier Carrier = "courier"
	// CarrierPickup means the buyer collects from the warehouse.
	CarrierPickup Carrier = "pickup"
)

// KnownCarrier reports whether the value is a member of the carrier enum.
func KnownCarrier(c Carrier) bool {
	switch c {
	case CarrierAusPost, CarrierTNT, CarrierCourier, CarrierPickup:
		return true
	}
	return false
}

// ShippingOption describes one selectable delivery method.
type ShippingOption struct {
	ID                string
	Name              string
	Carrier           Carrier
	Price             int64
	EstimatedDelivery string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CartLine pairs a product with a quantity inside a shopper's cart. At most
// one line exists per product ID.
type CartLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	// OrderStatusPendingPayment indicates the order awaits payment completion.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	// OrderStatusPaid indicates payment succeeded.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusDispatched indicates the order has left the warehouse.
	OrderStatusDispatched OrderStatus = "dispatched"
	// OrderStatusCompleted indicates the order has been delivered and closed.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCanceled indicates the order has been canceled.
	OrderStatusCanceled OrderStatus = "canceled"
)

// OrderTotals holds rolled-up monetary fields in the smallest currency unit.
type OrderTotals struct {
	Subtotal int64
	Discount int64
	Shipping int64
	Total    int64
}

// OrderItem mirrors a cart line at the time of checkout, with the tiered
// price the buyer actually paid.
type OrderItem struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice int64
	Total     int64
}

// Order captures a confirmed wholesale purchase.
type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Status          OrderStatus
	Currency        string
	Items           []OrderItem
	Totals          OrderTotals
	ShippingOption  *ShippingOption
	ContactEmail    string
	PaymentIntentID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PaidAt          *time.Time
}

// EmailSettings holds the notification recipients and per-class templates
// consulted when dispatching order emails.
type EmailSettings struct {
	AdminEmail       string `json:"adminEmail"`
	DispatchEmail    string `json:"dispatchEmail"`
	AccountsEmail    string `json:"accountsEmail"`
	NotifyAdmin      bool   `json:"notifyAdmin"`
	NotifyDispatch   bool   `json:"notifyDispatch"`
	NotifyAccounts   bool   `json:"notifyAccounts"`
	AdminTemplate    string `json:"adminTemplate,omitempty"`
	DispatchTemplate string `json:"dispatchTemplate,omitempty"`
	AccountsTemplate string `json:"accountsTemplate,omitempty"`
}

// DefaultEmailSettings is the record used on first load and as the fallback
// when the persisted record is corrupt.
func DefaultEmailSettings() EmailSettings {
	return EmailSettings{
		NotifyAdmin:    true,
		NotifyDispatch: true,
		NotifyAccounts: false,
	}
}

// UserProfile captures the canonical projection of an authenticated buyer.
type UserProfile struct {
	ID            string
	DisplayName   string
	Email         string
	BusinessName  string
	Phone         string
	Role          string
	PricingTierID string
	Approved      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Asset records an uploaded object living in the assets bucket.
type Asset struct {
	ID          string
	Bucket      string
	ObjectName  string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes into an overall status.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}

// SignedAssetResponse carries a signed URL handed to the client for direct
// bucket access.
type SignedAssetResponse struct {
	AssetID   string
	URL       string
	ExpiresAt time.Time
	Method    string
	Headers   map[string]string
}
