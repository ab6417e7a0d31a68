package services

import (
	"context"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	Product             = domain.Product
	PricingTier         = domain.PricingTier
	ShippingOption      = domain.ShippingOption
	CartLine            = domain.CartLine
	Order               = domain.Order
	OrderItem           = domain.OrderItem
	OrderStatus         = domain.OrderStatus
	OrderTotals         = domain.OrderTotals
	EmailSettings       = domain.EmailSettings
	UserProfile         = domain.UserProfile
	SystemHealthReport  = domain.SystemHealthReport
	SignedAssetResponse = domain.SignedAssetResponse
)

// PricedProduct pairs a catalog entry with the effective unit price for the
// requesting buyer's tier.
type PricedProduct struct {
	Product     Product
	TieredPrice int64
}

// CatalogService serves the public catalog and the admin CRUD surfaces for
// products, pricing tiers, and shipping options.
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[PricedProduct], error)
	GetProduct(ctx context.Context, productID string, tier PricingTier) (PricedProduct, error)
	UpsertProduct(ctx context.Context, product Product) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	ListPricingTiers(ctx context.Context) ([]PricingTier, error)
	UpsertPricingTier(ctx context.Context, tier PricingTier) (PricingTier, error)
	DeletePricingTier(ctx context.Context, tierID string) error

	ListShippingOptions(ctx context.Context, activeOnly bool) ([]ShippingOption, error)
	UpsertShippingOption(ctx context.Context, option ShippingOption) (ShippingOption, error)
	DeleteShippingOption(ctx context.Context, optionID string) error
}

// ProductListQuery filters and pages the catalog listing. Tier carries the
// requesting buyer's pricing tier so list prices come back pre-discounted.
type ProductListQuery struct {
	Category    string
	InStockOnly bool
	Tier        PricingTier
	Pagination  Pagination
}

// PricingService resolves the tier applied to a buyer's prices.
type PricingService interface {
	// TierForUser returns the buyer's assigned tier, falling back to the
	// default tier, then to a zero-discount tier.
	TierForUser(ctx context.Context, userID string) (PricingTier, error)
}

// CartView is the cart as returned to the storefront: the raw lines plus the
// derived totals with the buyer's tier applied.
type CartView struct {
	Lines      []CartLine
	TotalItems int
	Subtotal   int64
	Currency   string
}

// CartService owns the authenticated per-user cart. Every mutation persists
// the full line sequence through the client-state adapter before returning.
type CartService interface {
	Get(ctx context.Context, userID string) (CartView, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (CartView, error)
	Clear(ctx context.Context, userID string) error
}

// AddCartItemCommand adds quantity units of a product to the buyer's cart.
type AddCartItemCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

// CheckoutQuote prices the current cart against a chosen delivery method.
type CheckoutQuote struct {
	Lines          []CartLine
	Totals         OrderTotals
	ShippingOption ShippingOption
	Currency       string
}

// CheckoutResult reports the confirmed order and the client secret the
// storefront needs to complete payment.
type CheckoutResult struct {
	Order               Order
	PaymentClientSecret string
}

// CheckoutService quotes and confirms wholesale purchases. Confirm is a
// single attempt: any failure surfaces to the caller unretried.
type CheckoutService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (CheckoutQuote, error)
	Confirm(ctx context.Context, cmd ConfirmCommand) (CheckoutResult, error)
}

// QuoteCommand prices the buyer's cart with a delivery method applied.
type QuoteCommand struct {
	UserID           string
	ShippingOptionID string
}

// ConfirmCommand turns the buyer's cart into an order.
type ConfirmCommand struct {
	UserID           string
	ShippingOptionID string
	ContactEmail     string
}

// OrderService reads and transitions persisted orders.
type OrderService interface {
	ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[Order], error)
	GetOrder(ctx context.Context, cmd GetOrderCommand) (Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
}

// OrderListQuery scopes the listing. Non-admin callers are always restricted
// to their own orders regardless of UserID.
type OrderListQuery struct {
	RequestedBy string
	Admin       bool
	UserID      string
	Status      []OrderStatus
	Pagination  Pagination
}

// GetOrderCommand fetches one order with ownership enforcement.
type GetOrderCommand struct {
	RequestedBy string
	Admin       bool
	OrderID     string
}

// UpdateOrderStatusCommand transitions an order, admin only.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  OrderStatus
}

// UpdateEmailSettingsCommand shallow-merges the set fields into the stored
// record. Nil pointers leave the stored value untouched.
type UpdateEmailSettingsCommand struct {
	AdminEmail       *string
	DispatchEmail    *string
	AccountsEmail    *string
	NotifyAdmin      *bool
	NotifyDispatch   *bool
	NotifyAccounts   *bool
	AdminTemplate    *string
	DispatchTemplate *string
	AccountsTemplate *string
}

// EmailService owns the notification settings record and the order-email
// fan-out. A class whose notify flag is set but whose address is empty is
// skipped at dispatch time with a logged warning.
type EmailService interface {
	Settings(ctx context.Context) (EmailSettings, error)
	UpdateSettings(ctx context.Context, cmd UpdateEmailSettingsCommand) (EmailSettings, error)
	DispatchOrderEmails(ctx context.Context, order Order) ([]string, error)
}

// EmailJobMessage is the Pub/Sub payload for one order email.
type EmailJobMessage struct {
	JobID          string    `json:"jobId"`
	OrderID        string    `json:"orderId"`
	RecipientClass string    `json:"recipientClass"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	QueuedAt       time.Time `json:"queuedAt"`
}

// EmailJobPublisher hands an email job to the message broker and returns the
// broker-assigned message ID.
type EmailJobPublisher interface {
	PublishEmailJob(ctx context.Context, msg EmailJobMessage) (string, error)
}

// UserService covers profile reads for /me and the admin user management
// surface. Role changes are mirrored into the Firebase custom claims.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	SyncProfile(ctx context.Context, profile UserProfile) (UserProfile, error)
	ListUsers(ctx context.Context, query UserListQuery) (domain.CursorPage[UserProfile], error)
	SetRole(ctx context.Context, userID, role string) (UserProfile, error)
	Approve(ctx context.Context, userID string) (UserProfile, error)
	AssignPricingTier(ctx context.Context, userID, tierID string) (UserProfile, error)
}

// UserListQuery filters the admin user listing.
type UserListQuery struct {
	Role          string
	PricingTierID string
	ApprovedOnly  bool
	Pagination    Pagination
}

// AssetService issues signed URLs and tracks object metadata. SetSiteIcon
// promotes an uploaded asset to the canonical site icon object and records
// the pointer in client state.
type AssetService interface {
	CreateUpload(ctx context.Context, cmd CreateAssetUploadCommand) (SignedAssetResponse, error)
	ConfirmUpload(ctx context.Context, assetID, actorID string) error
	CreateDownload(ctx context.Context, assetID string) (SignedAssetResponse, error)
	DeleteAsset(ctx context.Context, assetID string) error
	SetSiteIcon(ctx context.Context, assetID string) error
	SiteIcon(ctx context.Context) (string, error)
}

// CreateAssetUploadCommand describes the object an admin wants to upload.
type CreateAssetUploadCommand struct {
	ActorID     string
	Purpose     string
	ProductID   string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// SessionStatus reports the activity-guard state for a profile.
type SessionStatus struct {
	LastActivity time.Time
	ExpiresAt    time.Time
	Expired      bool
}

// SessionService records per-user activity and evaluates the inactivity guard.
type SessionService interface {
	Touch(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (SessionStatus, error)
}

// SystemService exposes aggregate dependency health for readiness probes.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}
