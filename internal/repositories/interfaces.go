package repositories

import (
	"context"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	PricingTiers() PricingTierRepository
	ShippingOptions() ShippingOptionRepository
	Orders() OrderRepository
	Users() UserRepository
	Assets() AssetRepository
	Counters() CounterRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository persists wholesale catalog entries.
type ProductRepository interface {
	Upsert(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// PricingTierRepository persists discount tiers. The set is small enough to
// list without paging.
type PricingTierRepository interface {
	Upsert(ctx context.Context, tier domain.PricingTier) (domain.PricingTier, error)
	Delete(ctx context.Context, tierID string) error
	FindByID(ctx context.Context, tierID string) (domain.PricingTier, error)
	// FindDefault returns the tier flagged as default, or a not-found
	// RepositoryError when no tier carries the flag.
	FindDefault(ctx context.Context) (domain.PricingTier, error)
	List(ctx context.Context) ([]domain.PricingTier, error)
}

// ShippingOptionRepository persists the selectable delivery methods.
type ShippingOptionRepository interface {
	Upsert(ctx context.Context, option domain.ShippingOption) (domain.ShippingOption, error)
	Delete(ctx context.Context, optionID string) error
	FindByID(ctx context.Context, optionID string) (domain.ShippingOption, error)
	List(ctx context.Context, activeOnly bool) ([]domain.ShippingOption, error)
}

// OrderRepository persists order documents and provides query helpers for buyers and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// UserRepository stores buyer profiles. Role, approval, and tier mutations are
// transactional field updates so concurrent admin edits never clobber each other.
type UserRepository interface {
	Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
	List(ctx context.Context, filter UserListFilter) (domain.CursorPage[domain.UserProfile], error)
	SetRole(ctx context.Context, userID string, role string) (domain.UserProfile, error)
	SetApproved(ctx context.Context, userID string, approved bool) (domain.UserProfile, error)
	AssignPricingTier(ctx context.Context, userID string, tierID string) (domain.UserProfile, error)
}

// AssetRepository handles metadata synchronized with Cloud Storage objects.
type AssetRepository interface {
	CreateSignedUpload(ctx context.Context, cmd SignedUploadRecord) (domain.SignedAssetResponse, error)
	CreateSignedDownload(ctx context.Context, cmd SignedDownloadRecord) (domain.SignedAssetResponse, error)
	MarkUploaded(ctx context.Context, assetID string, actorID string, metadata map[string]any) error
	FindByID(ctx context.Context, assetID string) (domain.Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// CounterRepository provides transaction-safe sequence numbers, used for
// human-readable order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type ProductListFilter struct {
	Category    string
	InStockOnly bool
	Pagination  domain.Pagination
}

type OrderListFilter struct {
	UserID     string
	Status     []domain.OrderStatus
	Pagination domain.Pagination
}

type UserListFilter struct {
	Role          string
	PricingTierID string
	ApprovedOnly  bool
	Pagination    domain.Pagination
}

// SignedUploadRecord captures the metadata needed to issue an upload URL and
// register the pending asset.
type SignedUploadRecord struct {
	ActorID     string
	Purpose     string
	ProductID   string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// SignedDownloadRecord identifies the asset a caller wants to fetch. The
// caller identity is taken from the request context when authorising.
type SignedDownloadRecord struct {
	AssetID     string
	Disposition string
}
