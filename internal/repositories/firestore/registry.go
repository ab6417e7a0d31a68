package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
	pstorage "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/storage"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	products        *ProductRepository
	pricingTiers    *PricingTierRepository
	shippingOptions *ShippingOptionRepository
	orders          *OrderRepository
	users           *UserRepository
	assets          *AssetRepository
	counters        *CounterRepository
	health          repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository against the shared provider. The health
// repository is injected because its dependency checks span more than Firestore.
func NewRegistry(provider *pfirestore.Provider, storageClient *pstorage.Client, assetsBucket string, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}
	if health == nil {
		return nil, errors.New("registry: health repository is required")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	pricingTiers, err := NewPricingTierRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	shippingOptions, err := NewShippingOptionRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	assets, err := NewAssetRepository(provider, storageClient, assetsBucket)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	return &Registry{
		provider:        provider,
		products:        products,
		pricingTiers:    pricingTiers,
		shippingOptions: shippingOptions,
		orders:          orders,
		users:           users,
		assets:          assets,
		counters:        counters,
		health:          health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Products() repositories.ProductRepository { return r.products }

func (r *Registry) PricingTiers() repositories.PricingTierRepository { return r.pricingTiers }

func (r *Registry) ShippingOptions() repositories.ShippingOptionRepository { return r.shippingOptions }

func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

func (r *Registry) Users() repositories.UserRepository { return r.users }

func (r *Registry) Assets() repositories.AssetRepository { return r.assets }

func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

func (r *Registry) Health() repositories.HealthRepository { return r.health }
