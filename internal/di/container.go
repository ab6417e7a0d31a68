package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/clientstate"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/payments"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/config"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Pricing  services.PricingService
	Catalog  services.CatalogService
	Cart     services.CartService
	Checkout services.CheckoutService
	Orders   services.OrderService
	Email    services.EmailService
	Users    services.UserService
	Assets   services.AssetService
	Sessions services.SessionService
	System   services.SystemService
}

// Deps carries the infrastructure the container wires into services. The
// registry and client-state KV are mandatory; the rest degrade gracefully
// when absent so partial wiring works in tests.
type Deps struct {
	Registry       repositories.Registry
	State          clientstate.KV
	Payments       payments.Provider
	EmailPublisher services.EmailJobPublisher
	Copier         services.ObjectCopier
	Claims         services.RoleClaimWriter
	Logger         func(context.Context, string, map[string]any)
	Clock          func() time.Time
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries and KV stores.
func NewContainer(ctx context.Context, cfg config.Config, deps Deps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("repositories registry is required")
	}
	if deps.State == nil {
		return nil, errors.New("client state store is required")
	}

	svc, err := buildServices(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: deps.Registry,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, deps Deps) (Services, error) {
	var svc Services

	reg := deps.Registry
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	cartStore, err := clientstate.NewCartAdapter(deps.State)
	if err != nil {
		return Services{}, fmt.Errorf("build cart state adapter: %w", err)
	}
	settingsStore, err := clientstate.NewSettingsAdapter(deps.State)
	if err != nil {
		return Services{}, fmt.Errorf("build settings state adapter: %w", err)
	}
	activityStore, err := clientstate.NewActivityAdapter(deps.State)
	if err != nil {
		return Services{}, fmt.Errorf("build activity state adapter: %w", err)
	}

	pricingSvc, err := services.NewPricingService(services.PricingServiceDeps{
		Users:        reg.Users(),
		PricingTiers: reg.PricingTiers(),
		Logger:       deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing service: %w", err)
	}
	svc.Pricing = pricingSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        reg.Products(),
		PricingTiers:    reg.PricingTiers(),
		ShippingOptions: reg.ShippingOptions(),
		Logger:          deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Store:           cartStore,
		Products:        reg.Products(),
		Pricing:         pricingSvc,
		DefaultCurrency: cfg.Checkout.Currency,
		Logger:          deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	emailSvc, err := services.NewEmailService(services.EmailServiceDeps{
		Store:     settingsStore,
		Publisher: deps.EmailPublisher,
		Clock:     clock,
		Logger:    deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build email service: %w", err)
	}
	svc.Email = emailSvc

	if deps.Payments != nil {
		checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
			CartStore: cartStore,
			Pricing:   pricingSvc,
			Shipping:  reg.ShippingOptions(),
			Orders:    reg.Orders(),
			Counters:  reg.Counters(),
			Payments:  deps.Payments,
			Email:     svc.Email,
			Currency:  cfg.Checkout.Currency,
			Clock:     clock,
			Logger:    deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build checkout service: %w", err)
		}
		svc.Checkout = checkoutSvc
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: reg.Orders(),
		Clock:  clock,
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:  reg.Users(),
		Claims: deps.Claims,
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = userSvc

	assetSvc, err := services.NewAssetService(services.AssetServiceDeps{
		Assets: reg.Assets(),
		Copier: deps.Copier,
		State:  deps.State,
		Logger: deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build asset service: %w", err)
	}
	svc.Assets = assetSvc

	sessionSvc, err := services.NewSessionService(services.SessionServiceDeps{
		Activity: activityStore,
		Clock:    clock,
		Logger:   deps.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build session service: %w", err)
	}
	svc.Sessions = sessionSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			Health: healthRepo,
			Logger: deps.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
