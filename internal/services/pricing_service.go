package services

import (
	"context"
	"errors"
	"strings"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// ErrPricingUnavailable indicates tier data could not be read from the backend.
var ErrPricingUnavailable = errors.New("pricing service: unavailable")

// PricingServiceDeps wires the repositories behind tier resolution.
type PricingServiceDeps struct {
	Users        repositories.UserRepository
	PricingTiers repositories.PricingTierRepository
	Logger       func(context.Context, string, map[string]any)
}

type pricingService struct {
	users  repositories.UserRepository
	tiers  repositories.PricingTierRepository
	logger func(context.Context, string, map[string]any)
}

var _ PricingService = (*pricingService)(nil)

// NewPricingService constructs the tier resolver used by catalog and cart pricing.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	if deps.Users == nil {
		return nil, errors.New("pricing service: user repository is required")
	}
	if deps.PricingTiers == nil {
		return nil, errors.New("pricing service: pricing tier repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &pricingService{
		users:  deps.Users,
		tiers:  deps.PricingTiers,
		logger: logger,
	}, nil
}

// TierForUser resolves the buyer's assigned tier. An anonymous caller, a
// buyer with no assignment, or a dangling tier reference all fall back to the
// default tier; with no default tier configured prices are undiscounted.
func (s *pricingService) TierForUser(ctx context.Context, userID string) (PricingTier, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return s.defaultTier(ctx)
	}

	profile, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return s.defaultTier(ctx)
		}
		return PricingTier{}, ErrPricingUnavailable
	}

	tierID := strings.TrimSpace(profile.PricingTierID)
	if tierID == "" {
		return s.defaultTier(ctx)
	}

	tier, err := s.tiers.FindByID(ctx, tierID)
	if err != nil {
		if isRepoNotFound(err) {
			s.logger(ctx, "pricing.tier_dangling", map[string]any{
				"userID": uid,
				"tierID": tierID,
			})
			return s.defaultTier(ctx)
		}
		return PricingTier{}, ErrPricingUnavailable
	}
	return tier, nil
}

func (s *pricingService) defaultTier(ctx context.Context) (PricingTier, error) {
	tier, err := s.tiers.FindDefault(ctx)
	if err != nil {
		if isRepoNotFound(err) {
			return PricingTier{}, nil
		}
		return PricingTier{}, ErrPricingUnavailable
	}
	return tier, nil
}
