package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// User service sentinel errors.
var (
	ErrUserInvalidInput = errors.New("user service: invalid input")
	ErrUserNotFound     = errors.New("user service: user not found")
	ErrUserConflict     = errors.New("user service: conflict")
	ErrUserUnavailable  = errors.New("user service: temporarily unavailable")
)

const defaultUserPageSize = 25

// RoleClaimWriter mirrors role changes into the identity provider's custom
// claims so the next issued token carries the new role.
type RoleClaimWriter interface {
	SetRole(ctx context.Context, uid, role string) error
}

// UserServiceDeps wires the user service dependencies.
type UserServiceDeps struct {
	Users  repositories.UserRepository
	Claims RoleClaimWriter
	Logger func(context.Context, string, map[string]any)
}

type userService struct {
	users  repositories.UserRepository
	claims RoleClaimWriter
	logger func(context.Context, string, map[string]any)
}

var _ UserService = (*userService)(nil)

// NewUserService constructs the profile and user-management service.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &userService{
		users:  deps.Users,
		claims: deps.Claims,
		logger: logger,
	}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserProfile{}, s.translate(err)
	}
	return profile, nil
}

// SyncProfile upserts the caller's profile record on login. New buyers start
// unapproved with the fallback role; fields already managed by an admin
// (role, approval, tier) are preserved across syncs.
func (s *userService) SyncProfile(ctx context.Context, profile UserProfile) (UserProfile, error) {
	profile.ID = strings.TrimSpace(profile.ID)
	if profile.ID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	if strings.TrimSpace(profile.Email) == "" {
		return UserProfile{}, fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}

	existing, err := s.users.FindByID(ctx, profile.ID)
	switch {
	case err == nil:
		profile.Role = existing.Role
		profile.Approved = existing.Approved
		profile.PricingTierID = existing.PricingTierID
		profile.CreatedAt = existing.CreatedAt
	case isRepoNotFound(err):
		profile.Role = auth.RoleRetail
		profile.Approved = false
		profile.PricingTierID = ""
	default:
		return UserProfile{}, s.translate(err)
	}

	saved, err := s.users.Upsert(ctx, profile)
	if err != nil {
		return UserProfile{}, s.translate(err)
	}
	s.logger(ctx, "user.profile_synced", map[string]any{"userID": saved.ID})
	return saved, nil
}

func (s *userService) ListUsers(ctx context.Context, query UserListQuery) (domain.CursorPage[UserProfile], error) {
	pagination := query.Pagination
	if pagination.PageSize <= 0 {
		pagination.PageSize = defaultUserPageSize
	}

	role := strings.ToLower(strings.TrimSpace(query.Role))
	if role != "" && !knownRole(role) {
		return domain.CursorPage[UserProfile]{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, query.Role)
	}

	page, err := s.users.List(ctx, repositories.UserListFilter{
		Role:          role,
		PricingTierID: strings.TrimSpace(query.PricingTierID),
		ApprovedOnly:  query.ApprovedOnly,
		Pagination:    pagination,
	})
	if err != nil {
		return domain.CursorPage[UserProfile]{}, s.translate(err)
	}
	return page, nil
}

// SetRole updates the stored role and mirrors it into the auth custom claims.
// The claim write happens after the repository update; a claim failure is
// surfaced so the caller can retry, leaving the stored role authoritative.
func (s *userService) SetRole(ctx context.Context, userID, role string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !knownRole(role) {
		return UserProfile{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, role)
	}

	profile, err := s.users.SetRole(ctx, userID, role)
	if err != nil {
		return UserProfile{}, s.translate(err)
	}

	if s.claims != nil {
		if err := s.claims.SetRole(ctx, userID, role); err != nil {
			s.logger(ctx, "user.role_claim_failed", map[string]any{
				"userID": userID,
				"role":   role,
				"error":  err.Error(),
			})
			return UserProfile{}, fmt.Errorf("%w: role claim update failed", ErrUserUnavailable)
		}
	}

	s.logger(ctx, "user.role_updated", map[string]any{"userID": userID, "role": role})
	return profile, nil
}

func (s *userService) Approve(ctx context.Context, userID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	profile, err := s.users.SetApproved(ctx, userID, true)
	if err != nil {
		return UserProfile{}, s.translate(err)
	}
	s.logger(ctx, "user.approved", map[string]any{"userID": userID})
	return profile, nil
}

func (s *userService) AssignPricingTier(ctx context.Context, userID, tierID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	// An empty tier id clears the assignment and drops the buyer back to the
	// default tier.
	profile, err := s.users.AssignPricingTier(ctx, userID, strings.TrimSpace(tierID))
	if err != nil {
		return UserProfile{}, s.translate(err)
	}
	s.logger(ctx, "user.pricing_tier_assigned", map[string]any{
		"userID": userID,
		"tierID": tierID,
	})
	return profile, nil
}

func (s *userService) translate(err error) error {
	return translateRepoError(err, ErrUserNotFound, ErrUserConflict, ErrUserUnavailable)
}

func knownRole(role string) bool {
	switch role {
	case auth.RoleRetail, auth.RoleDistributor, auth.RoleAdmin:
		return true
	}
	return false
}
