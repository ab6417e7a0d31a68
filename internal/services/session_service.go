package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/session"
)

// Session service sentinel errors.
var (
	ErrSessionInvalidInput = errors.New("session service: invalid input")
	ErrSessionUnavailable  = errors.New("session service: temporarily unavailable")
)

// ActivityStore persists the last-activity instant per profile as epoch
// milliseconds, the representation the storefront has always used.
type ActivityStore interface {
	Touch(ctx context.Context, profileID string, at time.Time) error
	LastActivity(ctx context.Context, profileID string) (int64, error)
}

// SessionServiceDeps wires the activity store and clock.
type SessionServiceDeps struct {
	Activity ActivityStore
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
}

type sessionService struct {
	activity ActivityStore
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
}

var _ SessionService = (*sessionService)(nil)

// NewSessionService constructs the inactivity-guard service.
func NewSessionService(deps SessionServiceDeps) (SessionService, error) {
	if deps.Activity == nil {
		return nil, errors.New("session service: activity store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &sessionService{
		activity: deps.Activity,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

// Touch records the current instant as the user's last activity.
func (s *sessionService) Touch(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrSessionInvalidInput)
	}
	if err := s.activity.Touch(ctx, userID, s.now()); err != nil {
		return ErrSessionUnavailable
	}
	return nil
}

// Status evaluates the guard. A profile with no recorded activity reports as
// expired with zero timestamps.
func (s *sessionService) Status(ctx context.Context, userID string) (SessionStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SessionStatus{}, fmt.Errorf("%w: user id is required", ErrSessionInvalidInput)
	}

	millis, err := s.activity.LastActivity(ctx, userID)
	if err != nil {
		return SessionStatus{}, ErrSessionUnavailable
	}

	now := s.now()
	if millis <= 0 {
		return SessionStatus{Expired: true}, nil
	}

	last := time.UnixMilli(millis).UTC()
	return SessionStatus{
		LastActivity: last,
		ExpiresAt:    last.Add(session.InactivityTimeout),
		Expired:      session.Expired(last, now),
	}, nil
}
