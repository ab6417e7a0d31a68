package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

// MeHandlers serves the authenticated caller's own profile and the
// inactivity guard used by the storefront to decide when to sign out.
type MeHandlers struct {
	authn    *auth.Authenticator
	users    services.UserService
	sessions services.SessionService
}

const maxProfileBodySize = 16 * 1024

// NewMeHandlers constructs the /me endpoints.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService, sessions services.SessionService) *MeHandlers {
	return &MeHandlers{authn: authn, users: users, sessions: sessions}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.profile)
	r.Put("/", h.syncProfile)
	r.Get("/session", h.sessionStatus)
	r.Post("/session/touch", h.touchSession)
}

type profilePayload struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName,omitempty"`
	Email         string `json:"email,omitempty"`
	BusinessName  string `json:"businessName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Role          string `json:"role"`
	PricingTierID string `json:"pricingTierId,omitempty"`
	Approved      bool   `json:"approved"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

type syncProfileRequest struct {
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
	BusinessName string `json:"businessName"`
	Phone        string `json:"phone"`
}

type sessionStatusPayload struct {
	LastActivity string `json:"lastActivity,omitempty"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	Expired      bool   `json:"expired"`
}

func buildProfilePayload(profile services.UserProfile) profilePayload {
	return profilePayload{
		ID:            profile.ID,
		DisplayName:   profile.DisplayName,
		Email:         profile.Email,
		BusinessName:  profile.BusinessName,
		Phone:         profile.Phone,
		Role:          profile.Role,
		PricingTierID: profile.PricingTierID,
		Approved:      profile.Approved,
		CreatedAt:     formatTime(profile.CreatedAt),
		UpdatedAt:     formatTime(profile.UpdatedAt),
	}
}

func (h *MeHandlers) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(ctx, identity.UID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProfilePayload(profile))
}

func (h *MeHandlers) syncProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req syncProfileRequest
	if err := decodeJSONBody(r, maxProfileBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	email := req.Email
	if email == "" {
		email = identity.Email
	}

	profile, err := h.users.SyncProfile(ctx, services.UserProfile{
		ID:           identity.UID,
		DisplayName:  req.DisplayName,
		Email:        email,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProfilePayload(profile))
}

func (h *MeHandlers) sessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("session_service_unavailable", "session service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	status, err := h.sessions.Status(ctx, identity.UID)
	if err != nil {
		writeSessionError(ctx, w, err)
		return
	}

	payload := sessionStatusPayload{Expired: status.Expired}
	if !status.LastActivity.IsZero() {
		payload.LastActivity = formatTime(status.LastActivity)
		payload.ExpiresAt = formatTime(status.ExpiresAt)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *MeHandlers) touchSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("session_service_unavailable", "session service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.sessions.Touch(ctx, identity.UID); err != nil {
		writeSessionError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

// SessionActivity records each authenticated request as user activity so the
// inactivity guard reflects API usage, not just explicit touches. Recording
// failures never fail the request.
func SessionActivity(sessions services.SessionService, logger func(context.Context, string, map[string]any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions != nil {
				if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.UID != "" {
					if err := sessions.Touch(r.Context(), identity.UID); err != nil && logger != nil {
						logger(r.Context(), "session.touch_failed", map[string]any{
							"uid":   identity.UID,
							"error": err.Error(),
							"at":    time.Now().UTC().Format(time.RFC3339),
						})
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserConflict):
		httpx.WriteError(ctx, w, httpx.NewError("user_conflict", "user update conflicts with stored state", http.StatusConflict))
	case errors.Is(err, services.ErrUserUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "user request failed", http.StatusInternalServerError))
	}
}

func writeSessionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSessionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("session_service_unavailable", "session service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("session_error", "session request failed", http.StatusInternalServerError))
	}
}
