package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

type emailSettingsPayload struct {
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

// updateEmailSettingsRequest uses pointers so absent fields leave the stored
// record untouched.
type updateEmailSettingsRequest struct {
	AdminEmail       *string `json:"adminEmail"`
	DispatchEmail    *string `json:"dispatchEmail"`
	AccountsEmail    *string `json:"accountsEmail"`
	NotifyAdmin      *bool   `json:"notifyAdmin"`
	NotifyDispatch   *bool   `json:"notifyDispatch"`
	NotifyAccounts   *bool   `json:"notifyAccounts"`
	AdminTemplate    *string `json:"adminTemplate"`
	DispatchTemplate *string `json:"dispatchTemplate"`
	AccountsTemplate *string `json:"accountsTemplate"`
}

func buildEmailSettingsPayload(settings services.EmailSettings) emailSettingsPayload {
	return emailSettingsPayload(settings)
}

func (h *AdminHandlers) requireEmail(w http.ResponseWriter, r *http.Request) bool {
	if h.email != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("email_service_unavailable", "email service is unavailable", http.StatusServiceUnavailable))
	return false
}

func (h *AdminHandlers) emailSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireEmail(w, r) {
		return
	}

	settings, err := h.email.Settings(ctx)
	if err != nil {
		writeEmailError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildEmailSettingsPayload(settings))
}

func (h *AdminHandlers) updateEmailSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireEmail(w, r) {
		return
	}

	var req updateEmailSettingsRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	settings, err := h.email.UpdateSettings(ctx, services.UpdateEmailSettingsCommand{
		AdminEmail:       req.AdminEmail,
		DispatchEmail:    req.DispatchEmail,
		AccountsEmail:    req.AccountsEmail,
		NotifyAdmin:      req.NotifyAdmin,
		NotifyDispatch:   req.NotifyDispatch,
		NotifyAccounts:   req.NotifyAccounts,
		AdminTemplate:    req.AdminTemplate,
		DispatchTemplate: req.DispatchTemplate,
		AccountsTemplate: req.AccountsTemplate,
	})
	if err != nil {
		writeEmailError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildEmailSettingsPayload(settings))
}

func writeEmailError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEmailSettingsUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("email_settings_unavailable", "email settings are unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrEmailPublisherUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("email_publisher_unavailable", "email publisher is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("email_error", "email request failed", http.StatusInternalServerError))
	}
}
