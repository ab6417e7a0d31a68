package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/pagination"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

// AdminHandlers groups every endpoint reserved for operators. The whole
// group sits behind the admin role check.
type AdminHandlers struct {
	authn   *auth.Authenticator
	users   services.UserService
	catalog services.CatalogService
	orders  services.OrderService
	email   services.EmailService
	assets  services.AssetService
}

// AdminHandlersConfig carries the services the admin surface depends on.
type AdminHandlersConfig struct {
	Authenticator *auth.Authenticator
	Users         services.UserService
	Catalog       services.CatalogService
	Orders        services.OrderService
	Email         services.EmailService
	Assets        services.AssetService
}

const maxAdminBodySize = 64 * 1024

// NewAdminHandlers constructs the operator endpoints.
func NewAdminHandlers(cfg AdminHandlersConfig) *AdminHandlers {
	return &AdminHandlers{
		authn:   cfg.Authenticator,
		users:   cfg.Users,
		catalog: cfg.Catalog,
		orders:  cfg.Orders,
		email:   cfg.Email,
		assets:  cfg.Assets,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}

	r.Get("/users", h.listUsers)
	r.Put("/users/{userID}/role", h.setUserRole)
	r.Post("/users/{userID}/approve", h.approveUser)
	r.Put("/users/{userID}/pricing-tier", h.assignUserTier)

	r.Post("/products", h.upsertProduct)
	r.Put("/products/{productID}", h.upsertProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Get("/pricing-tiers", h.listPricingTiers)
	r.Post("/pricing-tiers", h.upsertPricingTier)
	r.Put("/pricing-tiers/{tierID}", h.upsertPricingTier)
	r.Delete("/pricing-tiers/{tierID}", h.deletePricingTier)

	r.Get("/shipping-options", h.listAdminShippingOptions)
	r.Post("/shipping-options", h.upsertShippingOption)
	r.Put("/shipping-options/{optionID}", h.upsertShippingOption)
	r.Delete("/shipping-options/{optionID}", h.deleteShippingOption)

	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Put("/orders/{orderID}/status", h.updateOrderStatus)

	r.Get("/email-settings", h.emailSettings)
	r.Put("/email-settings", h.updateEmailSettings)

	r.Post("/assets/uploads", h.createAssetUpload)
	r.Post("/assets/{assetID}/confirm", h.confirmAssetUpload)
	r.Get("/assets/{assetID}/download", h.createAssetDownload)
	r.Delete("/assets/{assetID}", h.deleteAsset)

	r.Get("/site-icon", h.siteIcon)
	r.Put("/site-icon", h.setSiteIcon)
}

type userListResponse struct {
	Users         []profilePayload `json:"users"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type setUserRoleRequest struct {
	Role string `json:"role"`
}

type assignUserTierRequest struct {
	PricingTierID string `json:"pricingTierId"`
}

func (h *AdminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{
		DefaultPageSize: pagination.DefaultPageSize,
		MaxPageSize:     pagination.DefaultMaxPageSize,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	query := services.UserListQuery{
		Role:          r.URL.Query().Get("role"),
		PricingTierID: r.URL.Query().Get("pricingTierId"),
		ApprovedOnly:  r.URL.Query().Get("approved") == "true",
		Pagination: domain.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	}

	page, err := h.users.ListUsers(ctx, query)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	resp := userListResponse{
		Users:         make([]profilePayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, profile := range page.Items {
		resp.Users = append(resp.Users, buildProfilePayload(profile))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *AdminHandlers) setUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req setUserRoleRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	profile, err := h.users.SetRole(ctx, chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProfilePayload(profile))
}

func (h *AdminHandlers) approveUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	profile, err := h.users.Approve(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProfilePayload(profile))
}

func (h *AdminHandlers) assignUserTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req assignUserTierRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	profile, err := h.users.AssignPricingTier(ctx, chi.URLParam(r, "userID"), req.PricingTierID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProfilePayload(profile))
}
