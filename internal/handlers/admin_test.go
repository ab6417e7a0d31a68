package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/auth"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

type stubTokenVerifier struct {
	token *firebaseauth.Token
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func newAdminRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "admin-1", Roles: []string{auth.RoleAdmin}}))
}

func TestAdminHandlersRejectsNonAdminRole(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID:    "buyer-7",
		Claims: map[string]interface{}{"role": "retail"},
	}}
	authn := auth.NewAuthenticator(verifier)

	handler := NewAdminHandlers(AdminHandlersConfig{
		Authenticator: authn,
		Users:         &stubUserService{},
	})

	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer token")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestAdminHandlersAllowsAdminRole(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID:    "admin-1",
		Claims: map[string]interface{}{"role": "admin"},
	}}
	authn := auth.NewAuthenticator(verifier)

	handler := NewAdminHandlers(AdminHandlersConfig{
		Authenticator: authn,
		Users:         &stubUserService{},
	})

	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer token")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminHandlersListUsers(t *testing.T) {
	var captured services.UserListQuery
	users := &stubUserService{
		listUsersFunc: func(ctx context.Context, query services.UserListQuery) (domain.CursorPage[services.UserProfile], error) {
			captured = query
			return domain.CursorPage[services.UserProfile]{
				Items: []services.UserProfile{
					{ID: "buyer-7", Role: auth.RoleDistributor, Approved: true},
				},
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Users: users}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodGet, "/admin/users?role=distributor&approved=true&pageSize=10", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Role != "distributor" || !captured.ApprovedOnly {
		t.Fatalf("unexpected query %+v", captured)
	}
	if captured.Pagination.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", captured.Pagination.PageSize)
	}

	var resp userListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Role != "distributor" {
		t.Fatalf("unexpected users %+v", resp.Users)
	}
}

func TestAdminHandlersSetUserRole(t *testing.T) {
	users := &stubUserService{
		setRoleFunc: func(ctx context.Context, userID, role string) (services.UserProfile, error) {
			if userID != "buyer-7" || role != "distributor" {
				t.Fatalf("unexpected args %q %q", userID, role)
			}
			return services.UserProfile{ID: userID, Role: role}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Users: users}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/users/buyer-7/role", `{"role":"distributor"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminHandlersSetUserRoleUnknownRole(t *testing.T) {
	users := &stubUserService{
		setRoleFunc: func(ctx context.Context, userID, role string) (services.UserProfile, error) {
			return services.UserProfile{}, services.ErrUserInvalidInput
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Users: users}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/users/buyer-7/role", `{"role":"owner"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersUpsertProduct(t *testing.T) {
	catalog := &stubCatalogService{
		upsertProductFn: func(ctx context.Context, product services.Product) (services.Product, error) {
			if product.ID != "prod-1" || product.UnitPrice != 1200 {
				t.Fatalf("unexpected product %+v", product)
			}
			product.UpdatedAt = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
			return product, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Catalog: catalog}).Routes)

	body := `{"sku":"PPP-1KG","name":"Pea Protein 1kg","unitPrice":1200,"currency":"aud","inStock":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/products/prod-1", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp adminProductPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "prod-1" || resp.UnitPrice != 1200 {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestAdminHandlersUpsertPricingTierValidation(t *testing.T) {
	catalog := &stubCatalogService{
		upsertTierFunc: func(ctx context.Context, tier services.PricingTier) (services.PricingTier, error) {
			return services.PricingTier{}, services.ErrCatalogInvalidInput
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Catalog: catalog}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPost, "/admin/pricing-tiers", `{"name":"Gold","discountPercent":120}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersListShippingOptionsIncludesInactive(t *testing.T) {
	catalog := &stubCatalogService{
		listShippingFunc: func(ctx context.Context, activeOnly bool) ([]services.ShippingOption, error) {
			if activeOnly {
				t.Fatalf("expected admin listing to include inactive options")
			}
			return []services.ShippingOption{
				{ID: "ship-old", Name: "Legacy Courier", Carrier: domain.CarrierCourier, Active: false},
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Catalog: catalog}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodGet, "/admin/shipping-options", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "ship-old") {
		t.Fatalf("expected inactive option in %s", rr.Body.String())
	}
}

func TestAdminHandlersUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderService{
		updateFunc: func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
			if cmd.OrderID != "order-1" || cmd.Status != domain.OrderStatusDispatched {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return services.Order{ID: "order-1", Status: cmd.Status}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Orders: orders}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/orders/order-1/status", `{"status":"dispatched"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminHandlersListOrdersAdminScope(t *testing.T) {
	var captured services.OrderListQuery
	orders := &stubOrderService{
		listFunc: func(ctx context.Context, query services.OrderListQuery) (domain.CursorPage[services.Order], error) {
			captured = query
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Orders: orders}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodGet, "/admin/orders?userId=buyer-7&status=paid", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !captured.Admin || captured.UserID != "buyer-7" {
		t.Fatalf("expected admin scoped query, got %+v", captured)
	}
}

func TestAdminHandlersUpdateEmailSettingsPartial(t *testing.T) {
	var captured services.UpdateEmailSettingsCommand
	email := &stubEmailService{
		updateFunc: func(ctx context.Context, cmd services.UpdateEmailSettingsCommand) (services.EmailSettings, error) {
			captured = cmd
			return domain.EmailSettings{AdminEmail: "ops@example.com", NotifyAdmin: true}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Email: email}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/email-settings", `{"adminEmail":"ops@example.com"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.AdminEmail == nil || *captured.AdminEmail != "ops@example.com" {
		t.Fatalf("expected adminEmail pointer, got %+v", captured)
	}
	if captured.NotifyAdmin != nil || captured.DispatchEmail != nil {
		t.Fatalf("expected absent fields to stay nil, got %+v", captured)
	}
}

func TestAdminHandlersCreateAssetUpload(t *testing.T) {
	assets := &stubAssetService{
		createUploadFunc: func(ctx context.Context, cmd services.CreateAssetUploadCommand) (services.SignedAssetResponse, error) {
			if cmd.ActorID != "admin-1" || cmd.Purpose != "site-icon" {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return services.SignedAssetResponse{
				AssetID:   "asset-1",
				URL:       "https://storage.example.com/upload",
				Method:    http.MethodPut,
				ExpiresAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Assets: assets}).Routes)

	body := `{"purpose":"site-icon","fileName":"icon.png","contentType":"image/png","sizeBytes":2048}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPost, "/admin/assets/uploads", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp signedAssetPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AssetID != "asset-1" || resp.Method != http.MethodPut {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestAdminHandlersSetSiteIconNotReady(t *testing.T) {
	assets := &stubAssetService{
		setSiteIconFunc: func(ctx context.Context, assetID string) error {
			return services.ErrAssetNotReady
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Assets: assets}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodPut, "/admin/site-icon", `{"assetId":"asset-1"}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminHandlersSiteIcon(t *testing.T) {
	assets := &stubAssetService{
		siteIconFunc: func(ctx context.Context) (string, error) {
			return "assets/site/icon/icon.png", nil
		},
	}

	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(AdminHandlersConfig{Assets: assets}).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newAdminRequest(http.MethodGet, "/admin/site-icon", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp siteIconPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Object != "assets/site/icon/icon.png" {
		t.Fatalf("unexpected object %q", resp.Object)
	}
}

type stubEmailService struct {
	settingsFunc func(ctx context.Context) (services.EmailSettings, error)
	updateFunc   func(ctx context.Context, cmd services.UpdateEmailSettingsCommand) (services.EmailSettings, error)
	dispatchFunc func(ctx context.Context, order services.Order) ([]string, error)
}

func (s *stubEmailService) Settings(ctx context.Context) (services.EmailSettings, error) {
	if s.settingsFunc != nil {
		return s.settingsFunc(ctx)
	}
	return domain.DefaultEmailSettings(), nil
}

func (s *stubEmailService) UpdateSettings(ctx context.Context, cmd services.UpdateEmailSettingsCommand) (services.EmailSettings, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, cmd)
	}
	return domain.DefaultEmailSettings(), nil
}

func (s *stubEmailService) DispatchOrderEmails(ctx context.Context, order services.Order) ([]string, error) {
	if s.dispatchFunc != nil {
		return s.dispatchFunc(ctx, order)
	}
	return nil, nil
}

type stubAssetService struct {
	createUploadFunc   func(ctx context.Context, cmd services.CreateAssetUploadCommand) (services.SignedAssetResponse, error)
	confirmUploadFunc  func(ctx context.Context, assetID, actorID string) error
	createDownloadFunc func(ctx context.Context, assetID string) (services.SignedAssetResponse, error)
	deleteAssetFunc    func(ctx context.Context, assetID string) error
	setSiteIconFunc    func(ctx context.Context, assetID string) error
	siteIconFunc       func(ctx context.Context) (string, error)
}

func (s *stubAssetService) CreateUpload(ctx context.Context, cmd services.CreateAssetUploadCommand) (services.SignedAssetResponse, error) {
	if s.createUploadFunc != nil {
		return s.createUploadFunc(ctx, cmd)
	}
	return services.SignedAssetResponse{}, nil
}

func (s *stubAssetService) ConfirmUpload(ctx context.Context, assetID, actorID string) error {
	if s.confirmUploadFunc != nil {
		return s.confirmUploadFunc(ctx, assetID, actorID)
	}
	return nil
}

func (s *stubAssetService) CreateDownload(ctx context.Context, assetID string) (services.SignedAssetResponse, error) {
	if s.createDownloadFunc != nil {
		return s.createDownloadFunc(ctx, assetID)
	}
	return services.SignedAssetResponse{}, nil
}

func (s *stubAssetService) DeleteAsset(ctx context.Context, assetID string) error {
	if s.deleteAssetFunc != nil {
		return s.deleteAssetFunc(ctx, assetID)
	}
	return nil
}

func (s *stubAssetService) SetSiteIcon(ctx context.Context, assetID string) error {
	if s.setSiteIconFunc != nil {
		return s.setSiteIconFunc(ctx, assetID)
	}
	return nil
}

func (s *stubAssetService) SiteIcon(ctx context.Context) (string, error) {
	if s.siteIconFunc != nil {
		return s.siteIconFunc(ctx)
	}
	return "", nil
}
