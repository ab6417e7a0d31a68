package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/httpx"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/services"
)

type createAssetUploadRequest struct {
	Purpose     string `json:"purpose"`
	ProductID   string `json:"productId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type signedAssetPayload struct {
	AssetID   string            `json:"assetId"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	ExpiresAt string            `json:"expiresAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}

type setSiteIconRequest struct {
	AssetID string `json:"assetId"`
}

type siteIconPayload struct {
	Object string `json:"object,omitempty"`
}

func buildSignedAssetPayload(signed services.SignedAssetResponse) signedAssetPayload {
	return signedAssetPayload{
		AssetID:   signed.AssetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: formatTime(signed.ExpiresAt),
		Headers:   signed.Headers,
	}
}

func (h *AdminHandlers) requireAssets(w http.ResponseWriter, r *http.Request) bool {
	if h.assets != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("asset_service_unavailable", "asset service is unavailable", http.StatusServiceUnavailable))
	return false
}

func (h *AdminHandlers) createAssetUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req createAssetUploadRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	signed, err := h.assets.CreateUpload(ctx, services.CreateAssetUploadCommand{
		ActorID:     identity.UID,
		Purpose:     req.Purpose,
		ProductID:   req.ProductID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSignedAssetPayload(signed))
}

func (h *AdminHandlers) confirmAssetUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.assets.ConfirmUpload(ctx, chi.URLParam(r, "assetID"), identity.UID); err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

func (h *AdminHandlers) createAssetDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}

	signed, err := h.assets.CreateDownload(ctx, chi.URLParam(r, "assetID"))
	if err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSignedAssetPayload(signed))
}

func (h *AdminHandlers) deleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}
	if err := h.assets.DeleteAsset(ctx, chi.URLParam(r, "assetID")); err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

func (h *AdminHandlers) siteIcon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}

	object, err := h.assets.SiteIcon(ctx)
	if err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, siteIconPayload{Object: object})
}

func (h *AdminHandlers) setSiteIcon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAssets(w, r) {
		return
	}

	var req setSiteIconRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.assets.SetSiteIcon(ctx, req.AssetID); err != nil {
		writeAssetError(ctx, w, err)
		return
	}
	httpx.WriteNoContent(w)
}

func writeAssetError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAssetInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAssetNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("asset_not_found", "asset not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAssetNotReady):
		httpx.WriteError(ctx, w, httpx.NewError("asset_not_ready", "asset upload has not completed", http.StatusConflict))
	case errors.Is(err, services.ErrAssetUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("asset_service_unavailable", "asset service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("asset_error", "asset request failed", http.StatusInternalServerError))
	}
}
