package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/clientstate"
	pstorage "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/storage"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// Asset service sentinel errors.
var (
	ErrAssetInvalidInput = errors.New("asset service: invalid input")
	ErrAssetNotFound     = errors.New("asset service: asset not found")
	ErrAssetNotReady     = errors.New("asset service: asset not uploaded yet")
	ErrAssetUnavailable  = errors.New("asset service: temporarily unavailable")
)

// The site icon pointer is site-wide state, stored under the same fixed
// profile as the email settings record.
const siteIconProfile = "site"

// ObjectCopier copies a bucket object, used to promote an uploaded asset to
// its canonical location.
type ObjectCopier interface {
	CopyObject(ctx context.Context, sourceBucket, sourceObject, destBucket, destObject string) error
}

// AssetServiceDeps wires the asset service dependencies.
type AssetServiceDeps struct {
	Assets repositories.AssetRepository
	Copier ObjectCopier
	State  clientstate.KV
	Logger func(context.Context, string, map[string]any)
}

type assetService struct {
	assets repositories.AssetRepository
	copier ObjectCopier
	state  clientstate.KV
	logger func(context.Context, string, map[string]any)
}

var _ AssetService = (*assetService)(nil)

// NewAssetService constructs the signed-URL and asset-metadata service.
func NewAssetService(deps AssetServiceDeps) (AssetService, error) {
	if deps.Assets == nil {
		return nil, errors.New("asset service: asset repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &assetService{
		assets: deps.Assets,
		copier: deps.Copier,
		state:  deps.State,
		logger: logger,
	}, nil
}

func (s *assetService) CreateUpload(ctx context.Context, cmd CreateAssetUploadCommand) (SignedAssetResponse, error) {
	if strings.TrimSpace(cmd.ActorID) == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: actor id is required", ErrAssetInvalidInput)
	}
	if strings.TrimSpace(cmd.FileName) == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: file name is required", ErrAssetInvalidInput)
	}
	if strings.TrimSpace(cmd.ContentType) == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: content type is required", ErrAssetInvalidInput)
	}

	purpose := pstorage.AssetPurpose(strings.TrimSpace(cmd.Purpose))
	switch purpose {
	case pstorage.PurposeProductImage:
		if strings.TrimSpace(cmd.ProductID) == "" {
			return SignedAssetResponse{}, fmt.Errorf("%w: product id is required for product images", ErrAssetInvalidInput)
		}
	case pstorage.PurposeSiteIcon:
	default:
		return SignedAssetResponse{}, fmt.Errorf("%w: unsupported purpose %q", ErrAssetInvalidInput, cmd.Purpose)
	}

	signed, err := s.assets.CreateSignedUpload(ctx, repositories.SignedUploadRecord{
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Purpose:     string(purpose),
		ProductID:   strings.TrimSpace(cmd.ProductID),
		FileName:    strings.TrimSpace(cmd.FileName),
		ContentType: strings.TrimSpace(cmd.ContentType),
		SizeBytes:   cmd.SizeBytes,
	})
	if err != nil {
		return SignedAssetResponse{}, s.translate(err)
	}
	s.logger(ctx, "asset.upload_url_issued", map[string]any{
		"assetID": signed.AssetID,
		"purpose": string(purpose),
	})
	return signed, nil
}

func (s *assetService) ConfirmUpload(ctx context.Context, assetID, actorID string) error {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return fmt.Errorf("%w: asset id is required", ErrAssetInvalidInput)
	}
	if err := s.assets.MarkUploaded(ctx, assetID, strings.TrimSpace(actorID), nil); err != nil {
		return s.translate(err)
	}
	s.logger(ctx, "asset.upload_confirmed", map[string]any{"assetID": assetID})
	return nil
}

func (s *assetService) CreateDownload(ctx context.Context, assetID string) (SignedAssetResponse, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: asset id is required", ErrAssetInvalidInput)
	}
	signed, err := s.assets.CreateSignedDownload(ctx, repositories.SignedDownloadRecord{AssetID: assetID})
	if err != nil {
		return SignedAssetResponse{}, s.translate(err)
	}
	return signed, nil
}

func (s *assetService) DeleteAsset(ctx context.Context, assetID string) error {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return fmt.Errorf("%w: asset id is required", ErrAssetInvalidInput)
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		return s.translate(err)
	}
	s.logger(ctx, "asset.deleted", map[string]any{"assetID": assetID})
	return nil
}

// SetSiteIcon copies the uploaded object to the canonical site-icon path and
// records that path in the site profile's client state, where the storefront
// shell reads it on boot.
func (s *assetService) SetSiteIcon(ctx context.Context, assetID string) error {
	if s.copier == nil || s.state == nil {
		return ErrAssetUnavailable
	}
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return fmt.Errorf("%w: asset id is required", ErrAssetInvalidInput)
	}

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return s.translate(err)
	}
	if asset.ObjectName == "" {
		return ErrAssetNotReady
	}

	destObject, err := pstorage.BuildObjectPath(pstorage.PurposeSiteIcon, pstorage.PathParams{
		FileName: path.Base(asset.ObjectName),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssetInvalidInput, err)
	}

	if err := s.copier.CopyObject(ctx, asset.Bucket, asset.ObjectName, asset.Bucket, destObject); err != nil {
		s.logger(ctx, "asset.site_icon_copy_failed", map[string]any{
			"assetID": assetID,
			"error":   err.Error(),
		})
		return ErrAssetUnavailable
	}
	if err := s.state.Set(ctx, siteIconProfile, clientstate.KeySiteIcon, destObject); err != nil {
		return ErrAssetUnavailable
	}

	s.logger(ctx, "asset.site_icon_set", map[string]any{
		"assetID": assetID,
		"object":  destObject,
	})
	return nil
}

// SiteIcon returns the recorded icon object path, or empty when none is set.
func (s *assetService) SiteIcon(ctx context.Context) (string, error) {
	if s.state == nil {
		return "", ErrAssetUnavailable
	}
	value, err := s.state.Get(ctx, siteIconProfile, clientstate.KeySiteIcon)
	if err != nil {
		if errors.Is(err, clientstate.ErrKeyNotFound) {
			return "", nil
		}
		return "", ErrAssetUnavailable
	}
	return value, nil
}

func (s *assetService) translate(err error) error {
	if errors.Is(err, repositories.ErrAssetNotReady) {
		return ErrAssetNotReady
	}
	return translateRepoError(err, ErrAssetNotFound, ErrAssetUnavailable, ErrAssetUnavailable)
}
