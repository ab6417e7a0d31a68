package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
	pstorage "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/storage"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

const (
	assetsCollection         = "assets"
	assetIDPrefix            = "asset_"
	assetStatusPendingUpload = "pending_upload"
	assetStatusUploaded      = "uploaded"
	assetUploadTTL           = 15 * time.Minute
	assetDownloadTTL         = 10 * time.Minute
)

// AssetRepository persists asset metadata and coordinates signed URL issuance.
type AssetRepository struct {
	base    *pfirestore.BaseRepository[assetDocument]
	storage *pstorage.Client
	bucket  string
	clock   func() time.Time
	newID   func() string
}

// AssetRepositoryOption customises the repository behaviour.
type AssetRepositoryOption func(*AssetRepository)

// WithAssetRepositoryClock overrides the clock used by the repository.
func WithAssetRepositoryClock(clock func() time.Time) AssetRepositoryOption {
	return func(r *AssetRepository) {
		if clock != nil {
			r.clock = func() time.Time { return clock().UTC() }
		}
	}
}

// WithAssetRepositoryIDGenerator overrides the ID generator used by the repository.
func WithAssetRepositoryIDGenerator(generator func() string) AssetRepositoryOption {
	return func(r *AssetRepository) {
		if generator != nil {
			r.newID = generator
		}
	}
}

// NewAssetRepository constructs a Firestore-backed asset repository.
func NewAssetRepository(provider *pfirestore.Provider, storageClient *pstorage.Client, bucket string, opts ...AssetRepositoryOption) (*AssetRepository, error) {
	if provider == nil {
		return nil, errors.New("asset repository: firestore provider is required")
	}
	if storageClient == nil {
		return nil, errors.New("asset repository: storage client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("asset repository: bucket is required")
	}

	repo := &AssetRepository{
		base:    pfirestore.NewBaseRepository[assetDocument](provider, assetsCollection, nil, nil),
		storage: storageClient,
		bucket:  bucket,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return ulid.Make().String()
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo, nil
}

// CreateSignedUpload issues a PUT URL for the object and registers the asset
// as pending upload.
func (r *AssetRepository) CreateSignedUpload(ctx context.Context, cmd repositories.SignedUploadRecord) (domain.SignedAssetResponse, error) {
	if r == nil || r.base == nil {
		return domain.SignedAssetResponse{}, errors.New("asset repository: not initialised")
	}
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: actor id is required")
	}
	purpose := pstorage.AssetPurpose(strings.ToLower(strings.TrimSpace(cmd.Purpose)))
	if purpose == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: purpose is required")
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if contentType == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: content type is required")
	}
	if cmd.SizeBytes <= 0 {
		return domain.SignedAssetResponse{}, errors.New("asset repository: size bytes must be positive")
	}

	rawID := r.newID()
	assetID := ensureAssetID(rawID)
	uploadID := strings.TrimPrefix(assetID, assetIDPrefix)

	objectPath, err := pstorage.BuildObjectPath(purpose, pstorage.PathParams{
		ProductID: strings.TrimSpace(cmd.ProductID),
		UploadID:  uploadID,
		FileName:  strings.TrimSpace(cmd.FileName),
	})
	if err != nil {
		return domain.SignedAssetResponse{}, fmt.Errorf("asset repository: build object path: %w", err)
	}

	signed, err := r.storage.SignedURL(ctx, r.bucket, objectPath, pstorage.SignedURLOptions{
		Upload: &pstorage.UploadOptions{
			Method:              "PUT",
			ContentType:         contentType,
			AllowedMethods:      []string{"PUT"},
			AllowedContentTypes: []string{contentType},
			MaxSize:             cmd.SizeBytes,
			ExpiresIn:           assetUploadTTL,
			AdditionalHeaders: map[string]string{
				"x-goog-meta-asset-id": assetID,
			},
		},
	})
	if err != nil {
		return domain.SignedAssetResponse{}, fmt.Errorf("asset repository: sign upload url: %w", err)
	}

	now := r.clock()
	doc := assetDocument{
		OwnerUID:        actorID,
		Purpose:         string(purpose),
		ProductID:       strings.TrimSpace(cmd.ProductID),
		Status:          assetStatusPendingUpload,
		Bucket:          r.bucket,
		ObjectPath:      objectPath,
		FileName:        strings.TrimSpace(cmd.FileName),
		ContentType:     contentType,
		SizeBytes:       cmd.SizeBytes,
		UploadExpiresAt: signed.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := r.base.Set(ctx, assetID, doc); err != nil {
		return domain.SignedAssetResponse{}, err
	}

	return domain.SignedAssetResponse{
		AssetID:   assetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
		Headers:   signed.Headers,
	}, nil
}

// CreateSignedDownload issues a GET URL for an uploaded object. The caller
// identity comes from the request context; owners and admins may download.
func (r *AssetRepository) CreateSignedDownload(ctx context.Context, cmd repositories.SignedDownloadRecord) (domain.SignedAssetResponse, error) {
	if r == nil || r.base == nil {
		return domain.SignedAssetResponse{}, errors.New("asset repository: not initialised")
	}
	assetID := strings.TrimSpace(cmd.AssetID)
	if assetID == "" {
		return domain.SignedAssetResponse{}, errors.New("asset repository: asset id is required")
	}

	doc, err := r.base.Get(ctx, assetID)
	if err != nil {
		return domain.SignedAssetResponse{}, err
	}
	if doc.Data.Status != assetStatusUploaded {
		return domain.SignedAssetResponse{}, repositories.ErrAssetNotReady
	}

	identity, err := pstorage.AuthorizeDownloadFromContext(ctx, doc.Data.OwnerUID, false)
	if err != nil {
		return domain.SignedAssetResponse{}, err
	}

	signed, err := r.storage.SignedURL(ctx, doc.Data.Bucket, doc.Data.ObjectPath, pstorage.SignedURLOptions{
		Download: &pstorage.DownloadOptions{
			Method:      "GET",
			ExpiresIn:   assetDownloadTTL,
			Disposition: strings.TrimSpace(cmd.Disposition),
			OwnerID:     doc.Data.OwnerUID,
			Identity:    identity,
		},
	})
	if err != nil {
		return domain.SignedAssetResponse{}, fmt.Errorf("asset repository: sign download url: %w", err)
	}

	return domain.SignedAssetResponse{
		AssetID:   assetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
		Headers:   signed.Headers,
	}, nil
}

// MarkUploaded flips the asset status once the client confirms the PUT succeeded.
func (r *AssetRepository) MarkUploaded(ctx context.Context, assetID string, actorID string, metadata map[string]any) error {
	if r == nil || r.base == nil {
		return errors.New("asset repository: not initialised")
	}
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return errors.New("asset repository: asset id is required")
	}
	now := r.clock()

	updates := []firestore.Update{
		{Path: "status", Value: assetStatusUploaded},
		{Path: "updatedAt", Value: now},
		{Path: "uploadCompletedAt", Value: now},
	}
	if actor := strings.TrimSpace(actorID); actor != "" {
		updates = append(updates, firestore.Update{Path: "uploadCompletedBy", Value: actor})
	}
	if len(metadata) > 0 {
		updates = append(updates, firestore.Update{Path: "metadata", Value: metadata})
	}

	_, err := r.base.Update(ctx, assetID, updates)
	return err
}

// FindByID fetches the asset metadata.
func (r *AssetRepository) FindByID(ctx context.Context, assetID string) (domain.Asset, error) {
	if r == nil || r.base == nil {
		return domain.Asset{}, errors.New("asset repository: not initialised")
	}
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return domain.Asset{}, errors.New("asset repository: asset id is required")
	}
	doc, err := r.base.Get(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	return domain.Asset{
		ID:          doc.ID,
		Bucket:      doc.Data.Bucket,
		ObjectName:  doc.Data.ObjectPath,
		ContentType: doc.Data.ContentType,
		SizeBytes:   doc.Data.SizeBytes,
		UploadedBy:  doc.Data.OwnerUID,
		CreatedAt:   doc.Data.CreatedAt,
	}, nil
}

// Delete removes the metadata document. The bucket object is left for
// lifecycle rules to reap.
func (r *AssetRepository) Delete(ctx context.Context, assetID string) error {
	if r == nil || r.base == nil {
		return errors.New("asset repository: not initialised")
	}
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return errors.New("asset repository: asset id is required")
	}
	ref, err := r.base.DocumentRef(ctx, assetID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("assets.delete", err)
	}
	return nil
}

type assetDocument struct {
	OwnerUID          string         `firestore:"ownerUid"`
	Purpose           string         `firestore:"purpose"`
	ProductID         string         `firestore:"productId,omitempty"`
	Status            string         `firestore:"status"`
	Bucket            string         `firestore:"bucket"`
	ObjectPath        string         `firestore:"objectPath"`
	FileName          string         `firestore:"fileName,omitempty"`
	ContentType       string         `firestore:"contentType"`
	SizeBytes         int64          `firestore:"sizeBytes"`
	Metadata          map[string]any `firestore:"metadata,omitempty"`
	UploadExpiresAt   time.Time      `firestore:"uploadExpiresAt"`
	UploadCompletedBy string         `firestore:"uploadCompletedBy,omitempty"`
	UploadCompletedAt *time.Time     `firestore:"uploadCompletedAt,omitempty"`
	CreatedAt         time.Time      `firestore:"createdAt"`
	UpdatedAt         time.Time      `firestore:"updatedAt"`
}

func ensureAssetID(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		trimmed = ulid.Make().String()
	}
	if strings.HasPrefix(trimmed, assetIDPrefix) {
		return trimmed
	}
	return assetIDPrefix + trimmed
}
