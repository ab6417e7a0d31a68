package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
)

const pricingTiersCollection = "pricingTiers"

// PricingTierRepository persists discount tiers in Firestore.
type PricingTierRepository struct {
	base     *pfirestore.BaseRepository[pricingTierDocument]
	provider *pfirestore.Provider
}

// NewPricingTierRepository constructs a Firestore-backed pricing tier repository.
func NewPricingTierRepository(provider *pfirestore.Provider) (*PricingTierRepository, error) {
	if provider == nil {
		return nil, errors.New("pricing tier repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[pricingTierDocument](provider, pricingTiersCollection, nil, nil)
	return &PricingTierRepository{base: base, provider: provider}, nil
}

// Upsert writes the tier, assigning an ID when absent. Marking a tier as the
// default clears the flag on every other tier in the same transaction.
func (r *PricingTierRepository) Upsert(ctx context.Context, tier domain.PricingTier) (domain.PricingTier, error) {
	if r == nil || r.base == nil {
		return domain.PricingTier{}, errors.New("pricing tier repository not initialised")
	}
	if strings.TrimSpace(tier.Name) == "" {
		return domain.PricingTier{}, errors.New("pricing tier repository: name is required")
	}
	if tier.DiscountPercent < 0 || tier.DiscountPercent > 100 {
		return domain.PricingTier{}, fmt.Errorf("pricing tier repository: discount percent %d out of range", tier.DiscountPercent)
	}

	tierID := strings.TrimSpace(tier.ID)
	if tierID == "" {
		tierID = ulid.Make().String()
	}

	now := time.Now().UTC()
	doc := encodePricingTierDocument(tier, now)

	if !tier.Default {
		if _, err := r.base.Set(ctx, tierID, doc); err != nil {
			return domain.PricingTier{}, err
		}
		return decodePricingTierDocument(tierID, doc), nil
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, tierID)
		if err != nil {
			return err
		}
		others, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("default", "==", true)
		})
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID == tierID {
				continue
			}
			otherRef, err := r.base.DocumentRef(ctx, other.ID)
			if err != nil {
				return err
			}
			if err := tx.Update(otherRef, []firestore.Update{
				{Path: "default", Value: false},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return domain.PricingTier{}, pfirestore.WrapError("pricing_tiers.upsert", err)
	}
	return decodePricingTierDocument(tierID, doc), nil
}

// Delete removes the tier document.
func (r *PricingTierRepository) Delete(ctx context.Context, tierID string) error {
	if r == nil || r.base == nil {
		return errors.New("pricing tier repository not initialised")
	}
	tierID = strings.TrimSpace(tierID)
	if tierID == "" {
		return errors.New("pricing tier repository: tier id is required")
	}
	ref, err := r.base.DocumentRef(ctx, tierID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("pricing_tiers.delete", err)
	}
	return nil
}

// FindByID fetches a single tier.
func (r *PricingTierRepository) FindByID(ctx context.Context, tierID string) (domain.PricingTier, error) {
	if r == nil || r.base == nil {
		return domain.PricingTier{}, errors.New("pricing tier repository not initialised")
	}
	tierID = strings.TrimSpace(tierID)
	if tierID == "" {
		return domain.PricingTier{}, errors.New("pricing tier repository: tier id is required")
	}
	doc, err := r.base.Get(ctx, tierID)
	if err != nil {
		return domain.PricingTier{}, err
	}
	return decodePricingTierDocument(doc.ID, doc.Data), nil
}

// FindDefault returns the tier flagged as default.
func (r *PricingTierRepository) FindDefault(ctx context.Context) (domain.PricingTier, error) {
	if r == nil || r.base == nil {
		return domain.PricingTier{}, errors.New("pricing tier repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("default", "==", true).Limit(1)
	})
	if err != nil {
		return domain.PricingTier{}, err
	}
	if len(docs) == 0 {
		return domain.PricingTier{}, pfirestore.WrapError("pricing_tiers.find_default", status.Error(codes.NotFound, "no default pricing tier"))
	}
	return decodePricingTierDocument(docs[0].ID, docs[0].Data), nil
}

// List returns every tier ordered by name.
func (r *PricingTierRepository) List(ctx context.Context) ([]domain.PricingTier, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("pricing tier repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	tiers := make([]domain.PricingTier, 0, len(docs))
	for _, doc := range docs {
		tiers = append(tiers, decodePricingTierDocument(doc.ID, doc.Data))
	}
	return tiers, nil
}

type pricingTierDocument struct {
	Name            string    `firestore:"name"`
	DiscountPercent int       `firestore:"discountPercent"`
	Default         bool      `firestore:"default"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func encodePricingTierDocument(tier domain.PricingTier, now time.Time) pricingTierDocument {
	doc := pricingTierDocument{
		Name:            strings.TrimSpace(tier.Name),
		DiscountPercent: tier.DiscountPercent,
		Default:         tier.Default,
		CreatedAt:       tier.CreatedAt,
		UpdatedAt:       now,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	return doc
}

func decodePricingTierDocument(docID string, doc pricingTierDocument) domain.PricingTier {
	return domain.PricingTier{
		ID:              docID,
		Name:            doc.Name,
		DiscountPercent: doc.DiscountPercent,
		Default:         doc.Default,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}
