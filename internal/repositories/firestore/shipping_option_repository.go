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
)

const shippingOptionsCollection = "shippingOptions"

// ShippingOptionRepository persists delivery methods in Firestore.
type ShippingOptionRepository struct {
	base *pfirestore.BaseRepository[shippingOptionDocument]
}

// NewShippingOptionRepository constructs a Firestore-backed shipping option repository.
func NewShippingOptionRepository(provider *pfirestore.Provider) (*ShippingOptionRepository, error) {
	if provider == nil {
		return nil, errors.New("shipping option repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[shippingOptionDocument](provider, shippingOptionsCollection, nil, nil)
	return &ShippingOptionRepository{base: base}, nil
}

// Upsert writes the option, assigning an ID when absent.
func (r *ShippingOptionRepository) Upsert(ctx context.Context, option domain.ShippingOption) (domain.ShippingOption, error) {
	if r == nil || r.base == nil {
		return domain.ShippingOption{}, errors.New("shipping option repository not initialised")
	}
	if strings.TrimSpace(option.Name) == "" {
		return domain.ShippingOption{}, errors.New("shipping option repository: name is required")
	}
	if !domain.KnownCarrier(option.Carrier) {
		return domain.ShippingOption{}, fmt.Errorf("shipping option repository: unknown carrier %q", option.Carrier)
	}
	if option.Price < 0 {
		return domain.ShippingOption{}, errors.New("shipping option repository: price must not be negative")
	}

	optionID := strings.TrimSpace(option.ID)
	if optionID == "" {
		optionID = ulid.Make().String()
	}

	now := time.Now().UTC()
	doc := encodeShippingOptionDocument(option, now)
	if _, err := r.base.Set(ctx, optionID, doc); err != nil {
		return domain.ShippingOption{}, err
	}
	return decodeShippingOptionDocument(optionID, doc), nil
}

// Delete removes the option document.
func (r *ShippingOptionRepository) Delete(ctx context.Context, optionID string) error {
	if r == nil || r.base == nil {
		return errors.New("shipping option repository not initialised")
	}
	optionID = strings.TrimSpace(optionID)
	if optionID == "" {
		return errors.New("shipping option repository: option id is required")
	}
	ref, err := r.base.DocumentRef(ctx, optionID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("shipping_options.delete", err)
	}
	return nil
}

// FindByID fetches a single option.
func (r *ShippingOptionRepository) FindByID(ctx context.Context, optionID string) (domain.ShippingOption, error) {
	if r == nil || r.base == nil {
		return domain.ShippingOption{}, errors.New("shipping option repository not initialised")
	}
	optionID = strings.TrimSpace(optionID)
	if optionID == "" {
		return domain.ShippingOption{}, errors.New("shipping option repository: option id is required")
	}
	doc, err := r.base.Get(ctx, optionID)
	if err != nil {
		return domain.ShippingOption{}, err
	}
	return decodeShippingOptionDocument(doc.ID, doc.Data), nil
}

// List returns delivery methods ordered by price, cheapest first.
func (r *ShippingOptionRepository) List(ctx context.Context, activeOnly bool) ([]domain.ShippingOption, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("shipping option repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if activeOnly {
			q = q.Where("active", "==", true)
		}
		return q.OrderBy("price", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	options := make([]domain.ShippingOption, 0, len(docs))
	for _, doc := range docs {
		options = append(options, decodeShippingOptionDocument(doc.ID, doc.Data))
	}
	return options, nil
}

type shippingOptionDocument struct {
	Name              string    `firestore:"name"`
	Carrier           string    `firestore:"carrier"`
	Price             int64     `firestore:"price"`
	EstimatedDelivery string    `firestore:"estimatedDelivery,omitempty"`
	Active            bool      `firestore:"active"`
	CreatedAt         time.Time `firestore:"createdAt"`
	UpdatedAt         time.Time `firestore:"updatedAt"`
}

func encodeShippingOptionDocument(option domain.ShippingOption, now time.Time) shippingOptionDocument {
	doc := shippingOptionDocument{
		Name:              strings.TrimSpace(option.Name),
		Carrier:           string(option.Carrier),
		Price:             option.Price,
		EstimatedDelivery: strings.TrimSpace(option.EstimatedDelivery),
		Active:            option.Active,
		CreatedAt:         option.CreatedAt,
		UpdatedAt:         now,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	return doc
}

func decodeShippingOptionDocument(docID string, doc shippingOptionDocument) domain.ShippingOption {
	return domain.ShippingOption{
		ID:                docID,
		Name:              doc.Name,
		Carrier:           domain.Carrier(doc.Carrier),
		Price:             doc.Price,
		EstimatedDelivery: doc.EstimatedDelivery,
		Active:            doc.Active,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}
