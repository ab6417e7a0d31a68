package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

const productsCollection = "products"

// ProductRepository persists catalog entries in Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Upsert writes the product, assigning an ID when absent.
func (r *ProductRepository) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		productID = ulid.Make().String()
	}
	if strings.TrimSpace(product.Name) == "" {
		return domain.Product{}, errors.New("product repository: name is required")
	}

	now := time.Now().UTC()
	doc := encodeProductDocument(product, now)
	if _, err := r.base.Set(ctx, productID, doc); err != nil {
		return domain.Product{}, err
	}
	saved := decodeProductDocument(productID, doc)
	return saved, nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("product repository: product id is required")
	}
	ref, err := r.base.DocumentRef(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID fetches a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	product := decodeProductDocument(doc.ID, doc.Data)
	if product.CreatedAt.IsZero() {
		product.CreatedAt = doc.CreateTime
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = doc.UpdateTime
	}
	return product, nil
}

// List returns products filtered by category and stock, newest first.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("product repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	category := strings.ToLower(strings.TrimSpace(filter.Category))

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if category != "" {
			q = q.Where("category", "==", category)
		}
		if filter.InStockOnly {
			q = q.Where("inStock", "==", true)
		}
		q = q.OrderBy("updatedAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	nextToken := ""
	if limit > 0 && len(docs) == fetchLimit {
		last := docs[len(docs)-1]
		tokenTime := last.Data.UpdatedAt
		if tokenTime.IsZero() {
			tokenTime = last.UpdateTime
		}
		nextToken = encodeListToken(tokenTime, last.ID)
		docs = docs[:len(docs)-1]
	}

	items := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeProductDocument(doc.ID, doc.Data))
	}

	return domain.CursorPage[domain.Product]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type productDocument struct {
	SKU         string    `firestore:"sku"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Category    string    `firestore:"category,omitempty"`
	UnitPrice   int64     `firestore:"unitPrice"`
	Currency    string    `firestore:"currency"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	MinQuantity int       `firestore:"minQuantity,omitempty"`
	InStock     bool      `firestore:"inStock"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func encodeProductDocument(product domain.Product, now time.Time) productDocument {
	doc := productDocument{
		SKU:         strings.TrimSpace(product.SKU),
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		Category:    strings.ToLower(strings.TrimSpace(product.Category)),
		UnitPrice:   product.UnitPrice,
		Currency:    strings.ToLower(strings.TrimSpace(product.Currency)),
		ImageURL:    strings.TrimSpace(product.ImageURL),
		MinQuantity: product.MinQuantity,
		InStock:     product.InStock,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   now,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	return doc
}

func decodeProductDocument(docID string, doc productDocument) domain.Product {
	return domain.Product{
		ID:          docID,
		SKU:         doc.SKU,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		UnitPrice:   doc.UnitPrice,
		Currency:    doc.Currency,
		ImageURL:    doc.ImageURL,
		MinQuantity: doc.MinQuantity,
		InStock:     doc.InStock,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// Shared cursor token helpers -------------------------------------------------

func encodeListToken(updatedAt time.Time, docID string) string {
	payload := fmt.Sprintf("%s|%s", updatedAt.UTC().Format(time.RFC3339Nano), docID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeListToken(token string) (time.Time, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("invalid token structure")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return ts, parts[1], nil
}
