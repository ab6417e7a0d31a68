package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

const usersCollection = "users"

// UserRepository persists buyer profiles in Firestore. Role, approval, and
// tier mutations run inside transactions so concurrent admin edits apply to
// fresh state.
type UserRepository struct {
	base     *pfirestore.BaseRepository[userDocument]
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil)
	return &UserRepository{base: base, provider: provider}, nil
}

// Upsert writes the whole profile keyed by the Firebase UID.
func (r *UserRepository) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	userID := strings.TrimSpace(profile.ID)
	if userID == "" {
		return domain.UserProfile{}, errors.New("user repository: user id is required")
	}

	now := time.Now().UTC()
	doc := encodeUserDocument(profile, now)
	if _, err := r.base.Set(ctx, userID, doc); err != nil {
		return domain.UserProfile{}, err
	}
	return decodeUserDocument(userID, doc), nil
}

// FindByID loads the profile by UID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, errors.New("user repository: user id is required")
	}
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	profile := decodeUserDocument(doc.ID, doc.Data)
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = doc.CreateTime
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = doc.UpdateTime
	}
	return profile, nil
}

// List returns profiles most recently updated first.
func (r *UserRepository) List(ctx context.Context, filter repositories.UserListFilter) (domain.CursorPage[domain.UserProfile], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.UserProfile]{}, errors.New("user repository not initialised")
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
			return domain.CursorPage[domain.UserProfile]{}, fmt.Errorf("user repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	role := strings.ToLower(strings.TrimSpace(filter.Role))
	tierID := strings.TrimSpace(filter.PricingTierID)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if role != "" {
			q = q.Where("role", "==", role)
		}
		if tierID != "" {
			q = q.Where("pricingTierId", "==", tierID)
		}
		if filter.ApprovedOnly {
			q = q.Where("approved", "==", true)
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
		return domain.CursorPage[domain.UserProfile]{}, err
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

	items := make([]domain.UserProfile, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeUserDocument(doc.ID, doc.Data))
	}

	return domain.CursorPage[domain.UserProfile]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// SetRole updates the role field transactionally.
func (r *UserRepository) SetRole(ctx context.Context, userID string, role string) (domain.UserProfile, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return domain.UserProfile{}, errors.New("user repository: role is required")
	}
	return r.updateFields(ctx, userID, "users.set_role", []firestore.Update{
		{Path: "role", Value: role},
	})
}

// SetApproved updates the approval flag transactionally.
func (r *UserRepository) SetApproved(ctx context.Context, userID string, approved bool) (domain.UserProfile, error) {
	return r.updateFields(ctx, userID, "users.set_approved", []firestore.Update{
		{Path: "approved", Value: approved},
	})
}

// AssignPricingTier updates the tier reference transactionally. An empty tier
// ID clears the assignment.
func (r *UserRepository) AssignPricingTier(ctx context.Context, userID string, tierID string) (domain.UserProfile, error) {
	return r.updateFields(ctx, userID, "users.assign_pricing_tier", []firestore.Update{
		{Path: "pricingTierId", Value: strings.TrimSpace(tierID)},
	})
}

func (r *UserRepository) updateFields(ctx context.Context, userID string, op string, updates []firestore.Update) (domain.UserProfile, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, errors.New("user repository: user id is required")
	}

	now := time.Now().UTC()
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: now})

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return domain.UserProfile{}, pfirestore.WrapError(op, err)
	}
	return r.FindByID(ctx, userID)
}

type userDocument struct {
	DisplayName   string    `firestore:"displayName,omitempty"`
	Email         string    `firestore:"email"`
	BusinessName  string    `firestore:"businessName,omitempty"`
	Phone         string    `firestore:"phone,omitempty"`
	Role          string    `firestore:"role"`
	PricingTierID string    `firestore:"pricingTierId,omitempty"`
	Approved      bool      `firestore:"approved"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func encodeUserDocument(profile domain.UserProfile, now time.Time) userDocument {
	doc := userDocument{
		DisplayName:   strings.TrimSpace(profile.DisplayName),
		Email:         strings.ToLower(strings.TrimSpace(profile.Email)),
		BusinessName:  strings.TrimSpace(profile.BusinessName),
		Phone:         strings.TrimSpace(profile.Phone),
		Role:          strings.ToLower(strings.TrimSpace(profile.Role)),
		PricingTierID: strings.TrimSpace(profile.PricingTierID),
		Approved:      profile.Approved,
		CreatedAt:     profile.CreatedAt,
		UpdatedAt:     now,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	return doc
}

func decodeUserDocument(docID string, doc userDocument) domain.UserProfile {
	return domain.UserProfile{
		ID:            docID,
		DisplayName:   doc.DisplayName,
		Email:         doc.Email,
		BusinessName:  doc.BusinessName,
		Phone:         doc.Phone,
		Role:          doc.Role,
		PricingTierID: doc.PricingTierID,
		Approved:      doc.Approved,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
