package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// CartAdapter mirrors a shopper's cart lines to the durable cart key.
type CartAdapter struct {
	kv KV
}

// NewCartAdapter constructs a cart persistence adapter.
func NewCartAdapter(kv KV) (*CartAdapter, error) {
	if kv == nil {
		return nil, errors.New("clientstate: kv is required")
	}
	return &CartAdapter{kv: kv}, nil
}

// Load reads the persisted line sequence. A missing key yields an empty cart.
// A corrupt record is deleted and an empty cart returned; the parse error is
// never propagated.
func (a *CartAdapter) Load(ctx context.Context, profileID string) ([]domain.CartLine, error) {
	raw, err := a.kv.Get(ctx, profileID, KeyCart)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []domain.CartLine{}, nil
		}
		return nil, err
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		_ = a.kv.Delete(ctx, profileID, KeyCart)
		return []domain.CartLine{}, nil
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// Save overwrites the cart key with the full current sequence.
func (a *CartAdapter) Save(ctx context.Context, profileID string, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return a.kv.Set(ctx, profileID, KeyCart, string(payload))
}

// Clear removes the cart key entirely.
func (a *CartAdapter) Clear(ctx context.Context, profileID string) error {
	return a.kv.Delete(ctx, profileID, KeyCart)
}

// SettingsAdapter mirrors the email settings record to its durable key,
// following the same corrupt-record recovery as the cart adapter.
type SettingsAdapter struct {
	kv KV
}

// NewSettingsAdapter constructs an email-settings persistence adapter.
func NewSettingsAdapter(kv KV) (*SettingsAdapter, error) {
	if kv == nil {
		return nil, errors.New("clientstate: kv is required")
	}
	return &SettingsAdapter{kv: kv}, nil
}

// Load reads the persisted settings record, returning the default record when
// the key is absent or corrupt. Corrupt records are deleted.
func (a *SettingsAdapter) Load(ctx context.Context, profileID string) (domain.EmailSettings, error) {
	raw, err := a.kv.Get(ctx, profileID, KeyEmailSettings)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return domain.DefaultEmailSettings(), nil
		}
		return domain.EmailSettings{}, err
	}

	var settings domain.EmailSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		_ = a.kv.Delete(ctx, profileID, KeyEmailSettings)
		return domain.DefaultEmailSettings(), nil
	}
	return settings, nil
}

// Save overwrites the settings key with the full record.
func (a *SettingsAdapter) Save(ctx context.Context, profileID string, settings domain.EmailSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return a.kv.Set(ctx, profileID, KeyEmailSettings, string(payload))
}

// ActivityAdapter records and reads the lastUserActivity timestamp consulted
// by the session guard. The value is epoch milliseconds, matching what the
// storefront UI historically wrote.
type ActivityAdapter struct {
	kv KV
}

// NewActivityAdapter constructs an activity persistence adapter.
func NewActivityAdapter(kv KV) (*ActivityAdapter, error) {
	if kv == nil {
		return nil, errors.New("clientstate: kv is required")
	}
	return &ActivityAdapter{kv: kv}, nil
}

// Touch records the instant as the profile's last activity.
func (a *ActivityAdapter) Touch(ctx context.Context, profileID string, at time.Time) error {
	return a.kv.Set(ctx, profileID, KeyLastActivity, strconv.FormatInt(at.UnixMilli(), 10))
}

// LastActivity returns the recorded timestamp. A missing or unparseable value
// yields zero, which the guard treats as expired.
func (a *ActivityAdapter) LastActivity(ctx context.Context, profileID string) (int64, error) {
	raw, err := a.kv.Get(ctx, profileID, KeyLastActivity)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		_ = a.kv.Delete(ctx, profileID, KeyLastActivity)
		return 0, nil
	}
	return millis, nil
}
