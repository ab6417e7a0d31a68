package clientstate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

func TestCartAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	adapter, err := NewCartAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := []domain.CartLine{
		{ProductID: "prod-a", Name: "Pea Protein 20kg", UnitPrice: 18950, Quantity: 3},
		{ProductID: "prod-b", Name: "Rice Protein 20kg", UnitPrice: 17500, Quantity: 1},
	}
	if err := adapter.Save(ctx, "shopper-1", lines); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := adapter.Load(ctx, "shopper-1")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !reflect.DeepEqual(loaded, lines) {
		t.Fatalf("round trip mismatch: got %v, want %v", loaded, lines)
	}
}

func TestCartAdapterMissingKeyYieldsEmpty(t *testing.T) {
	adapter, err := NewCartAdapter(NewMemoryKV())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := adapter.Load(context.Background(), "shopper-1")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty cart, got %v", loaded)
	}
}

func TestCartAdapterCorruptRecordSelfHeals(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	if err := kv.Set(ctx, "shopper-1", KeyCart, "{not json"); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	adapter, err := NewCartAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := adapter.Load(ctx, "shopper-1")
	if err != nil {
		t.Fatalf("expected corruption swallowed, got %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty cart after corruption, got %v", loaded)
	}

	if _, err := kv.Get(ctx, "shopper-1", KeyCart); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected corrupt key deleted, got %v", err)
	}
}

func TestSettingsAdapterDefaultsAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	adapter, err := NewSettingsAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := adapter.Load(ctx, "site")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !reflect.DeepEqual(loaded, domain.DefaultEmailSettings()) {
		t.Fatalf("expected default settings, got %+v", loaded)
	}

	settings := domain.EmailSettings{
		AdminEmail:     "ops@example.com",
		DispatchEmail:  "warehouse@example.com",
		NotifyAdmin:    true,
		NotifyDispatch: true,
		AdminTemplate:  "New order {{orderNumber}}",
	}
	if err := adapter.Save(ctx, "site", settings); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	reloaded, err := adapter.Load(ctx, "site")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !reflect.DeepEqual(reloaded, settings) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", reloaded, settings)
	}
}

func TestSettingsAdapterCorruptRecordFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	if err := kv.Set(ctx, "site", KeyEmailSettings, "]["); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	adapter, err := NewSettingsAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := adapter.Load(ctx, "site")
	if err != nil {
		t.Fatalf("expected corruption swallowed, got %v", err)
	}
	if !reflect.DeepEqual(loaded, domain.DefaultEmailSettings()) {
		t.Fatalf("expected default settings after corruption, got %+v", loaded)
	}

	if _, err := kv.Get(ctx, "site", KeyEmailSettings); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected corrupt key deleted, got %v", err)
	}
}

func TestActivityAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	adapter, err := NewActivityAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	if err := adapter.Touch(ctx, "shopper-1", at); err != nil {
		t.Fatalf("unexpected touch error: %v", err)
	}

	millis, err := adapter.LastActivity(ctx, "shopper-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if millis != at.UnixMilli() {
		t.Fatalf("expected %d, got %d", at.UnixMilli(), millis)
	}
}

func TestActivityAdapterGarbageValueYieldsZero(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	if err := kv.Set(ctx, "shopper-1", KeyLastActivity, "yesterday"); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	adapter, err := NewActivityAdapter(kv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	millis, err := adapter.LastActivity(ctx, "shopper-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if millis != 0 {
		t.Fatalf("expected zero for garbage value, got %d", millis)
	}
}
