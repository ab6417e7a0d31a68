package firestore

import (
	"testing"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

func TestListTokenRoundTrip(t *testing.T) {
	updatedAt := time.Date(2026, time.February, 4, 9, 30, 15, 123456789, time.UTC)
	token := encodeListToken(updatedAt, "01hzyx")

	gotTime, gotID, err := decodeListToken(token)
	if err != nil {
		t.Fatalf("decodeListToken: %v", err)
	}
	if !gotTime.Equal(updatedAt) {
		t.Fatalf("expected %v, got %v", updatedAt, gotTime)
	}
	if gotID != "01hzyx" {
		t.Fatalf("expected doc id 01hzyx, got %q", gotID)
	}
}

func TestDecodeListTokenRejectsGarbage(t *testing.T) {
	if _, _, err := decodeListToken("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, _, err := decodeListToken("bm8tc2VwYXJhdG9y"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestNormaliseOrderStatuses(t *testing.T) {
	statuses := normaliseOrderStatuses([]domain.OrderStatus{
		domain.OrderStatusPaid,
		" PAID ",
		domain.OrderStatusDispatched,
		"",
	})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %v", statuses)
	}
	if statuses[0] != "paid" || statuses[1] != "dispatched" {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}
