package booking

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	ctx := context.Background()

	sess, err := store.Get(ctx, "whatsapp:+521234567890")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess != nil {
		t.Fatal("expected nil session for unknown user")
	}

	put := &Session{UserID: "whatsapp:+521234567890", Step: StepAwaitingPhone}
	put.Record.Name = "Ana"
	if err := store.Put(ctx, put); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, put.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Step != StepAwaitingPhone || got.Record.Name != "Ana" {
		t.Fatalf("got %+v", got)
	}

	// The store hands out copies.
	got.Record.Name = "changed"
	again, _ := store.Get(ctx, put.UserID)
	if again.Record.Name != "Ana" {
		t.Error("mutation of a returned session leaked into the store")
	}

	if err := store.Delete(ctx, put.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, _ := store.Get(ctx, put.UserID)
	if gone != nil {
		t.Fatal("session survived delete")
	}
}

func TestMemoryStoreIdleExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute).WithNow(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Put(ctx, &Session{UserID: "u1", Step: StepAwaitingName}); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(29 * time.Minute)
	if sess, _ := store.Get(ctx, "u1"); sess == nil {
		t.Fatal("session expired before the idle TTL")
	}

	// Activity refreshes the expiry.
	if err := store.Put(ctx, &Session{UserID: "u1", Step: StepAwaitingPhone}); err != nil {
		t.Fatalf("put: %v", err)
	}
	now = now.Add(29 * time.Minute)
	if sess, _ := store.Get(ctx, "u1"); sess == nil {
		t.Fatal("session expired despite being refreshed")
	}

	now = now.Add(2 * time.Minute)
	if sess, _ := store.Get(ctx, "u1"); sess != nil {
		t.Fatal("session survived past the idle TTL")
	}
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(0).WithNow(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Put(ctx, &Session{UserID: "u1", Step: StepAwaitingName}); err != nil {
		t.Fatalf("put: %v", err)
	}
	now = now.Add(1000 * time.Hour)
	if sess, _ := store.Get(ctx, "u1"); sess == nil {
		t.Fatal("session expired with expiry disabled")
	}
}
