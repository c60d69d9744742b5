package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	s := NewMemoryStoreWithLogger(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Stop)
	return s
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	rec := &Record{ID: "sess1", State: "state1"}
	if err := s.Set(ctx, rec); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != "state1" {
		t.Errorf("Get() state = %q, want %q", got.State, "state1")
	}
	if got.CreatedAt.IsZero() {
		t.Error("Set() did not stamp CreatedAt")
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := newTestStore(t, time.Hour)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	_, err = s.Get(context.Background(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(\"\") error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSetRequiresID(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Set(context.Background(), &Record{}); err == nil {
		t.Fatal("Set() with empty ID should fail")
	}
	if err := s.Set(context.Background(), nil); err == nil {
		t.Fatal("Set(nil) should fail")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := s.Set(ctx, &Record{ID: "sess1"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, "sess1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "sess1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after Delete() error = %v, want ErrNotFound", err)
	}

	// Deleting a missing record is not an error
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete() of missing record error = %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := s.Set(ctx, &Record{ID: "sess1", State: "original"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.State = "mutated"

	again, err := s.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.State != "original" {
		t.Errorf("mutation of a returned record leaked into the store: state = %q", again.State)
	}
}

func TestMemoryStoreUpdateReplacesRecord(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := s.Set(ctx, &Record{ID: "sess1", State: "pending"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	rec, err := s.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	rec.Token = &oauth2.Token{AccessToken: "tok"}
	rec.Profile = &Profile{Email: "user@example.com"}
	if err := s.Set(ctx, rec); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Authenticated() {
		t.Error("updated record should be authenticated")
	}
	if got.Profile.Email != "user@example.com" {
		t.Errorf("profile email = %q, want %q", got.Profile.Email, "user@example.com")
	}
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Set(ctx, &Record{ID: "fresh"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, &Record{ID: "stale"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Age the stale record past the TTL
	s.mu.Lock()
	s.records["stale"].LastAccess = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	if got := s.sweepExpired(time.Now()); got != 1 {
		t.Fatalf("sweepExpired() = %d, want 1", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() after sweep = %d, want 1", s.Len())
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh record should survive the sweep: %v", err)
	}
}
