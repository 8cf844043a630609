package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sportsfed/memberauth"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisCredentialsRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisCredentials(rdb, "test")
	ctx := context.Background()

	if _, held, err := s.Load(ctx); err != nil || held {
		t.Fatalf("expected empty store, got held=%v err=%v", held, err)
	}

	pair := memberauth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}
	if err := s.Save(ctx, pair); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, held, err := s.Load(ctx)
	if err != nil || !held {
		t.Fatalf("Load failed: held=%v err=%v", held, err)
	}
	if got != pair {
		t.Fatalf("expected %+v, got %+v", pair, got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, held, _ := s.Load(ctx); held {
		t.Fatal("expected empty store after Clear")
	}
}

func TestRedisCredentialsRepairsHalfWrittenPair(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisCredentials(rdb, "test")
	ctx := context.Background()

	// Simulate a crash that left only one slot behind.
	mr.Set("test:access_token", "orphan")

	_, held, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if held {
		t.Fatal("half-written pair must be reported as absent")
	}
	if mr.Exists("test:access_token") {
		t.Fatal("expected orphan slot erased")
	}
}

func TestRedisCredentialsUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisCredentials(rdb, "test")
	mr.Close()

	if err := s.Save(context.Background(), memberauth.TokenPair{AccessToken: "a", RefreshToken: "r"}); err == nil {
		t.Fatal("expected error when redis is down")
	}
}

func TestRedisDraftsRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewRedisDrafts(rdb, "test")
	ctx := context.Background()

	if _, _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty draft store, got ok=%v err=%v", ok, err)
	}

	if err := s.SaveType(ctx, "player"); err != nil {
		t.Fatalf("SaveType failed: %v", err)
	}

	principalType, record, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if principalType != "player" || record != nil {
		t.Fatalf("expected type without record, got %q %q", principalType, record)
	}

	if err := s.SaveRequired(ctx, []byte(`{"username":"abc"}`)); err != nil {
		t.Fatalf("SaveRequired failed: %v", err)
	}
	_, record, _, err = s.Load(ctx)
	if err != nil || string(record) != `{"username":"abc"}` {
		t.Fatalf("expected stored record, got %q err=%v", record, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, _, ok, _ := s.Load(ctx); ok {
		t.Fatal("expected both slots erased together")
	}
}

func TestCredentialAndDraftSlotsDoNotCollide(t *testing.T) {
	_, rdb := newTestRedis(t)
	creds := NewRedisCredentials(rdb, "test")
	drafts := NewRedisDrafts(rdb, "test")
	ctx := context.Background()

	if err := creds.Save(ctx, memberauth.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := drafts.SaveType(ctx, "coach"); err != nil {
		t.Fatalf("SaveType failed: %v", err)
	}

	if err := drafts.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, held, _ := creds.Load(ctx); !held {
		t.Fatal("clearing drafts must not touch credentials")
	}

	if err := creds.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
}

func TestMemoryStoresMatchRedisBehavior(t *testing.T) {
	ctx := context.Background()
	creds := NewMemoryCredentials()

	pair := memberauth.TokenPair{AccessToken: "a", RefreshToken: "r"}
	if err := creds.Save(ctx, pair); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, held, err := creds.Load(ctx)
	if err != nil || !held || got != pair {
		t.Fatalf("Load mismatch: %+v held=%v err=%v", got, held, err)
	}
	if err := creds.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, held, _ := creds.Load(ctx); held {
		t.Fatal("expected empty store after Clear")
	}

	drafts := NewMemoryDrafts()
	if err := drafts.SaveType(ctx, "club"); err != nil {
		t.Fatalf("SaveType failed: %v", err)
	}
	if err := drafts.SaveRequired(ctx, []byte("rec")); err != nil {
		t.Fatalf("SaveRequired failed: %v", err)
	}
	principalType, record, ok, err := drafts.Load(ctx)
	if err != nil || !ok || principalType != "club" || string(record) != "rec" {
		t.Fatalf("Load mismatch: %q %q ok=%v err=%v", principalType, record, ok, err)
	}
	if err := drafts.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, _, ok, _ := drafts.Load(ctx); ok {
		t.Fatal("expected empty draft store after Clear")
	}
}
