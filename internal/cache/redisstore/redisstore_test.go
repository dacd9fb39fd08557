package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Fatal("miss reported as hit")
	}

	if err := s.Set(ctx, "capa:vp:abc", []byte(`{"type":"FeatureCollection"}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := s.Get(ctx, "capa:vp:abc")
	if !ok || string(got) != `{"type":"FeatureCollection"}` {
		t.Fatalf("Get = (%q, %v)", got, ok)
	}

	if err := s.Del(ctx, "capa:vp:abc"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok := s.Get(ctx, "capa:vp:abc"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestNew_EmptyAddr(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
