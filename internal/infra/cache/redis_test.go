package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
)

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failSet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.failSet {
		return errors.New("READONLY")
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func TestRedisStoreRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, "clicker")
	ctx := context.Background()

	if _, err := store.Get(ctx, storage.KeyPlayer); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected storage.ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, storage.KeyPlayer, []byte(`{"balance":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := fake.data["clicker:"+storage.KeyPlayer]; !ok {
		t.Errorf("Key was not namespaced: %v", fake.data)
	}

	got, err := store.Get(ctx, storage.KeyPlayer)
	if err != nil || string(got) != `{"balance":1}` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := store.Delete(ctx, storage.KeyPlayer); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, storage.KeyPlayer); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected miss after delete, got %v", err)
	}
}

func TestRedisStoreExpirationAndErrors(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, "").WithExpiration(time.Hour)
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"))
	if fake.ttls["k"] != time.Hour {
		t.Errorf("TTL = %v, want 1h", fake.ttls["k"])
	}

	fake.failSet = true
	if err := store.Set(ctx, "k", []byte("v2")); err == nil {
		t.Error("Expected write error to surface")
	}
}
