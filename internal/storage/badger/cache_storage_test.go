package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quanta/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) interfaces.CacheStorage {
	t.Helper()
	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewCacheStorage(db, arbor.NewLogger())
}

func TestCacheStoragePutGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	key := "0F5A8B3C2D1E4F5A8B3C2D1E4F5A8B3C"
	payload := []byte(`{"financial_metrics":[{"ticker":"AAPL"}]}`)

	if storage.Exists(ctx, key) {
		t.Error("Exists() = true before Put")
	}

	if err := storage.Put(ctx, key, payload); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if !storage.Exists(ctx, key) {
		t.Error("Exists() = false after Put")
	}

	got, err := storage.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get() = %q, want %q", got, payload)
	}
}

func TestCacheStorageMiss(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Get(context.Background(), "missing-key")
	if err != interfaces.ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestCacheStorageOverwrite(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	key := "ABCDEF0123456789ABCDEF0123456789"
	if err := storage.Put(ctx, key, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := storage.Put(ctx, key, []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, err := storage.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}
