package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forgestats/forgestats/pkg/stats"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("data = %q, want %q", data, "value")
	}
}

func TestFileCacheMiss(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	_, ok, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("ok = true for an absent key")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("ok = true for an expired entry")
	}
}

func TestFileCacheDelete(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("value"), 0)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("entry survived Delete")
	}
	// Deleting an absent key is not an error.
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestFileCacheCorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("value"), 0)
	path := c.(*FileCache).path("key")
	if err := os.WriteFile(path, []byte("{corrupt"), 0644); err != nil {
		t.Fatalf("corrupting entry: %v", err)
	}

	_, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("ok = true for a corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestFileCacheReplaceLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	ctx := context.Background()

	_ = c.Set(ctx, "key", []byte("old"), 0)
	if err := c.Set(ctx, "key", []byte("new"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok || string(data) != "new" {
		t.Fatalf("Get after replace: ok=%v data=%q err=%v", ok, data, err)
	}

	// The write-then-rename must not leave intermediate files behind.
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), ".write-") {
			t.Errorf("leftover temp file %s", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("null cache returned a hit")
	}
}

func TestScopedCacheIsolation(t *testing.T) {
	backing, _ := NewFileCache(t.TempDir())
	a := NewScopedCache(backing, "a:")
	b := NewScopedCache(backing, "b:")
	ctx := context.Background()

	_ = a.Set(ctx, "key", []byte("from-a"), 0)
	if _, ok, _ := b.Get(ctx, "key"); ok {
		t.Error("scope b sees scope a's entry")
	}
	data, ok, _ := a.Get(ctx, "key")
	if !ok || string(data) != "from-a" {
		t.Errorf("scope a: ok=%v data=%q", ok, data)
	}
}

func TestHashIsStable(t *testing.T) {
	if Hash([]byte("x")) != Hash([]byte("x")) {
		t.Error("hash is not deterministic")
	}
	if Hash([]byte("x")) == Hash([]byte("y")) {
		t.Error("distinct inputs collided")
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Errorf("hash length = %d, want 64", len(Hash([]byte("x"))))
	}
}

func TestStoreRoundTrip(t *testing.T) {
	backing, _ := NewFileCache(t.TempDir())
	store := NewStore(backing, 0)
	ctx := context.Background()
	ref := stats.RepositoryRef{Owner: "octocat", Name: "hello-world"}

	snap := &stats.RepositorySnapshot{
		ID:      "snap-1",
		Repo:    ref,
		TakenAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Results: map[stats.Category]stats.StatResult{
			stats.CategoryStars: {Category: stats.CategoryStars, Count: 42, ETag: `"v1"`},
		},
		Status: stats.StatusComplete,
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for a stored snapshot")
	}
	if got.ID != snap.ID || got.Status != stats.StatusComplete {
		t.Errorf("loaded = %+v", got)
	}
	if stars, ok := got.Result(stats.CategoryStars); !ok || stars.Count != 42 || stars.ETag != `"v1"` {
		t.Errorf("stars = %+v", stars)
	}
}

func TestStoreLoadMiss(t *testing.T) {
	store := NewStore(NewNullCache(), 0)
	got, err := store.Load(context.Background(), stats.RepositoryRef{Owner: "o", Name: "r"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil on a miss", got)
	}
}

func TestStoreDelete(t *testing.T) {
	backing, _ := NewFileCache(t.TempDir())
	store := NewStore(backing, 0)
	ctx := context.Background()
	ref := stats.RepositoryRef{Owner: "o", Name: "r"}

	_ = store.Save(ctx, &stats.RepositorySnapshot{ID: "x", Repo: ref})
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Load(ctx, ref); got != nil {
		t.Error("snapshot survived Delete")
	}
}

func TestSnapshotKeyPerRepo(t *testing.T) {
	a := SnapshotKey(stats.RepositoryRef{Owner: "o", Name: "r"})
	b := SnapshotKey(stats.RepositoryRef{Owner: "o", Name: "r2"})
	if a == b {
		t.Error("distinct repositories share a snapshot key")
	}
	if a != "snapshot:o/r" {
		t.Errorf("key = %q", a)
	}
}
