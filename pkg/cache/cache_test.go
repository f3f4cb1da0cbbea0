package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if data, hit, err := c.Get(ctx, "key"); err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

// exercise runs the behaviour every backend shares. advance moves the
// backend clock forward.
func exercise(t *testing.T, c Cache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "b", []byte("beta"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "a")
	if err != nil || !hit {
		t.Fatalf("Get(a) hit=%v err=%v", hit, err)
	}
	if diff := cmp.Diff([]byte("alpha"), got); diff != "" {
		t.Errorf("Get(a) mismatch (-want +got):\n%s", diff)
	}

	advance(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("expired entry b still present")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("entry a without ttl expired")
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted entry a still present")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	exercise(t, c, func(d time.Duration) { now = now.Add(d) })

	buf := []byte("x")
	_ = c.Set(context.Background(), "copy", buf, 0)
	buf[0] = 'y'
	if got, _, _ := c.Get(context.Background(), "copy"); string(got) != "x" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	exercise(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestFileCacheCorruptEntry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() hit=%v err=%v, want clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() removed %d, want 3", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Error("Clear() removed a foreign file")
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if h != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("different inputs share a hash")
	}
	if len(h) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h))
	}
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	opts := PayloadKeyOpts{Width: 800, Height: 600}

	a := k.PayloadKey("abc", opts)
	if !strings.HasPrefix(a, "payload:") {
		t.Errorf("PayloadKey = %q", a)
	}
	if a != k.PayloadKey("abc", opts) {
		t.Error("PayloadKey is not deterministic")
	}
	if a == k.PayloadKey("abc", PayloadKeyOpts{Width: 1024, Height: 600}) {
		t.Error("viewport does not change the key")
	}
	if got := k.AssetKey("https://cdn/x.js"); got != "asset:https://cdn/x.js" {
		t.Errorf("AssetKey = %q", got)
	}

	scoped := NewScopedKeyer(nil, "tenant:")
	if got, want := scoped.PayloadKey("abc", opts), "tenant:"+a; got != want {
		t.Errorf("scoped PayloadKey = %q, want %q", got, want)
	}
}

func TestRetry(t *testing.T) {
	transient := errors.New("transient")
	fatal := errors.New("fatal")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"success", nil, 1, nil},
		{"recovers", []error{Retryable(transient)}, 2, nil},
		{"exhausted", []error{Retryable(transient), Retryable(transient), Retryable(transient)}, 3, transient},
		{"not retryable", []error{fatal}, 1, fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), 3, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Retry(ctx, 3, time.Hour, func() error {
		cancel()
		return Retryable(errors.New("down"))
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisCache() succeeded without a server")
	}
	if _, err := NewRedisCache(context.Background(), RedisOptions{URL: "http://nope"}); err == nil {
		t.Error("NewRedisCache() accepted a non-redis URL")
	}
}
