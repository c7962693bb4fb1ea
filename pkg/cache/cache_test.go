package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	t.Run("MissOnEmpty", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit for a missing key")
		}
	})

	t.Run("SetThenGet", func(t *testing.T) {
		if err := c.Set(ctx, "report:abc", []byte("payload"), 0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		data, ok, err := c.Get(ctx, "report:abc")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || string(data) != "payload" {
			t.Errorf("Get() = %q, %v", data, ok)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		if err := c.Set(ctx, "ttl", []byte("x"), time.Nanosecond); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		_, ok, err := c.Get(ctx, "ttl")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() returned an expired entry")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := c.Set(ctx, "gone", []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, _ := c.Get(ctx, "gone"); ok {
			t.Error("Get() found a deleted key")
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		if err := c.Delete(ctx, "never-set"); err != nil {
			t.Errorf("Delete() on missing key = %v, want nil", err)
		}
	})
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get() = %v, %v, want miss", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestKey(t *testing.T) {
	a := Key("report", "/projects/one")
	b := Key("report", "/projects/two")

	if !strings.HasPrefix(a, "report:") {
		t.Errorf("Key() = %q, want report: prefix", a)
	}
	if a == b {
		t.Error("Key() collides for different parts")
	}
	if a != Key("report", "/projects/one") {
		t.Error("Key() is not deterministic")
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("data"))
	if len(h) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(h))
	}
	if h != Hash([]byte("data")) {
		t.Error("Hash() is not deterministic")
	}
}
