package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magic-lib/go-plat-localcache/cache"
)

// 各内存后端都满足LocalCache的基本契约
func TestMemBackendsContract(t *testing.T) {
	ctx := context.Background()
	backends := map[string]cache.LocalCache[string]{
		"memGoCache":  cache.NewMemGoCache[string](10*time.Minute, 10*time.Minute),
		"memLruCache": cache.NewMemLruCache[string](128, 10*time.Minute),
		"fastCache":   cache.NewFastCache[string](0),
	}

	for name, co := range backends {
		_, err := co.Set(ctx, "key1", "value1", time.Minute)
		if err != nil {
			t.Errorf("%s: set err = %v", name, err)
			continue
		}
		val, err := co.Get(ctx, "key1")
		if err != nil || val != "value1" {
			t.Errorf("%s: get key1 = (%s, %v), want (value1, nil)", name, val, err)
		}
		ok, _ := co.Exists(ctx, "key1")
		if !ok {
			t.Errorf("%s: key1 should exist", name)
		}

		_, err = co.Get(ctx, "nonexistent")
		if !errors.Is(err, cache.ErrNotFound) {
			t.Errorf("%s: get nonexistent err = %v, want ErrNotFound", name, err)
		}

		removed, _ := co.Del(ctx, "key1")
		if !removed {
			t.Errorf("%s: del of live key should return true", name)
		}
		removed, _ = co.Del(ctx, "key1")
		if removed {
			t.Errorf("%s: del of absent key should return false", name)
		}

		_ = co.Close()
	}
}

func TestMemGoCacheTTL(t *testing.T) {
	ctx := context.Background()
	co := cache.NewMemGoCache[string](time.Minute, time.Minute)

	_, _ = co.Set(ctx, "short", "v", 50*time.Millisecond)
	if ok, _ := co.Exists(ctx, "short"); !ok {
		t.Fatal("short should exist right after set")
	}
	time.Sleep(70 * time.Millisecond)
	if ok, _ := co.Exists(ctx, "short"); ok {
		t.Error("short should be expired")
	}
}

func TestMemGoCacheZeroTimeoutNeverExpires(t *testing.T) {
	ctx := context.Background()
	co := cache.NewMemGoCache[string](50*time.Millisecond, time.Minute)

	// timeout<=0 永不过期，不受构造时defaultExpiration影响
	_, _ = co.Set(ctx, "forever", "v", 0)
	_, _ = co.PutIfAbsent(ctx, "forever2", "v", -1)
	time.Sleep(80 * time.Millisecond)

	val, err := co.Get(ctx, "forever")
	if err != nil || val != "v" {
		t.Errorf("get forever = (%s, %v), want (v, nil)", val, err)
	}
	if ok, _ := co.Exists(ctx, "forever2"); !ok {
		t.Error("forever2 should not expire")
	}
}

func TestFastCacheTTL(t *testing.T) {
	ctx := context.Background()
	co := cache.NewFastCache[string](0)

	_, _ = co.Set(ctx, "short", "v", 50*time.Millisecond)
	if ok, _ := co.Exists(ctx, "short"); !ok {
		t.Fatal("short should exist right after set")
	}
	time.Sleep(70 * time.Millisecond)
	_, err := co.Get(ctx, "short")
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("get expired key err = %v, want ErrNotFound", err)
	}

	// 无过期时间的key一直存在
	_, _ = co.Set(ctx, "forever", "v", 0)
	time.Sleep(20 * time.Millisecond)
	val, err := co.Get(ctx, "forever")
	if err != nil || val != "v" {
		t.Errorf("get forever = (%s, %v), want (v, nil)", val, err)
	}
}

func TestMemLruCacheEvict(t *testing.T) {
	ctx := context.Background()
	co := cache.NewMemLruCache[int](2, 0)

	_, _ = co.Set(ctx, "a", 1, 0)
	_, _ = co.Set(ctx, "b", 2, 0)
	_, _ = co.Set(ctx, "c", 3, 0)

	// 容量2，最早的a应被淘汰
	if ok, _ := co.Exists(ctx, "a"); ok {
		t.Error("a should have been evicted")
	}
	if ok, _ := co.Exists(ctx, "c"); !ok {
		t.Error("c should exist")
	}
}
