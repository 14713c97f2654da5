package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/magic-lib/go-plat-localcache/cache"
)

func TestLocalCacheSetGet(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	_, _ = oneCache.Set(nil, "key1", "value1", 0)
	val, err := oneCache.Get(nil, "key1")
	if err != nil {
		t.Fatal(err)
	}
	if val != "value1" {
		t.Errorf("get key1 = %s, want value1", val)
	}

	// 没有设置过的key
	_, err = oneCache.Get(nil, "nonexistent")
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("get nonexistent err = %v, want ErrNotFound", err)
	}
}

func TestLocalCacheTTL(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	_, _ = oneCache.Set(nil, "key_ttl", "value", 100*time.Millisecond)
	ok, _ := oneCache.Exists(nil, "key_ttl")
	if !ok {
		t.Fatal("key_ttl should exist right after set")
	}

	time.Sleep(110 * time.Millisecond)

	ok, _ = oneCache.Exists(nil, "key_ttl")
	if ok {
		t.Error("key_ttl should be expired")
	}
	_, err := oneCache.Get(nil, "key_ttl")
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("get expired key err = %v, want ErrNotFound", err)
	}
}

func TestLocalCacheNoTTLNeverExpires(t *testing.T) {
	oneCache := cache.NewLocalCache[string](10 * time.Millisecond)
	defer oneCache.Close()

	_, _ = oneCache.Set(nil, "forever", "v", 0)
	time.Sleep(50 * time.Millisecond) //清理循环跑过几轮
	val, err := oneCache.Get(nil, "forever")
	if err != nil || val != "v" {
		t.Errorf("get forever = (%s, %v), want (v, nil)", val, err)
	}
}

func TestLocalCacheSetOverwritesExpiry(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	// 覆盖写会同时替换值与过期时间
	_, _ = oneCache.Set(nil, "key", "v1", 50*time.Millisecond)
	_, _ = oneCache.Set(nil, "key", "v2", 0)
	time.Sleep(80 * time.Millisecond)
	val, err := oneCache.Get(nil, "key")
	if err != nil || val != "v2" {
		t.Errorf("get key = (%s, %v), want (v2, nil)", val, err)
	}
}

func TestLocalCacheDel(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	_, _ = oneCache.Set(nil, "key2", "value2", 0)
	removed, _ := oneCache.Del(nil, "key2")
	if !removed {
		t.Error("del of live key should return true")
	}
	_, err := oneCache.Get(nil, "key2")
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("get deleted key err = %v, want ErrNotFound", err)
	}

	removed, _ = oneCache.Del(nil, "nonexistent")
	if removed {
		t.Error("del of absent key should return false")
	}

	// 已过期的key等同不存在
	_, _ = oneCache.Set(nil, "key3", "value3", 30*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	removed, _ = oneCache.Del(nil, "key3")
	if removed {
		t.Error("del of expired key should return false")
	}
}

func TestLocalCacheClose(t *testing.T) {
	oneCache := cache.NewLocalCache[string](time.Minute)

	_, _ = oneCache.Set(nil, "key4", "value4", 0)
	if err := oneCache.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := oneCache.Get(nil, "key4")
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("get after close err = %v, want ErrNotFound", err)
	}

	//重复关闭也安全
	if err := oneCache.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = oneCache.Set(nil, "key5", "value5", 0)
	if !errors.Is(err, cache.ErrClosed) {
		t.Errorf("set after close err = %v, want ErrClosed", err)
	}
}

func TestLocalCacheExistsAgreesWithGet(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	keys := []string{"a", "b", "c"}
	_, _ = oneCache.Set(nil, "a", "1", 0)
	_, _ = oneCache.Set(nil, "b", "2", 40*time.Millisecond)

	check := func() {
		for _, k := range keys {
			ok, _ := oneCache.Exists(nil, k)
			_, err := oneCache.Get(nil, k)
			if ok != (err == nil) {
				t.Errorf("exists(%s)=%v but get err=%v", k, ok, err)
			}
		}
	}
	check()
	time.Sleep(60 * time.Millisecond)
	check()
}

func TestLocalCachePutIfAbsent(t *testing.T) {
	oneCache := cache.NewLocalCache[string](0)
	defer oneCache.Close()

	stored, _ := oneCache.PutIfAbsent(nil, "lock", "a", 0)
	if !stored {
		t.Error("first PutIfAbsent should store")
	}
	stored, _ = oneCache.PutIfAbsent(nil, "lock", "b", 0)
	if stored {
		t.Error("second PutIfAbsent should not store")
	}
	val, _ := oneCache.Get(nil, "lock")
	if val != "a" {
		t.Errorf("get lock = %s, want a", val)
	}

	// 过期后的key等同不存在，可以重新写入
	_, _ = oneCache.Set(nil, "lock2", "a", 30*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	stored, _ = oneCache.PutIfAbsent(nil, "lock2", "b", 0)
	if !stored {
		t.Error("PutIfAbsent on expired key should store")
	}
}

func TestLocalCacheStruct(t *testing.T) {
	type user struct {
		Name string
	}
	oneCache := cache.NewLocalCache[*user](0)
	defer oneCache.Close()

	_, _ = oneCache.Set(nil, "aaaa", &user{Name: "tiantian"}, 50*time.Second)
	kk, err := oneCache.Get(nil, "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	fmt.Println(kk.Name, err)
	if kk.Name != "tiantian" {
		t.Errorf("get aaaa name = %s, want tiantian", kk.Name)
	}
}

func TestLocalCacheConcurrent(t *testing.T) {
	oneCache := cache.NewLocalCache[int](0)
	defer oneCache.Close()

	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%10)
			_, _ = oneCache.Set(ctx, key, n, time.Second)
			_, _ = oneCache.Get(ctx, key)
			_, _ = oneCache.Exists(ctx, key)
			if n%7 == 0 {
				_, _ = oneCache.Del(ctx, key)
			}
		}(i)
	}
	wg.Wait()
}
