package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	loadcache "github.com/magic-lib/go-plat-localcache/cache/load-cache"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestGetOrLoad(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{
		DefaultTTL:     time.Minute,
		EmptyTTL:       time.Second,
		BackgroundJobs: 2,
	})
	defer c.Purge()

	var loads int32
	loader := func(ctx context.Context) (interface{}, time.Duration, error) {
		atomic.AddInt32(&loads, 1)
		return "value1", 0, nil
	}

	val, err := c.GetOrLoadCtx(context.Background(), "key1", loader)
	if err != nil || val != "value1" {
		t.Fatalf("GetOrLoadCtx = (%v, %v), want (value1, nil)", val, err)
	}

	// 第二次应命中缓存，不再调用loader
	val, err = c.GetOrLoadCtx(context.Background(), "key1", loader)
	if err != nil || val != "value1" {
		t.Fatalf("GetOrLoadCtx hit = (%v, %v), want (value1, nil)", val, err)
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestGetOrLoadError(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{DefaultTTL: time.Minute})

	wantErr := errors.New("load failed")
	_, err := c.GetOrLoadCtx(context.Background(), "bad", func(ctx context.Context) (interface{}, time.Duration, error) {
		return nil, 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed load should not be cached")
	}
}

func TestGetOrLoadSingleflight(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{DefaultTTL: time.Minute})

	var loads int32
	loader := func(ctx context.Context) (interface{}, time.Duration, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(30 * time.Millisecond)
		return "v", 0, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrLoadCtx(context.Background(), "same", loader)
		}()
	}
	wg.Wait()
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("loader called %d times under concurrency, want 1", n)
	}
}

func TestTTLExpire(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{DefaultTTL: time.Minute})

	c.SetWithTTL("short", "v", 50*time.Millisecond)
	if _, ok := c.Get("short"); !ok {
		t.Fatal("short should exist right after set")
	}
	time.Sleep(70 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("short should be expired")
	}
}

func TestDelete(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{DefaultTTL: time.Minute})

	c.SetWithTTL("key", "v", 0)
	c.Delete("key")
	if _, ok := c.Get("key"); ok {
		t.Error("deleted key should be absent")
	}
}

func TestCustomWeigherEviction(t *testing.T) {
	c := loadcache.NewCache(loadcache.CacheOptions{
		DefaultTTL:    time.Minute,
		ShardCount:    1,
		TotalMaxBytes: 150,
		Weigher: func(key string, val interface{}) int64 {
			return 100
		},
	})

	c.SetWithTTL("a", "v", 0)
	c.SetWithTTL("b", "v", 0)

	// 容量150只装得下一个权重100的条目，最早的a被驱逐，b必须还在
	if _, ok := c.Get("b"); !ok {
		t.Fatal("b should survive eviction right after set")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted")
	}

	// 驱逐按写入时的权重扣减容量，后续写入不会连环驱逐
	c.SetWithTTL("c", "v", 0)
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive eviction right after set")
	}
	if c.ShardItems(0) != 1 {
		t.Errorf("shard holds %d items, want 1", c.ShardItems(0))
	}
}

type mapPersister struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (p *mapPersister) Save(key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key] = value
	return nil
}

func (p *mapPersister) Load(key string) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.items[key]
	return v, ok
}

func TestPersisterBackfill(t *testing.T) {
	p := &mapPersister{items: map[string]interface{}{"warm": "from-disk"}}
	c := loadcache.NewCache(loadcache.CacheOptions{
		DefaultTTL: time.Minute,
		Persister:  p,
	})

	// miss时先从持久化层回填，不触发loader
	val, err := c.GetOrLoadCtx(context.Background(), "warm", func(ctx context.Context) (interface{}, time.Duration, error) {
		t.Error("loader should not be called when persister has the key")
		return nil, 0, nil
	})
	if err != nil || val != "from-disk" {
		t.Fatalf("GetOrLoadCtx = (%v, %v), want (from-disk, nil)", val, err)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsCount(t *testing.T) {
	m := loadcache.NewMetrics("loadcache_test")
	c := loadcache.NewCache(loadcache.CacheOptions{
		DefaultTTL: time.Minute,
		Metrics:    m,
	})

	c.SetWithTTL("key", "v", 0)
	c.Get("key")
	c.Get("missing")

	if got := counterValue(t, m.Hits); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := counterValue(t, m.Misses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := counterValue(t, m.Evictions); got != 0 {
		t.Errorf("evictions = %v, want 0", got)
	}
}
