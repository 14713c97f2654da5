package idempotent_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/magic-lib/go-plat-localcache/cache"
	"github.com/magic-lib/go-plat-localcache/idempotent"
)

func TestDoRepeat(t *testing.T) {
	cfg := idempotent.WithConfig(&idempotent.Config{
		Namespace:  "order",
		Cache:      cache.NewLocalCache[string](0),
		Expiration: time.Minute,
	})

	ctx := context.Background()
	ret, err := cfg.Do(ctx, "order-1", func() (any, error) {
		return "done", nil
	})
	if err != nil || ret != "done" {
		t.Fatalf("first Do = (%v, %v), want (done, nil)", ret, err)
	}

	// 同一个key重复提交
	_, err = cfg.Do(ctx, "order-1", func() (any, error) {
		t.Error("fn should not run on repeat request")
		return nil, nil
	})
	if !errors.Is(err, cfg.ErrRepeat) {
		t.Errorf("repeat Do err = %v, want ErrRepeat", err)
	}
}

func TestDoRollbackOnErr(t *testing.T) {
	cfg := idempotent.WithConfig(&idempotent.Config{
		Namespace:     "pay",
		Cache:         cache.NewLocalCache[string](0),
		Expiration:    time.Minute,
		RollbackOnErr: true,
	})

	ctx := context.Background()
	wantErr := errors.New("biz failed")
	_, err := cfg.Do(ctx, "pay-1", func() (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do err = %v, want %v", err, wantErr)
	}

	// 失败后回滚，允许重试
	ret, err := cfg.Do(ctx, "pay-1", func() (any, error) {
		return "ok", nil
	})
	if err != nil || ret != "ok" {
		t.Errorf("retry Do = (%v, %v), want (ok, nil)", ret, err)
	}
}

func TestDoExpire(t *testing.T) {
	cfg := idempotent.WithConfig(&idempotent.Config{
		Namespace:  "task",
		Cache:      cache.NewLocalCache[string](0),
		Expiration: 50 * time.Millisecond,
	})

	ctx := context.Background()
	_, err := cfg.Do(ctx, "task-1", func() (any, error) { return nil, nil })
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(70 * time.Millisecond)

	// 幂等窗口过了，可以再次提交
	_, err = cfg.Do(ctx, "task-1", func() (any, error) { return nil, nil })
	if err != nil {
		t.Errorf("Do after expiration err = %v, want nil", err)
	}
}

func TestDoConcurrent(t *testing.T) {
	cfg := idempotent.WithConfig(&idempotent.Config{
		Namespace:  "submit",
		Cache:      cache.NewLocalCache[string](0),
		Expiration: time.Minute,
	})

	var runs int32
	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cfg.Do(ctx, "submit-1", func() (any, error) {
				atomic.AddInt32(&runs, 1)
				return nil, nil
			})
		}()
	}
	wg.Wait()
	if n := atomic.LoadInt32(&runs); n != 1 {
		t.Errorf("fn ran %d times under concurrency, want 1", n)
	}
}
