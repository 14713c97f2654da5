package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/magic-lib/go-plat-utils/goroutines"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// ErrClosed 缓存已关闭后再写入时返回
var ErrClosed = errors.New("cache: cache is closed")

var defaultCleanupInterval = 10 * time.Minute

// cacheItem 单个缓存条目，expireAt 为 UnixNano，0 表示永不过期
type cacheItem[V any] struct {
	value    V
	expireAt int64
}

func newCacheItem[V any](val V, timeout time.Duration) *cacheItem[V] {
	it := &cacheItem[V]{value: val}
	if timeout > 0 {
		it.expireAt = time.Now().Add(timeout).UnixNano()
	}
	return it
}

// isExpired 判断条目是否已过期
func (it *cacheItem[V]) isExpired(now int64) bool {
	return it.expireAt > 0 && now > it.expireAt
}

// localCache 进程内的过期KV缓存，读取时惰性判断过期，
// 后台清理循环只做内存回收，不承担正确性
type localCache[V any] struct {
	items     cmap.ConcurrentMap[string, *cacheItem[V]]
	stopClean chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewLocalCache 新建本地缓存，cleanupInterval<=0 表示不启动后台清理
func NewLocalCache[V any](cleanupInterval time.Duration) *localCache[V] {
	co := &localCache[V]{
		items:     cmap.New[*cacheItem[V]](),
		stopClean: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		goroutines.GoAsync(func(params ...any) {
			co.cleanupLoop(cleanupInterval)
		}, nil)
	}
	return co
}

// Get 从缓存中取得一个值，不存在或已过期返回ErrNotFound
func (co *localCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	it, ok := co.items.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	if it.isExpired(time.Now().UnixNano()) {
		co.removeExpired(key)
		return zero, ErrNotFound
	}
	return it.value, nil
}

// Set timeout<=0 表示永不过期，覆盖时同时替换值和过期时间
func (co *localCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if co.closed.Load() {
		return false, ErrClosed
	}
	co.items.Set(key, newCacheItem(val, timeout))
	return true, nil
}

// Del 从缓存中删除一个key，只有删到活的条目才返回true，
// 已过期的条目视同不存在，顺带物理清除
func (co *localCache[V]) Del(_ context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	removedLive := false
	co.items.RemoveCb(key, func(_ string, it *cacheItem[V], exists bool) bool {
		if !exists {
			return false
		}
		if it.isExpired(now) {
			return true
		}
		removedLive = true
		return true
	})
	return removedLive, nil
}

// Exists 判断key是否存在且未过期，与Get保持一致
func (co *localCache[V]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := co.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PutIfAbsent 不存在活的条目时才写入，返回是否写入成功
func (co *localCache[V]) PutIfAbsent(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if co.closed.Load() {
		return false, ErrClosed
	}
	stored := false
	now := time.Now().UnixNano()
	co.items.Upsert(key, nil, func(exist bool, old, _ *cacheItem[V]) *cacheItem[V] {
		if exist && old != nil && !old.isExpired(now) {
			return old
		}
		stored = true
		return newCacheItem(val, timeout)
	})
	return stored, nil
}

// Count 当前条目数量，包含已过期但还未清理的
func (co *localCache[V]) Count() int {
	return co.items.Count()
}

// Close 丢弃全部条目并停止后台清理，可重复调用
func (co *localCache[V]) Close() error {
	co.closeOnce.Do(func() {
		co.closed.Store(true)
		close(co.stopClean)
		co.items.Clear()
	})
	return nil
}

// cleanupLoop 定期清理已过期的条目，避免只写不读时内存无限增长
func (co *localCache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-co.stopClean:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			expiredKeys := make([]string, 0)
			co.items.IterCb(func(key string, it *cacheItem[V]) {
				if it.isExpired(now) {
					expiredKeys = append(expiredKeys, key)
				}
			})
			for _, key := range expiredKeys {
				co.removeExpired(key)
			}
		}
	}
}

// removeExpired 只在条目仍然过期时才移除，避免误删并发下新写入的值
func (co *localCache[V]) removeExpired(key string) {
	now := time.Now().UnixNano()
	co.items.RemoveCb(key, func(_ string, it *cacheItem[V], exists bool) bool {
		return exists && it.isExpired(now)
	})
}
