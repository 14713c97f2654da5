package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var defaultLruSize = 10240

type memLruCache[V any] struct {
	mCache *expirable.LRU[string, V]
}

// NewMemLruCache 新建memLruCache，ttl对整个缓存生效，ttl<=0表示永不过期
func NewMemLruCache[V any](size int, ttl time.Duration) *memLruCache[V] {
	if size <= 0 {
		size = defaultLruSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &memLruCache[V]{
		mCache: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get 从缓存中取得一个值，已过期或被LRU淘汰的key返回ErrNotFound
func (co *memLruCache[V]) Get(_ context.Context, key string) (V, error) {
	data, ok := co.mCache.Get(key)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return data, nil
}

// Set timeout无效，由于expirable.LRU只支持全局TTL，这里只是简单设置值
func (co *memLruCache[V]) Set(_ context.Context, key string, val V, _ time.Duration) (bool, error) {
	co.mCache.Add(key, val)
	return true, nil
}

// Del 从缓存中删除一个key
func (co *memLruCache[V]) Del(_ context.Context, key string) (bool, error) {
	return co.mCache.Remove(key), nil
}

// Exists 判断key是否存在且未过期
func (co *memLruCache[V]) Exists(_ context.Context, key string) (bool, error) {
	_, ok := co.mCache.Get(key)
	return ok, nil
}

// Close 丢弃全部条目
func (co *memLruCache[V]) Close() error {
	co.mCache.Purge()
	return nil
}
