package cache

import (
	"context"
	"time"

	"github.com/magic-lib/go-plat-utils/conv"
	gocache "github.com/patrickmn/go-cache"
)

type memGoCache[V any] struct {
	mCache *gocache.Cache
}

// NewMemGoCache 新建memGoCache，defaultExpiration只作用于底层go-cache自身的默认值，
// 本封装的Set/PutIfAbsent在timeout<=0时显式传NoExpiration
func NewMemGoCache[V any](defaultExpiration, cleanupInterval time.Duration) *memGoCache[V] {
	return &memGoCache[V]{
		mCache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get 从缓存中取得一个值，go-cache读取时自动过滤已过期的key
func (co *memGoCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	data, ok := co.mCache.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	if retVal, ok := data.(V); ok {
		return retVal, nil
	}
	return conv.Convert[V](data)
}

// Set timeout<=0 表示永不过期
func (co *memGoCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = gocache.NoExpiration
	}
	co.mCache.Set(key, val, timeout)
	return true, nil
}

// Del 从缓存中删除一个key，只有key还活着才返回true
func (co *memGoCache[V]) Del(_ context.Context, key string) (bool, error) {
	_, found := co.mCache.Get(key)
	co.mCache.Delete(key)
	return found, nil
}

// Exists 判断key是否存在且未过期
func (co *memGoCache[V]) Exists(_ context.Context, key string) (bool, error) {
	_, found := co.mCache.Get(key)
	return found, nil
}

// PutIfAbsent 不存在时才写入，返回是否写入成功，timeout<=0 表示永不过期
func (co *memGoCache[V]) PutIfAbsent(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = gocache.NoExpiration
	}
	err := co.mCache.Add(key, val, timeout)
	return err == nil, nil
}

// Close 丢弃全部条目，go-cache的清理协程由finalizer回收
func (co *memGoCache[V]) Close() error {
	co.mCache.Flush()
	return nil
}
