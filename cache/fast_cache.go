package cache

import (
	"context"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/magic-lib/go-plat-utils/conv"
)

type fastCache[V any] struct {
	mCache *fastcache.Cache
}

// NewFastCache 新建fastCache，maxSize为缓存总字节数
func NewFastCache[V any](maxSize int) *fastCache[V] {
	if maxSize <= 1024 {
		maxSize = 128 * 1024 * 1024
	}
	return &fastCache[V]{
		mCache: fastcache.New(maxSize),
	}
}

// Get 从缓存中取得一个值，fastcache本身不支持过期时间，
// 这里通过信封中的过期时间惰性判断
func (co *fastCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	data := co.mCache.Get(nil, []byte(key))
	if len(data) == 0 {
		return zero, ErrNotFound
	}
	valStr, ok := unwrapExpiry(string(data))
	if !ok {
		co.mCache.Del([]byte(key))
		return zero, ErrNotFound
	}
	return conv.Convert[V](valStr)
}

// Set timeout<=0 表示永不过期
func (co *fastCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	co.mCache.Set([]byte(key), []byte(wrapExpiry(conv.String(val), timeout)))
	return true, nil
}

// Del 从缓存中删除一个key，已过期的视同不存在
func (co *fastCache[V]) Del(_ context.Context, key string) (bool, error) {
	data := co.mCache.Get(nil, []byte(key))
	if len(data) == 0 {
		return false, nil
	}
	_, alive := unwrapExpiry(string(data))
	co.mCache.Del([]byte(key))
	return alive, nil
}

// Exists 判断key是否存在且未过期
func (co *fastCache[V]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := co.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Close 丢弃全部条目
func (co *fastCache[V]) Close() error {
	co.mCache.Reset()
	return nil
}
