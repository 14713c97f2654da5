package cache

import (
	"context"
	"time"

	"github.com/gregjones/httpcache/diskcache"
)

type diskCache struct {
	diskCache *diskcache.Cache
}

// NewDiskCache 新建diskCache，条目落盘到basePath目录
func NewDiskCache(basePath string) *diskCache {
	return &diskCache{
		diskCache: diskcache.New(basePath),
	}
}

// Get 从缓存中取得一个值，已过期的条目视同不存在并顺带清除
func (co *diskCache) Get(_ context.Context, key string) (string, error) {
	ret, ok := co.diskCache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	valStr, alive := unwrapExpiry(string(ret))
	if !alive {
		co.diskCache.Delete(key)
		return "", ErrNotFound
	}
	return valStr, nil
}

// Set timeout<=0 表示永不过期
func (co *diskCache) Set(_ context.Context, key string, val string, timeout time.Duration) (bool, error) {
	co.diskCache.Set(key, []byte(wrapExpiry(val, timeout)))
	return true, nil
}

// Del 从缓存中删除一个key，已过期的视同不存在
func (co *diskCache) Del(_ context.Context, key string) (bool, error) {
	ret, ok := co.diskCache.Get(key)
	if !ok {
		return false, nil
	}
	_, alive := unwrapExpiry(string(ret))
	co.diskCache.Delete(key)
	return alive, nil
}

// Exists 判断key是否存在且未过期
func (co *diskCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := co.Get(ctx, key)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Close diskv没有需要释放的句柄，条目保留在磁盘上
func (co *diskCache) Close() error {
	return nil
}
