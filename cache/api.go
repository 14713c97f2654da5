package cache

import (
	"context"
	"errors"
	"fmt"
	"github.com/magic-lib/go-plat-utils/conv"
	"time"
)

// ErrNotFound key不存在、已过期或已被删除时返回
var ErrNotFound = errors.New("cache: key not found")

// CommCache 公共缓存接口
type CommCache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error)
	Del(ctx context.Context, key string) (bool, error)
}

// LocalCache 本地缓存接口，带存在性检查与关闭能力
// Exists 与 Get 保持一致：Exists 为 true 当且仅当 Get 能返回值
type LocalCache[V any] interface {
	CommCache[V]
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// GetNsKey 获取namespace下的key，规范化
func getNsKey(ns string, key string) string {
	if ns != "" {
		return fmt.Sprintf("{%s}%s", ns, key)
	}
	return key
}

func NsGetStr[V any](ctx context.Context, co CommCache[string], ns string, key string) (V, error) {
	retStr, err := co.Get(ctx, getNsKey(ns, key))
	if err != nil {
		var zero V
		return zero, err
	}
	return strToVal[V](retStr)
}
func NsSetStr[V any](ctx context.Context, co CommCache[string], ns string, key string, val V, timeout time.Duration) (bool, error) {
	return co.Set(ctx, getNsKey(ns, key), conv.String(val), timeout)
}

// NsGet xxx
func NsGet[V any](ctx context.Context, co CommCache[V], ns string, key string) (V, error) {
	return co.Get(ctx, getNsKey(ns, key))
}

// NsSet xxx
func NsSet[V any](ctx context.Context, co CommCache[V], ns string, key string, val V, timeout time.Duration) (bool, error) {
	return co.Set(ctx, getNsKey(ns, key), val, timeout)
}

// NsDel xxx
func NsDel[V any](ctx context.Context, co CommCache[V], ns string, key string) (bool, error) {
	return co.Del(ctx, getNsKey(ns, key))
}

// NsExists xxx
func NsExists[V any](ctx context.Context, co LocalCache[V], ns string, key string) (bool, error) {
	return co.Exists(ctx, getNsKey(ns, key))
}

var (
	_ LocalCache[any]    = (*localCache[any])(nil)
	_ LocalCache[any]    = (*memGoCache[any])(nil)
	_ LocalCache[any]    = (*memLruCache[any])(nil)
	_ LocalCache[any]    = (*fastCache[any])(nil)
	_ LocalCache[string] = (*diskCache)(nil)
	_ CommCache[any]     = (*defaultCache[any])(nil)
	_ LocalCache[any]    = (*redisCache[any])(nil)
	_ LocalCache[any]    = (*mySQLCache[any])(nil)
	_ LocalCache[any]    = (*JetCache[any])(nil)
	_ CommCache[bool]    = (*cuckooFilter[bool])(nil)
	_ CommCache[bool]    = (*countingFilter[bool])(nil)
)
