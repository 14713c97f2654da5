package idempotent

import (
	"context"
	"fmt"
	"time"

	"github.com/magic-lib/go-plat-localcache/cache"
)

// Cacher 幂等需要的缓存能力，PutIfAbsent必须是原子的
type Cacher interface {
	cache.CommCache[string]
	PutIfAbsent(ctx context.Context, key string, val string, timeout time.Duration) (bool, error)
}

// Config 幂等配置项
type Config struct {
	Namespace     string
	Cache         Cacher
	Expiration    time.Duration // 幂等过期时间
	ErrRepeat     error         // 重复请求的错误提示
	RollbackOnErr bool          // 业务执行失败时是否回滚缓存（删除Key，允许重试）
}

const lockValue = "LOCK"

// 默认配置
var defaultConfig = Config{
	Namespace:     "idempotent",
	Cache:         cache.NewLocalCache[string](10 * time.Minute),
	Expiration:    5 * time.Second,
	ErrRepeat:     fmt.Errorf("重复请求，请稍后再试"),
	RollbackOnErr: true,
}

// WithConfig 自定义配置
func WithConfig(cfg *Config) *Config {
	if cfg == nil {
		return &defaultConfig
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultConfig.Namespace
	}
	if cfg.Cache == nil {
		cfg.Cache = defaultConfig.Cache
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = defaultConfig.Expiration
	}
	if cfg.ErrRepeat == nil {
		cfg.ErrRepeat = defaultConfig.ErrRepeat
	}
	return cfg
}

// Do 执行幂等操作，核心原子逻辑
func (c *Config) Do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	cfg := WithConfig(c)
	nsKey := fmt.Sprintf("{%s}%s", cfg.Namespace, key)

	// 1. 原子化写入缓存（NX逻辑，不存在则写入，存在则失败）
	success, err := cfg.Cache.PutIfAbsent(ctx, nsKey, lockValue, cfg.Expiration)
	if err != nil {
		return nil, fmt.Errorf("幂等缓存操作失败: %w", err)
	}
	if !success {
		return nil, cfg.ErrRepeat
	}

	// 2. 执行业务方法
	res, err := fn()

	// 3. 业务执行失败，根据配置回滚缓存
	if cfg.RollbackOnErr && err != nil {
		_, _ = cfg.Cache.Del(ctx, nsKey)
	}

	return res, err
}
