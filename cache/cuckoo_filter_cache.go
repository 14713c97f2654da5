package cache

import (
	"context"
	"time"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

var (
	defaultFilterSize = 1000000
)

// cuckooFilter 存在性过滤缓存，值恒为bool，不支持过期时间
type cuckooFilter[V bool] struct {
	cf *cuckoo.Filter
}

// NewCuckooFilter 创建过滤器实例
func NewCuckooFilter(capacity int) CommCache[bool] {
	if capacity <= 0 {
		capacity = defaultFilterSize
	}
	cf := cuckoo.NewFilter(uint(capacity))
	return &cuckooFilter[bool]{
		cf: cf,
	}
}

// Get 从缓存中获取值，返回key是否可能存在
func (c *cuckooFilter[V]) Get(_ context.Context, key string) (bool, error) {
	return c.cf.Lookup([]byte(key)), nil
}

// Set 向缓存中设置值
func (c *cuckooFilter[V]) Set(_ context.Context, key string, _ V, _ time.Duration) (bool, error) {
	return c.cf.InsertUnique([]byte(key)), nil
}

// Del 从缓存中删除键
func (c *cuckooFilter[V]) Del(_ context.Context, key string) (bool, error) {
	return c.cf.Delete([]byte(key)), nil
}

// Reset 清空过滤器
func (c *cuckooFilter[V]) Reset() {
	c.cf.Reset()
}

// Count 过滤器中的条目数量
func (c *cuckooFilter[V]) Count() uint {
	return c.cf.Count()
}
