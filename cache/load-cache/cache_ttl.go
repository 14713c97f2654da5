package cache

import "time"

// SetWithTTL 设置带过期时间的缓存条目，ttl<=0 使用默认 TTL。
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.setWithTTLNoPersist(key, value, ttl)
	if c.persister != nil {
		c.enqueuePersist(key, value)
	}
}

// setWithTTLNoPersist 只写内存，不触发持久化，持久化层回填时使用。
func (c *Cache) setWithTTLNoPersist(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	item := &cacheItem{
		key:        key,
		value:      value,
		ttl:        ttl,
		expiration: time.Now().Add(ttl).UnixNano(),
	}
	sh := c.getShard(key)
	evicted := sh.set(item, c.weightOf(key, value))
	c.metrics.addEvictions(evicted)
}

// Get 获取 key 对应的缓存值，若过期则返回 nil。
func (c *Cache) Get(key string) (interface{}, bool) {
	sh := c.getShard(key)
	item, ok := sh.get(key)
	if !ok || item.isExpired() {
		c.metrics.addMiss()
		return nil, false
	}
	c.metrics.addHit()
	return item.value, true
}

// weightOf 优先使用自定义权重函数。
func (c *Cache) weightOf(key string, val interface{}) int64 {
	if c.weigher != nil {
		return c.weigher(key, val)
	}
	return weightOf(val)
}
