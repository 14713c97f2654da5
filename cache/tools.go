package cache

import (
	"fmt"
	"reflect"
	"time"

	"github.com/magic-lib/go-plat-utils/conv"
)

func strToVal[V any](valueStr string) (V, error) {
	var value V
	newValuePtr := conv.NewPtrByType(reflect.TypeOf(value))
	if err := conv.Unmarshal(valueStr, newValuePtr); err != nil {
		var zero V
		return zero, fmt.Errorf("反序列化缓存值失败: %v", err)
	}
	if v, ok := newValuePtr.(V); ok {
		return v, nil
	}
	if ptr, ok := newValuePtr.(*V); ok {
		return *ptr, nil
	}
	return value, nil
}

// dataWithExpiry 给不支持TTL的底层存储套一层过期信封
type dataWithExpiry struct {
	Data     string
	ExpireAt int64 // UnixNano，0表示永不过期
}

func wrapExpiry(val string, timeout time.Duration) string {
	d := dataWithExpiry{Data: val}
	if timeout > 0 {
		d.ExpireAt = time.Now().Add(timeout).UnixNano()
	}
	return conv.String(d)
}

// unwrapExpiry 返回原始值和是否仍然有效
func unwrapExpiry(raw string) (string, bool) {
	var d dataWithExpiry
	if err := conv.Unmarshal(raw, &d); err != nil {
		return "", false
	}
	if d.ExpireAt > 0 && time.Now().UnixNano() > d.ExpireAt {
		return "", false
	}
	return d.Data, true
}
