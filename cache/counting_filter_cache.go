package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
	"time"
)

const bucketHeight = 8

type fingerprint uint16

type target struct {
	bucketIndex uint
	fingerprint fingerprint
}

type bucket struct {
	entries [bucketHeight]fingerprint
	count   uint8
}

type table []bucket

// countingFilter 多表计数过滤器，支持删除，值恒为bool
type countingFilter[V bool] struct {
	tables     []table
	numTables  uint
	numBuckets uint
}

func newCountingFilter(numTables uint, numBuckets uint) (*countingFilter[bool], error) {
	if numBuckets < numTables {
		return nil, errors.New("numBuckets has to be greater than numTables")
	}

	cf := &countingFilter[bool]{
		numTables:  numTables,
		numBuckets: numBuckets,
		tables:     make([]table, numTables),
	}

	for i := range cf.tables {
		cf.tables[i] = make(table, numBuckets)
	}

	return cf, nil
}

func NewCountingFilter(capacity int) (CommCache[bool], error) {
	if capacity <= 0 {
		capacity = defaultFilterSize
	}
	t := capacity / (4096 * bucketHeight)
	if t < 1 {
		t = 1
	}
	return newCountingFilter(uint(t), 4096)
}

// Get 从缓存中获取值，返回key是否可能存在
func (cf *countingFilter[V]) Get(_ context.Context, key string) (bool, error) {
	targets := cf.getTargets([]byte(key))
	_, _, bfp := cf.lookup(targets)
	return bfp != nil, nil
}

// Set 向缓存中设置值
func (cf *countingFilter[V]) Set(_ context.Context, key string, _ V, _ time.Duration) (bool, error) {
	return cf.add([]byte(key)), nil
}

// Del 从缓存中删除键
func (cf *countingFilter[V]) Del(_ context.Context, key string) (bool, error) {
	return cf.delete([]byte(key)), nil
}

// getTargets 对每张表计算一个候选桶位置，指纹取hash的低16位
func (cf *countingFilter[V]) getTargets(data []byte) []target {
	hashMethod := fnv.New64a()
	_, _ = hashMethod.Write(data)
	fp := hashMethod.Sum(nil)
	hashSum := hashMethod.Sum64()

	h1 := uint32(hashSum & 0xffffffff)
	h2 := uint32((hashSum >> 32) & 0xffffffff)

	targets := make([]target, cf.numTables)
	for i := uint(0); i < cf.numTables; i++ {
		saltedHash := uint(h1 + uint32(i)*h2)
		targets[i] = target{
			bucketIndex: saltedHash % cf.numBuckets,
			fingerprint: fingerprint(binary.LittleEndian.Uint16(fp)),
		}
	}
	return targets
}

// add 已存在则直接返回false，否则写入当前最空的表
func (cf *countingFilter[V]) add(data []byte) bool {
	targets := cf.getTargets(data)

	_, _, found := cf.lookup(targets)
	if found != nil {
		return false
	}

	minCount := uint8(math.MaxUint8)
	tableI := uint(0)

	for i, t := range targets {
		tmpCount := cf.tables[i][t.bucketIndex].count
		if tmpCount < minCount && tmpCount < bucketHeight {
			minCount = tmpCount
			tableI = uint(i)
		}
	}

	// 所有候选桶都已写满
	if minCount == uint8(math.MaxUint8) {
		return false
	}
	b := &cf.tables[tableI][targets[tableI].bucketIndex]
	b.entries[minCount] = targets[tableI].fingerprint
	b.count++
	return true
}

// delete 从所有表里清掉匹配指纹，桶内剩余条目前移补位
func (cf *countingFilter[V]) delete(data []byte) bool {
	deleted := false
	targets := cf.getTargets(data)
	for i, t := range targets {
		b := &cf.tables[i][t.bucketIndex]
		for j, fp := range b.entries {
			if fp != t.fingerprint {
				continue
			}
			if b.count == 0 {
				continue
			}
			b.count--
			k := 0
			for l, rest := range b.entries {
				if j == l {
					continue
				}
				b.entries[k] = rest
				k++
			}
			b.entries[b.count] = 0
			deleted = true
		}
	}
	return deleted
}

func (cf *countingFilter[V]) lookup(targets []target) (uint, uint, *target) {
	for i, t := range targets {
		for j, fp := range cf.tables[i][t.bucketIndex].entries {
			if fp == t.fingerprint {
				return uint(i), uint(j), &t
			}
		}
	}
	return 0, 0, nil
}

// GetCount 过滤器中的条目总数
func (cf *countingFilter[V]) GetCount() uint {
	count := uint(0)
	for _, t := range cf.tables {
		for _, b := range t {
			count += uint(b.count)
		}
	}
	return count
}
