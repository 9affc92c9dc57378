package glyph

import (
	"sync"
	"sync/atomic"
)

// Key 唯一标识一次字形解析，字段按值精确比较。
type Key struct {
	Char rune
	Font string
	Size float64
}

// Result 是一次解析的结果，Err 不为空时 Outline 为空。
type Result struct {
	Outline *Outline
	Err     error
}

// Cache 保存已解析的轮廓与失败结果，整个运行期间不失效。
type Cache struct {
	mu      sync.Mutex
	entries map[Key]Result

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats 是缓存命中统计。
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewCache 创建空缓存。
func NewCache() *Cache {
	return &Cache{entries: map[Key]Result{}}
}

// Get 返回缓存结果；ok 为 false 表示尚未解析过。
func (c *Cache) Get(k Key) (Result, bool) {
	c.mu.Lock()
	e, ok := c.entries[k]
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Put 写入结果。已存在的键保持首次写入的值，返回实际保存的结果。
func (c *Cache) Put(k Key, res Result) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		return e
	}
	c.entries[k] = res
	return res
}

// Stats 返回当前统计。
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}
