package feature

import (
	"sync"
	"sync/atomic"
	"time"
)

// VectorCache 是跨请求共享的特征向量缓存，键为 (drink id, updated-at)。
//
// 设计原则：
//   - 读路径无锁：读方通过原子指针取当前快照 map，永远不会被写阻塞
//   - 写路径 copy-on-write：写方持锁克隆 map、替换指针，写与写互斥
//   - 同键写幂等：向量是目录记录的纯函数，重复写入同一 (id, 戳) 无害
//   - 失效只看时间戳：目录更新后的首次 Get 因戳不匹配而 miss，随后重建回写
type VectorCache struct {
	ptr     atomic.Pointer[map[string]*Vector]
	mu      sync.Mutex // 仅写方竞争
	maxSize int
}

// NewVectorCache 创建向量缓存；maxSize <= 0 表示不限容量。
func NewVectorCache(maxSize int) *VectorCache {
	c := &VectorCache{maxSize: maxSize}
	empty := make(map[string]*Vector)
	c.ptr.Store(&empty)
	return c
}

// Get 按 (drink id, updated-at) 取向量；id 不存在或时间戳不匹配都算 miss。
func (c *VectorCache) Get(drinkID string, updatedAt time.Time) (*Vector, bool) {
	m := *c.ptr.Load()
	v, ok := m[drinkID]
	if !ok {
		return nil, false
	}
	if !v.UpdatedAt.Equal(updatedAt) {
		return nil, false
	}
	return v, true
}

// Put 写入向量（copy-on-write 替换整个 map）。
// 容量超限时在克隆过程中淘汰多余旧条目，保证 map 尺寸有界。
func (c *VectorCache) Put(v *Vector) {
	if v == nil || v.DrinkID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := *c.ptr.Load()
	if cur, ok := old[v.DrinkID]; ok && cur.UpdatedAt.Equal(v.UpdatedAt) {
		return // 同键同戳，幂等跳过
	}

	next := make(map[string]*Vector, len(old)+1)
	for k, e := range old {
		if k == v.DrinkID {
			continue
		}
		if c.maxSize > 0 && len(next) >= c.maxSize-1 {
			continue
		}
		next[k] = e
	}
	next[v.DrinkID] = v
	c.ptr.Store(&next)
}

// Len 返回当前缓存条目数。
func (c *VectorCache) Len() int {
	return len(*c.ptr.Load())
}

// Clear 清空缓存。
func (c *VectorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	empty := make(map[string]*Vector)
	c.ptr.Store(&empty)
}
