package redis

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sipkit/sipkit/filter"
	"github.com/sipkit/sipkit/store"
)

// RedisSeenChecker 是基于 Redis 和 bits-and-blooms/bloom 的消费历史检查器。
// 实现了 filter.SeenChecker 接口，供"发现新品"场景的 Seen 过滤器使用。
//
// 每个用户一个布隆过滤器（key 形如 seen:bloom:{userID}），整段消费历史压缩在
// 几 KB 内，检查时不必加载交互全表。返回 true 表示可能喝过（存在误判可能），
// false 表示一定没喝过。
//
// 使用方式：
//   checker := redis.NewRedisSeenChecker(redisStore, 10000, 0.01)
//   seenFilter := &filter.Seen{Checker: checker}
//
// 确保实现了 filter.SeenChecker 接口
var _ filter.SeenChecker = (*RedisSeenChecker)(nil)

type RedisSeenChecker struct {
	client *redis.Client

	// capacity 是单个用户布隆过滤器的预期容量（饮品数量）
	capacity uint
	// falsePositiveRate 是期望的误判率（例如 0.01 表示 1%）
	falsePositiveRate float64

	// 本地缓存，避免每次检查都从 Redis 读取和反序列化
	cache map[string]*bloom.BloomFilter
	mu    sync.RWMutex
}

// NewRedisSeenChecker 创建一个新的消费历史检查器。
//
// 参数：
//   - s: RedisStore 实例
//   - capacity: 单个用户的预期容量（饮品数量），例如 10000
//   - falsePositiveRate: 期望的误判率，例如 0.01 表示 1% 的误判率
//
// 示例：
//   s, _ := store.NewRedisStore("localhost:6379", 0)
//   checker := NewRedisSeenChecker(s, 10000, 0.01)
func NewRedisSeenChecker(s *store.RedisStore, capacity uint, falsePositiveRate float64) *RedisSeenChecker {
	return NewRedisSeenCheckerWithClient(s.GetClient(), capacity, falsePositiveRate)
}

// NewRedisSeenCheckerWithClient 使用 *redis.Client 创建检查器（高级用法）。
// 如果已有 *redis.Client 实例，可以使用此方法。
func NewRedisSeenCheckerWithClient(client *redis.Client, capacity uint, falsePositiveRate float64) *RedisSeenChecker {
	return &RedisSeenChecker{
		client:            client,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// CheckSeen 检查 drinkID 是否在指定 key 的布隆过滤器中。
// 实现了 filter.SeenChecker 接口。
//
// 返回 true 表示可能喝过（存在误判可能），false 表示一定没喝过；
// 过滤器不存在时视为没有任何消费记录。
func (r *RedisSeenChecker) CheckSeen(ctx context.Context, key string, drinkID string) (bool, error) {
	r.mu.RLock()
	if cached := r.cache[key]; cached != nil {
		hit := cached.Test([]byte(drinkID))
		r.mu.RUnlock()
		return hit, nil
	}
	r.mu.RUnlock()

	bf, err := r.load(ctx, key)
	if err != nil {
		return false, err
	}
	if bf == nil {
		// 过滤器不存在，一定没喝过
		return false, nil
	}

	// 并发加载时保留先写入的那份，避免覆盖掉刚标记过的过滤器
	r.mu.Lock()
	if existing := r.cache[key]; existing != nil {
		bf = existing
	} else {
		r.cache[key] = bf
	}
	hit := bf.Test([]byte(drinkID))
	r.mu.Unlock()

	return hit, nil
}

// MarkSeen 将 drinkID 登记到指定 key 的布隆过滤器中。
// 用于消费数据回流场景（例如下单完成后登记）。
//
// 参数：
//   - ctx: 上下文
//   - key: 布隆过滤器的 Redis key
//   - drinkID: 要登记的饮品 ID
//   - ttl: 过期时间（秒），0 表示不过期
func (r *RedisSeenChecker) MarkSeen(ctx context.Context, key string, drinkID string, ttl int) error {
	return r.MarkSeenBatch(ctx, key, []string{drinkID}, ttl)
}

// MarkSeenBatch 批量将 drinkIDs 登记到指定 key 的布隆过滤器中。
//
// 读取、修改、写回在本地锁内完成，同进程内的并发登记不会互相覆盖；
// 跨进程写同一个 key 时仍可能丢失标记，需要调用方自行串行化。
func (r *RedisSeenChecker) MarkSeenBatch(ctx context.Context, key string, drinkIDs []string, ttl int) error {
	if len(drinkIDs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bf := r.cache[key]
	if bf == nil {
		loaded, err := r.load(ctx, key)
		if err != nil {
			return err
		}
		if loaded == nil {
			// 不存在，创建新的布隆过滤器
			loaded = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
		}
		bf = loaded
	}

	for _, id := range drinkIDs {
		bf.Add([]byte(id))
	}

	if err := r.save(ctx, key, bf, ttl); err != nil {
		return err
	}

	r.cache[key] = bf
	return nil
}

// ClearCache 清除本地缓存。
// 当其他进程更新了 Redis 中的过滤器、需要强制重新加载时使用。
func (r *RedisSeenChecker) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*bloom.BloomFilter)
}

// ClearCacheKey 清除指定 key 的本地缓存。
func (r *RedisSeenChecker) ClearCacheKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, key)
}

// load 从 Redis 读取并反序列化布隆过滤器，key 不存在时返回 (nil, nil)。
func (r *RedisSeenChecker) load(ctx context.Context, key string) (*bloom.BloomFilter, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bloom filter from redis: %w", err)
	}

	bf := bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize bloom filter: %w", err)
	}
	return bf, nil
}

// save 序列化布隆过滤器并写回 Redis，ttl 单位为秒，0 表示不过期。
func (r *RedisSeenChecker) save(ctx context.Context, key string, bf *bloom.BloomFilter, ttl int) error {
	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize bloom filter: %w", err)
	}

	var expiration time.Duration
	if ttl > 0 {
		expiration = time.Duration(ttl) * time.Second
	}

	if err := r.client.Set(ctx, key, buf.Bytes(), expiration).Err(); err != nil {
		return fmt.Errorf("failed to save bloom filter to redis: %w", err)
	}
	return nil
}
