package redis

import (
	"context"
	"fmt"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/filter"
	"github.com/sipkit/sipkit/store"
)

// ExampleSeenFilter 展示如何用 Redis 布隆过滤器支撑"发现新品"场景的去重。
func ExampleSeenFilter() {
	ctx := context.Background()

	// 1. 创建 Redis 存储
	s, err := store.NewRedisStore("localhost:6379", 0)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	// 2. 创建消费历史检查器
	// 参数说明：
	//   - capacity: 10000 表示单个用户预期最多记录 1 万款饮品
	//   - falsePositiveRate: 0.01 表示 1% 的误判率
	checker := NewRedisSeenChecker(s, 10000, 0.01)

	// 3. 挂到 Seen 过滤器上
	// key 按 {KeyPrefix}:bloom:{userID} 组织，KeyPrefix 默认 "seen"
	seenFilter := &filter.Seen{Checker: checker}

	// 4. 在推荐请求中使用
	rctx := &core.RecommendContext{
		UserID: "user_123",
		Scene:  "discovery",
	}

	item := core.NewItem("drink_456")
	shouldFilter, _ := seenFilter.ShouldFilter(ctx, rctx, item)
	fmt.Printf("Should filter drink: %v\n", shouldFilter)
}

// ExampleMarkSeen 展示如何在下单完成后把饮品登记进布隆过滤器。
func ExampleMarkSeen() {
	ctx := context.Background()

	s, err := store.NewRedisStore("localhost:6379", 0)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	checker := NewRedisSeenChecker(s, 10000, 0.01)

	// key 格式和 Seen 过滤器保持一致：{KeyPrefix}:bloom:{userID}
	userID := "user_123"
	key := fmt.Sprintf("seen:bloom:%s", userID)

	// 单个登记
	if err := checker.MarkSeen(ctx, key, "drink_456", 0); err != nil { // ttl=0 表示不过期
		panic(err)
	}

	// 批量登记（例如一单多杯）
	drinkIDs := []string{"drink_789", "drink_101", "drink_202"}
	if err := checker.MarkSeenBatch(ctx, key, drinkIDs, 0); err != nil {
		panic(err)
	}

	fmt.Printf("Marked drinks as seen: %s\n", key)
}
