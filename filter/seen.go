package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// SeenChecker 以概率方式回答"用户是否喝过某款饮品"。
// 典型实现是基于 Redis 的布隆过滤器（见 ext/store/redis）：
// 返回 true 表示可能喝过（存在误判可能），false 表示一定没喝过。
//
// key 是消费历史的存储 key，由 Seen 过滤器按 {KeyPrefix}:bloom:{userID} 拼出。
type SeenChecker interface {
	CheckSeen(ctx context.Context, key string, drinkID string) (bool, error)
}

// Seen 过滤掉用户已经喝过的饮品，用于"发现新品"类场景。
// 默认场景不挂载此过滤器：喝过的饮品仍然可以被再次推荐。
//
// 三种数据来源按顺序生效：
//  1. DrinkIDs：调用方显式传入的已消费列表（例如当前会话内刚下单的）
//  2. Checker：概率后端（布隆过滤器），适合消费历史很大、不想整表加载的场景；
//     返回 false 即一定没喝过，可以省掉精确查询
//  3. Interactions：精确的交互记录，DrinkIDs 为空且 Checker 未命中时兜底
type Seen struct {
	// DrinkIDs 是内存中的已消费列表
	DrinkIDs []string

	// Checker 可选的概率查询后端，检查失败时退回 Interactions
	Checker SeenChecker

	// KeyPrefix 是 Checker 的 key 前缀，默认 "seen"
	KeyPrefix string

	// Interactions 可选，从交互记录读取消费历史（DrinkIDs 为空时生效）
	Interactions core.InteractionProvider
}

func (f *Seen) Name() string {
	return "filter.seen"
}

func (f *Seen) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.DrinkIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	if f.Checker != nil {
		seen, err := f.Checker.CheckSeen(ctx, f.bloomKey(rctx.UserID), item.ID)
		if err == nil {
			// 布隆过滤器返回 false 表示一定没喝过，无需再查精确记录
			return seen, nil
		}
		// 检查失败不阻断请求，退回精确记录
	}

	if len(f.DrinkIDs) == 0 && f.Interactions != nil {
		ints, err := f.Interactions.UserInteractions(ctx, rctx.UserID)
		if err != nil {
			return false, err
		}
		for _, in := range ints {
			if in != nil && in.DrinkID == item.ID && in.TimesConsumed > 0 {
				return true, nil
			}
		}
	}

	return false, nil
}

func (f *Seen) bloomKey(userID string) string {
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "seen"
	}
	return prefix + ":bloom:" + userID
}
