package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// NotForMe 过滤掉用户显式标记"不适合我"的饮品。
// 引擎按请求组装时直接填 DrinkIDs；独立组 Pipeline 时可挂 Interactions，
// 由过滤器自己从交互记录里取标记。
type NotForMe struct {
	// DrinkIDs 是内存中的排除列表
	DrinkIDs []string

	// Interactions 可选，从交互记录读取标记（DrinkIDs 为空时生效）
	Interactions core.InteractionProvider
}

func (f *NotForMe) Name() string {
	return "filter.not_for_me"
}

func (f *NotForMe) ShouldFilter(
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

	if len(f.DrinkIDs) == 0 && f.Interactions != nil && rctx != nil && rctx.UserID != "" {
		ints, err := f.Interactions.UserInteractions(ctx, rctx.UserID)
		if err != nil {
			return false, err
		}
		for _, in := range ints {
			if in != nil && in.IsNotForMe && in.DrinkID == item.ID {
				return true, nil
			}
		}
	}

	return false, nil
}
