package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// SourceDrink 在相似推荐中剔除源饮品自身。
// 任何饮品与自身的相似度恒为满分，不剔除会永远占据榜首。
type SourceDrink struct{}

func (f *SourceDrink) Name() string {
	return "filter.source_drink"
}

func (f *SourceDrink) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.SourceDrinkID == "" {
		return false, nil
	}
	return item.ID == rctx.SourceDrinkID, nil
}
