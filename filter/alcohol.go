package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// Alcohol 是酒精饮品门控过滤器：请求未通过年龄校验时，
// 无条件剔除所有酒精饮品。这是合规约束，不接受任何分数层面的权衡。
type Alcohol struct{}

func (f *Alcohol) Name() string {
	return "filter.alcohol"
}

func (f *Alcohol) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx != nil && rctx.AgeVerified {
		return false, nil
	}

	d := item.Drink()
	if d == nil {
		// 没有目录记录就无法证明是非酒精饮品，门控按排除处理
		return true, nil
	}
	return d.IsAlcoholic, nil
}
