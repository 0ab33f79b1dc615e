package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// Taste 应用用户的硬性口味过滤器（预算/甜度上限/咖啡因区间/排除成分与类目）。
// 与偏好打分不同，命中的候选直接剔除，不参与任何分数计算。
// 停用（Active=false）的过滤器不排除任何饮品。
type Taste struct {
	// Filter 按请求组装时由引擎直接填入
	Filter *core.TasteFilter

	// Profiles 可选，Filter 为空时按 rctx.UserID 查询
	Profiles core.ProfileProvider
}

func (f *Taste) Name() string {
	return "filter.taste"
}

func (f *Taste) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	tf := f.Filter
	if tf == nil && rctx != nil && rctx.TasteFilter != nil {
		tf = rctx.TasteFilter
	}
	if tf == nil && f.Profiles != nil && rctx != nil && rctx.UserID != "" {
		loaded, err := f.Profiles.TasteFilter(ctx, rctx.UserID)
		if err != nil {
			return false, err
		}
		tf = loaded
	}
	if tf == nil {
		return false, nil
	}

	return tf.Excludes(item.Drink()), nil
}
