package filter

import (
	"context"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pkg/dsl"
)

// Rule 是规则过滤器：表达式求值为 true 的候选被剔除。
// 规则用 CEL 表达式书写，可访问 drink / item / label / rctx 四组变量，
// 用于运营侧临时下架、场景化排除等不值得写代码的规则。
//
// 示例：
//   - `drink.category == "energy" && drink.caffeine_mg > 300.0`
//   - `drink.sugar_g > 50.0 && rctx.scene == "landing"`
type Rule struct {
	// Expr 是 CEL 排除表达式，空表达式不排除任何候选
	Expr string
}

func (f *Rule) Name() string {
	return "filter.rule"
}

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}

	matched, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return matched, nil
}
