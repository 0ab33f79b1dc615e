package explain

import (
	"context"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
	"github.com/sipkit/sipkit/rank"
)

// Item label key：解释短语按段累积，Values() 还原成列表。
const LabelExplanation = "explanation"

// 短语触发阈值。
const (
	sweetnessReasonMin = 0.8 // 甜度匹配分项高于此值才提甜度
	tasteReasonMin     = 0.8 // 其余区间分项的触发线
	collabReasonMin    = 0.6 // 协同分高于此值才提相似用户
	lowCalorieMax      = 200.0
	lowCaffeineMax     = 50.0
)

// DefaultMaxReasons 每条结果默认保留的解释条数。
const DefaultMaxReasons = 3

// Node 是解释生成 Node：从分数拆解推导人类可读的推荐理由。
//
// 解释是拆解的确定性函数，不做自由文本生成：
//   - 内容分项（match_*）超过触发线 → 对应偏好短语
//   - 协同分超过触发线 → 相似用户短语
//   - 目录属性（低热量/无咖啡因/无酒精/无过敏原）→ 通用短语
//   - 混合降级 → 纯偏好短语
//   - 末尾追加置信度短语（按最终分数分档）
//
// 同一候选的短语按上述顺序去重后截取前 MaxReasons 条，
// 结果写入 Labels[explanation]。
//
// 挂载顺序要求：rerank 之后（置信度要读最终分数）。
type Node struct {
	// MaxReasons 保留的解释条数，<= 0 时取默认值 3
	MaxReasons int
}

func (n *Node) Name() string        { return "postprocess.explain" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	keep := n.MaxReasons
	if keep <= 0 {
		keep = DefaultMaxReasons
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		for _, reason := range dedupe(n.reasons(rctx, it), keep) {
			it.PutLabel(LabelExplanation, utils.Label{Value: reason, Source: n.Name()})
		}
	}
	return items, nil
}

func (n *Node) reasons(rctx *core.RecommendContext, it *core.Item) []string {
	out := make([]string, 0, 8)
	d := it.Drink()

	// 内容侧：按偏好匹配分项
	if v, ok := it.Feature(rank.MatchDimSweetness); ok && v > sweetnessReasonMin {
		out = append(out, "Matches your preferred sweetness level")
	}
	if v, ok := it.Feature(rank.MatchDimBitterness); ok && v > tasteReasonMin {
		out = append(out, "Bitterness level suits your taste")
	}
	if v, ok := it.Feature(rank.MatchDimSugar); ok && v >= 1 {
		out = append(out, "Within your sugar limit")
	}
	if v, ok := it.Feature(rank.MatchDimCaffeine); ok && v >= 1 {
		out = append(out, "Fits your caffeine preferences")
	}
	if v, ok := it.Feature(rank.MatchDimPrice); ok && v >= 1 {
		out = append(out, "Within your preferred price range")
	}
	if rctx != nil && d != nil && rctx.Preference.PrefersCategory(d.Category) {
		out = append(out, "From your preferred category: "+d.Category)
	}

	// 协同侧
	if v, ok := it.Feature(core.FeatureCollabScore); ok && v > collabReasonMin {
		out = append(out, "Users with similar taste also enjoyed this drink")
	}

	// 混合降级（rank.hybrid 打过降级标记）
	if rctx != nil {
		if _, ok := rctx.GetLabel(core.LabelFallbackReason); ok {
			out = append(out, "Based on your taste preferences")
		}
	}

	// 通用目录属性
	if d != nil {
		if d.Calories < lowCalorieMax {
			out = append(out, "Low-calorie option")
		}
		switch {
		case d.CaffeineMg == 0:
			out = append(out, "Caffeine-free choice")
		case d.CaffeineMg < lowCaffeineMax:
			out = append(out, "Low caffeine content")
		}
		if !d.IsAlcoholic {
			out = append(out, "Non-alcoholic and safe for all ages")
		}
		if len(d.Allergens()) == 0 {
			out = append(out, "Free from common allergens")
		}
	}

	out = append(out, confidencePhrase(it.Score))
	return out
}

// confidencePhrase 按最终分数分档。
func confidencePhrase(score float64) string {
	switch {
	case score >= 0.8:
		return "Highly recommended match"
	case score >= 0.6:
		return "Good match for your preferences"
	case score >= 0.4:
		return "Suitable option based on your profile"
	}
	return "Potential match worth trying"
}

// dedupe 保序去重并截断。
func dedupe(reasons []string, keep int) []string {
	seen := make(map[string]bool, len(reasons))
	out := make([]string, 0, keep)
	for _, r := range reasons {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == keep {
			break
		}
	}
	return out
}
