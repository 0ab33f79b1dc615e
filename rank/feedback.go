package rank

import (
	"context"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// 反馈类型对应的分数乘数。
const (
	feedbackPenaltyHard = 0.3 // not_for_me（硬排除之外的兜底降权）
	feedbackPenaltySoft = 0.6 // too_sweet / too_bitter / too_expensive
	feedbackBoost       = 1.2 // love_it / perfect
)

// FeedbackNode 按用户的历史推荐反馈微调最终分数。
//
// 同一饮品的多条反馈按时间顺序连乘，结果乘在 Score 上并收紧回 [0,1]，
// 乘数记入 Features[feedback_factor]。没有反馈的候选不动。
//
// 挂载顺序要求：所有打分 Node 之后、rerank 之前。
type FeedbackNode struct {
	// Feedbacks 静态反馈记录；为空时走 Interactions 按 UserID 查询
	Feedbacks []*core.Feedback

	Interactions core.InteractionProvider
}

func (n *FeedbackNode) Name() string        { return "rank.feedback" }
func (n *FeedbackNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *FeedbackNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	fbs := n.Feedbacks
	if len(fbs) == 0 && n.Interactions != nil && rctx != nil && rctx.UserID != "" {
		loaded, err := n.Interactions.Feedback(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		fbs = loaded
	}
	if len(fbs) == 0 {
		return items, nil
	}

	factors := make(map[string]float64)
	for _, fb := range fbs {
		if fb == nil || fb.DrinkID == "" {
			continue
		}
		m := multiplier(fb.Type)
		if m == 1 {
			continue
		}
		if cur, ok := factors[fb.DrinkID]; ok {
			factors[fb.DrinkID] = cur * m
		} else {
			factors[fb.DrinkID] = m
		}
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		factor, ok := factors[it.ID]
		if !ok {
			continue
		}
		it.Score = clamp01(it.Score * factor)
		it.SetFeature(core.FeatureFeedbackFactor, factor)
		it.PutLabel("feedback_adjusted", utils.Label{Value: "true", Source: n.Name()})
	}
	return items, nil
}

func multiplier(t core.FeedbackType) float64 {
	switch t {
	case core.FeedbackNotForMe:
		return feedbackPenaltyHard
	case core.FeedbackTooSweet, core.FeedbackTooBitter, core.FeedbackTooExpensive:
		return feedbackPenaltySoft
	case core.FeedbackLoveIt, core.FeedbackPerfect:
		return feedbackBoost
	}
	return 1
}
