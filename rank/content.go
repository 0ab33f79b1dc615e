package rank

import (
	"context"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// ContentNode 是内容打分 Node：按用户偏好对每个候选计算匹配分。
//
// 写入：
//   - Features[content_score] 和 match_* 分项明细
//   - Score（内容分作为基础分，后续 Hybrid 可能覆盖）
//   - Labels[rank_model] = "content"
//
// 偏好来源优先级：rctx.Preference > Profiles 查询。两者都缺时
// 所有候选得中性分 0.5，并打 cold_start 标记。
type ContentNode struct {
	// Profiles 可选，rctx.Preference 为空时按 UserID 查询
	Profiles core.ProfileProvider
}

func (n *ContentNode) Name() string        { return "rank.content" }
func (n *ContentNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ContentNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	var pref *core.Preference
	if rctx != nil {
		pref = rctx.Preference
	}
	if pref == nil && n.Profiles != nil && rctx != nil && rctx.UserID != "" {
		loaded, err := n.Profiles.Preference(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		pref = loaded
	}
	if err := pref.Validate(); err != nil {
		return nil, err
	}

	if rctx != nil && (pref == nil || pref.SetDims() == 0) {
		rctx.PutLabel(core.LabelColdStart, utils.Label{Value: "no_preference", Source: n.Name()})
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		score, dims := MatchPreference(pref, it.Drink())
		it.SetFeature(core.FeatureContentScore, score)
		for dim, v := range dims {
			it.SetFeature(dim, v)
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: "content", Source: "rank"})
	}
	return items, nil
}
