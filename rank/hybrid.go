package rank

import (
	"context"
	"strconv"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// 融合两侧的默认权重。
const (
	DefaultContentWeight = 0.5
	DefaultCollabWeight  = 0.5
)

// HybridNode 融合内容分与协同分，只在 ModeHybrid 下生效。
//
// overall = cw*content_score + ow*collab_score
//
// 融合前置条件（两者同时满足才融合）：
//   - 至少一个协同邻居（rctx.Labels[cf_neighbors] > 0，由 rank.collab 写入）
//   - 至少一个已设置的偏好维度
//
// 任一条件不满足则降级为纯内容分，并在 rctx.Labels[fallback_reason]
// 记录 no_neighbors / no_preference，解释层据此生成降级说明。
//
// 挂载顺序要求：rank.content 和 rank.collab 之后。
type HybridNode struct {
	// ContentWeight / CollabWeight 同时为 0 时取默认 0.5 / 0.5
	ContentWeight float64
	CollabWeight  float64
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || len(items) == 0 {
		return items, nil
	}
	mode := rctx.Mode
	if mode == "" {
		mode = core.ModeHybrid
	}
	if mode != core.ModeHybrid {
		return items, nil
	}

	prefDims := rctx.Preference.SetDims()
	neighbors := neighborCount(rctx)
	if neighbors == 0 || prefDims == 0 {
		if neighbors == 0 {
			rctx.PutLabel(core.LabelFallbackReason, utils.Label{Value: "no_neighbors", Source: n.Name()})
		}
		if prefDims == 0 {
			rctx.PutLabel(core.LabelFallbackReason, utils.Label{Value: "no_preference", Source: n.Name()})
		}
		// 降级：保持 rank.content 写好的内容分
		for _, it := range items {
			if it == nil {
				continue
			}
			if content, ok := it.Feature(core.FeatureContentScore); ok {
				it.Score = content
			}
		}
		return items, nil
	}

	cw, ow := n.ContentWeight, n.CollabWeight
	if cw == 0 && ow == 0 {
		cw, ow = DefaultContentWeight, DefaultCollabWeight
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		content, _ := it.Feature(core.FeatureContentScore)
		collab, _ := it.Feature(core.FeatureCollabScore)
		overall := clamp01(cw*content + ow*collab)
		it.SetFeature(core.FeatureHybridScore, overall)
		it.Score = overall
		it.PutLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
	}
	return items, nil
}

// neighborCount 从请求标签读取 rank.collab 写入的邻居数，缺失或不可解析按 0。
func neighborCount(rctx *core.RecommendContext) int {
	lbl, ok := rctx.GetLabel(core.LabelCFNeighbors)
	if !ok {
		return 0
	}
	count, err := strconv.Atoi(lbl.Value)
	if err != nil || count < 0 {
		return 0
	}
	return count
}
