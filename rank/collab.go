package rank

import (
	"context"
	"strconv"

	"github.com/sipkit/sipkit/cf"
	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// CollabNode 是协同过滤打分 Node。
//
// 写入：
//   - Features[collab_score]：邻居加权平均预测分，邻居没碰过的候选记 0
//   - rctx.Labels[cf_neighbors]：本次请求的邻居数，供 rank.hybrid 决定是否融合
//   - ModeCollaborative 下额外写 Score 和 rank_model 标签
//
// 纯协同模式且没有任何邻居时返回空列表：协同冷启动不允许
// 静默换成内容分数（那是混合模式的降级语义）。
type CollabNode struct {
	// Engine 按请求交互快照构建的协同过滤引擎
	Engine *cf.Engine
}

func (n *CollabNode) Name() string        { return "rank.collab" }
func (n *CollabNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CollabNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	var (
		scores    map[string]float64
		neighbors []cf.Neighbor
	)
	if n.Engine != nil && rctx != nil && rctx.UserID != "" {
		scores, neighbors = n.Engine.Scores(rctx.UserID)
	}

	if rctx != nil {
		rctx.PutLabel(core.LabelCFNeighbors, utils.Label{
			Value:  strconv.Itoa(len(neighbors)),
			Source: n.Name(),
		})
	}

	collabOnly := rctx != nil && rctx.Mode == core.ModeCollaborative
	if collabOnly && len(neighbors) == 0 {
		return []*core.Item{}, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		sc := scores[it.ID]
		it.SetFeature(core.FeatureCollabScore, sc)
		if collabOnly {
			it.Score = sc
			it.PutLabel("rank_model", utils.Label{Value: "collab", Source: "rank"})
		}
	}
	return items, nil
}
