package rerank

import (
	"context"
	"sort"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
)

// TopNNode 做最终定序和截断：按 Score 降序稳定排序，
// 同分按饮品 ID 升序，然后截取前 N 条。
//
// 排序规则集中在这一个节点：打分 Node 只写分数不排序，
// 同一快照下重复请求（含同分并列）得到完全一致的顺序。
//
// 截断条数取请求限额（rctx.EffectiveLimit，默认 10）；
// N > 0 时作为配置上限，取两者较小值。
type TopNNode struct {
	// N 配置层硬上限，<= 0 表示只按请求限额截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	limit := len(items)
	if rctx != nil {
		limit = rctx.EffectiveLimit()
	}
	if n.N > 0 && n.N < limit {
		limit = n.N
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
