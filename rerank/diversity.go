package rerank

import (
	"context"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
)

// Diversity 按类目控量的多样性重排：每个类目最多保留 MaxPerCategory 条，
// 顺序靠前的优先保留。
//
// 类目来源优先级：
//   - Meta 上挂载的目录记录（item.Drink().Category）
//   - Labels[LabelKey]
//
// 没有类目的候选不参与控量，原样保留。默认链路不挂载；
// 需要压平落地页类目分布时在配置里启用，通常放在 rerank.topn 之前。
type Diversity struct {
	// MaxPerCategory 每个类目最多保留的条数，<= 0 时取 1
	MaxPerCategory int

	// LabelKey 类目标签的回退 key，默认 "category"
	LabelKey string
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	perCat := n.MaxPerCategory
	if perCat <= 0 {
		perCat = 1
	}
	key := n.LabelKey
	if key == "" {
		key = "category"
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if d := it.Drink(); d != nil {
			cate = d.Category
		}
		if cate == "" && it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				cate = lbl.Value
			}
		}

		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= perCat {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return out, nil
}
