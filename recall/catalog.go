package recall

import (
	"context"
	"sort"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// Catalog 是目录召回源：把整个饮品目录作为候选集。
//
// 饮品目录是封闭且有限的（菜单规模），全量召回后交给过滤和排序阶段收敛，
// 这是内容推荐和相似推荐的默认候选来源。
// Catalog 同时实现 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Catalog struct {
	Provider core.CatalogProvider
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
// 返回结果按饮品 ID 升序，保证同一目录多次召回顺序一致。
func (r *Catalog) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Provider == nil {
		return nil, nil
	}

	drinks, err := r.Provider.Drinks(ctx)
	if err != nil {
		return nil, err
	}

	live := make([]*core.Drink, 0, len(drinks))
	for _, d := range drinks {
		if d != nil {
			live = append(live, d)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })

	out := make([]*core.Item, 0, len(live))
	for _, d := range live {
		it := core.NewDrinkItem(d)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
