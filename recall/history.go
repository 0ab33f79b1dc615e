package recall

import (
	"context"
	"sort"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// UserHistory 是基于用户消费历史的召回源，用于"再来一杯"类场景。
// 从交互记录中取出用户喝过或收藏过的饮品，标记不适合自己的会被跳过。
type UserHistory struct {
	Interactions core.InteractionProvider
	Provider     core.CatalogProvider

	// TopK 返回 TopK 个饮品，<=0 时取 20
	TopK int

	// FavoritesOnly 只召回收藏过的饮品
	FavoritesOnly bool
}

func (r *UserHistory) Name() string        { return "recall.user_history" }
func (r *UserHistory) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *UserHistory) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
// 结果按最近交互时间降序，时间相同时按饮品 ID 升序。
func (r *UserHistory) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Interactions == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	ints, err := r.Interactions.UserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(ints) == 0 {
		return nil, nil
	}

	kept := make([]*core.Interaction, 0, len(ints))
	for _, in := range ints {
		if in == nil || in.IsNotForMe {
			continue
		}
		if r.FavoritesOnly && !in.IsFavorite {
			continue
		}
		if !in.IsFavorite && in.TimesConsumed == 0 {
			continue
		}
		kept = append(kept, in)
	}

	sort.Slice(kept, func(i, j int) bool {
		if !kept[i].UpdatedAt.Equal(kept[j].UpdatedAt) {
			return kept[i].UpdatedAt.After(kept[j].UpdatedAt)
		}
		return kept[i].DrinkID < kept[j].DrinkID
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	if len(kept) > topK {
		kept = kept[:topK]
	}

	out := make([]*core.Item, 0, len(kept))
	for _, in := range kept {
		it := core.NewItem(in.DrinkID)
		if r.Provider != nil {
			d, err := r.Provider.Drink(ctx, in.DrinkID)
			if err != nil {
				continue
			}
			it = core.NewDrinkItem(d)
		}
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		if in.IsFavorite {
			it.PutLabel("behavior_type", utils.Label{Value: "favorite", Source: "recall"})
		} else {
			it.PutLabel("behavior_type", utils.Label{Value: "consumed", Source: "recall"})
		}
		out = append(out, it)
	}
	return out, nil
}
