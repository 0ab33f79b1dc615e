package recall

import (
	"context"
	"encoding/json"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// Popular 是热门召回源，从 Store 读取按热度排序的饮品 ID 列表。
//   - Store 实现 KeyValueStore 时优先使用 ZRange（有序集合，分数即热度，降序）
//   - 否则从普通 key 读取 JSON 数组
//   - Store 为空时使用内存中的 IDs 作为 fallback
//
// 读出的 ID 经 Provider 解析为饮品，目录中已下架的 ID 被跳过。
// Popular 同时实现 Source 和 Node 接口。
type Popular struct {
	Store    core.Store
	Provider core.CatalogProvider

	// Key 存储 key，例如 "popular:drinks"
	Key string

	// IDs fallback 内存列表
	IDs []string

	// TopN 从有序集合读取的条数，<=0 时取 100
	TopN int64
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Popular) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	var ids []string

	topN := r.TopN
	if topN <= 0 {
		topN = 100
	}

	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kvStore.ZRange(ctx, r.Key, 0, topN-1)
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	if len(ids) == 0 {
		ids = r.IDs
	}
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		if r.Provider != nil {
			d, err := r.Provider.Drink(ctx, id)
			if err != nil {
				// 热门列表里可能残留已下架的 ID，跳过即可
				continue
			}
			it = core.NewDrinkItem(d)
		}
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
