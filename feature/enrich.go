package feature

import (
	"context"
	"strings"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/conv"
	"github.com/sipkit/sipkit/pkg/utils"
)

// EnrichNode 是候选补全节点，把召回产出的"裸 ID"候选补全为完整候选。
//
// 两类补全：
//  1. 目录记录：从 Catalog 取出 *core.Drink 挂到 item.Meta（热门召回、
//     历史召回只产出 ID，后续的过滤与打分都依赖完整记录）
//  2. 在线特征：从特征库（如 Feast）批量拉取动态统计特征，数值合并进
//     item.Features，字符串放入 item.Meta
//
// 特征库不可用时只降级不报错：推荐可以没有动态特征，不能没有结果。
// 降级会在请求级 Label（enrich_degraded）上留痕。
type EnrichNode struct {
	// Catalog 目录来源，为空时跳过记录补全
	Catalog core.CatalogProvider

	// Features 在线特征来源（可选）
	Features core.DrinkFeatureProvider

	// FeatureRefs 要拉取的特征引用，例如 "drink_stats:popularity"
	FeatureRefs []string

	// FeaturePrefix 在线特征写入 item.Features 的键前缀，空时取 "online_"
	FeaturePrefix string

	// DropMissing 为 true 时丢弃目录中不存在的候选，默认保留裸 ID 候选
	DropMissing bool
}

// LabelEnrichDegraded 特征库拉取失败时的请求级降级标记
const LabelEnrichDegraded = "enrich_degraded"

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	items, err := n.attachDrinks(ctx, items)
	if err != nil {
		return nil, err
	}

	if n.Features != nil && len(n.FeatureRefs) > 0 {
		n.mergeOnlineFeatures(ctx, rctx, items)
	}

	return items, nil
}

// attachDrinks 为缺少目录记录的候选挂载 *core.Drink。
// 目录中查不到的 ID 不算错误：按 DropMissing 决定保留还是丢弃。
func (n *EnrichNode) attachDrinks(ctx context.Context, items []*core.Item) ([]*core.Item, error) {
	if n.Catalog == nil {
		return items, nil
	}

	result := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.Drink() != nil {
			result = append(result, item)
			continue
		}

		drink, err := n.Catalog.Drink(ctx, item.ID)
		if err != nil {
			if core.IsNotFound(err) {
				if !n.DropMissing {
					result = append(result, item)
				}
				continue
			}
			return nil, err
		}

		if item.Meta == nil {
			item.Meta = make(map[string]any)
		}
		item.Meta[core.MetaDrink] = drink
		result = append(result, item)
	}
	return result, nil
}

// mergeOnlineFeatures 批量拉取在线特征并合并到候选上。
func (n *EnrichNode) mergeOnlineFeatures(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) {
	prefix := n.FeaturePrefix
	if prefix == "" {
		prefix = "online_"
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item != nil {
			ids = append(ids, item.ID)
		}
	}

	features, err := n.Features.DrinkFeatures(ctx, ids, n.FeatureRefs)
	if err != nil {
		if rctx != nil {
			rctx.PutLabel(LabelEnrichDegraded, utils.Label{
				Value:  err.Error(),
				Source: n.Name(),
			})
		}
		return
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		values, ok := features[item.ID]
		if !ok {
			continue
		}
		for ref, value := range values {
			key := prefix + shortFeatureName(ref)
			if fv, ok := conv.ToFloat64(value); ok {
				item.SetFeature(key, fv)
				continue
			}
			if item.Meta == nil {
				item.Meta = make(map[string]any)
			}
			item.Meta[key] = value
		}
	}
}

// shortFeatureName 取特征引用的短名："drink_stats:popularity" -> "popularity"。
// 不含 ':' 的引用原样返回。
func shortFeatureName(ref string) string {
	if idx := strings.LastIndex(ref, ":"); idx >= 0 && idx+1 < len(ref) {
		return ref[idx+1:]
	}
	return ref
}

var _ pipeline.Node = (*EnrichNode)(nil)
