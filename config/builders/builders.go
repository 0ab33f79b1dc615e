// Package builders 在 init 中注册内置 Node 的配置构建器。
// 配置驱动的入口处空白导入本包即可：
//
//	import _ "github.com/sipkit/sipkit/config/builders"
package builders

import (
	"fmt"
	"time"

	"github.com/sipkit/sipkit/config"
	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/explain"
	"github.com/sipkit/sipkit/filter"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/conv"
	"github.com/sipkit/sipkit/rank"
	"github.com/sipkit/sipkit/recall"
	"github.com/sipkit/sipkit/rerank"
)

func init() {
	config.Register("recall.popular", BuildPopularNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.content", BuildContentNode)
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("postprocess.explain", BuildExplainNode)
}

func BuildPopularNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	node := &recall.Popular{
		Key: conv.ConfigGet(cfg, "key", ""),
		IDs: ids,
	}
	if n := conv.ConfigGetInt64(cfg, "top_n", 0); n > 0 {
		node.TopN = n
	}
	return node, nil
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "popular":
			ids := conv.SliceAnyToString(sourceMap["ids"])
			if ids == nil {
				ids = []string{}
			}
			sources = append(sources, &recall.Popular{
				Key: conv.ConfigGet(sourceMap, "key", ""),
				IDs: ids,
			})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "alcohol":
			filters = append(filters, &filter.Alcohol{})
		case "source_drink":
			filters = append(filters, &filter.SourceDrink{})
		case "not_for_me":
			filters = append(filters, &filter.NotForMe{
				DrinkIDs: conv.SliceAnyToString(filterMap["drink_ids"]),
			})
		case "seen":
			filters = append(filters, &filter.Seen{
				DrinkIDs: conv.SliceAnyToString(filterMap["drink_ids"]),
			})
		case "taste":
			tf, err := buildTasteFilter(filterMap)
			if err != nil {
				return nil, err
			}
			filters = append(filters, &filter.Taste{Filter: tf})
		case "rule":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("rule filter requires expr")
			}
			filters = append(filters, &filter.Rule{Expr: expr})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// buildTasteFilter 把配置段转成硬性口味过滤器，构建即校验。
func buildTasteFilter(cfg map[string]interface{}) (*core.TasteFilter, error) {
	tf := &core.TasteFilter{
		BudgetTier:          core.PriceTier(conv.ConfigGet(cfg, "budget_tier", "")),
		MaxSweetness:        int(conv.ConfigGetInt64(cfg, "max_sweetness", 0)),
		ExcludedIngredients: conv.SliceAnyToString(cfg["excluded_ingredients"]),
		ExcludedCategories:  conv.SliceAnyToString(cfg["excluded_categories"]),
		Active:              conv.ConfigGet(cfg, "active", true),
	}
	if v, ok := cfg["caffeine_min_mg"]; ok {
		if f, fok := conv.ToFloat64(v); fok {
			tf.CaffeineMinMg = &f
		}
	}
	if v, ok := cfg["caffeine_max_mg"]; ok {
		if f, fok := conv.ToFloat64(v); fok {
			tf.CaffeineMaxMg = &f
		}
	}
	if err := tf.Validate(); err != nil {
		return nil, err
	}
	return tf, nil
}

func BuildContentNode(_ map[string]interface{}) (pipeline.Node, error) {
	// 偏好走 rctx.Preference；需要 Provider 回查时由调用方注册自己的构建器
	return &rank.ContentNode{}, nil
}

func BuildHybridNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.HybridNode{
		ContentWeight: conv.ConfigGetFloat64(cfg, "content_weight", 0),
		CollabWeight:  conv.ConfigGetFloat64(cfg, "collab_weight", 0),
	}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: int(conv.ConfigGetInt64(cfg, "n", 0)),
	}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 0)),
		LabelKey:       conv.ConfigGet(cfg, "label_key", ""),
	}, nil
}

func BuildExplainNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &explain.Node{
		MaxReasons: int(conv.ConfigGetInt64(cfg, "max_reasons", 0)),
	}, nil
}
