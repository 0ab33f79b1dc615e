package rank

import (
	"context"
	"fmt"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/feature"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// 相似度两项的默认组合权重。
const (
	DefaultCosineWeight  = 0.7
	DefaultJaccardWeight = 0.3
)

// SimilarNode 是饮品到饮品的相似度打分 Node。
//
// score = cosW * 加权余弦(数值维) + jacW * Jaccard(类目/标签维)
//
// 写入：
//   - Features[sim_cosine] / [sim_jaccard] / [sim_score]
//   - Score
//   - Labels[rank_model] = "similar"
//
// 相似度严格对称：两项公式均与参数顺序无关。
// 源饮品自身由 filter.SourceDrink 在打分前剔除，这里不再处理。
type SimilarNode struct {
	// Vectors 是本次请求的目录向量快照，键为饮品 ID
	Vectors map[string]*feature.Vector

	// DimWeights 数值维度权重，nil 时等权
	DimWeights map[string]float64

	// CosineWeight / JaccardWeight 同时为 0 时取默认 0.7 / 0.3
	CosineWeight  float64
	JaccardWeight float64
}

func (n *SimilarNode) Name() string        { return "rank.similar" }
func (n *SimilarNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.SourceDrinkID == "" {
		return nil, core.NewFieldError(core.ModuleRank, "source_drink_id", "similarity ranking requires a source drink id")
	}
	src, ok := n.Vectors[rctx.SourceDrinkID]
	if !ok {
		return nil, core.NewNotFoundError(core.ModuleCatalog, fmt.Sprintf("drink %q not found", rctx.SourceDrinkID))
	}
	if len(items) == 0 {
		return items, nil
	}

	cosW, jacW := n.CosineWeight, n.JaccardWeight
	if cosW == 0 && jacW == 0 {
		cosW, jacW = DefaultCosineWeight, DefaultJaccardWeight
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		// 快照里没有向量的候选拿不到相似度，记 0 垫底
		cand := n.Vectors[it.ID]
		cos := feature.WeightedCosine(src, cand, n.DimWeights)
		jac := feature.Jaccard(src, cand)
		score := clamp01(cosW*cos + jacW*jac)

		it.SetFeature(core.FeatureSimCosine, cos)
		it.SetFeature(core.FeatureSimJaccard, jac)
		it.SetFeature(core.FeatureSimScore, score)
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: "similar", Source: "rank"})
	}
	return items, nil
}
