package core

import "github.com/sipkit/sipkit/pkg/utils"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// ID 是饮品 ID；Features 承载分数拆解（content_score / collab_score / ...）；
// Labels 用于解释与策略驱动；Score 用于最终排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewDrinkItem 从饮品记录创建 Item，原始记录挂在 Meta 上供过滤/解释使用。
func NewDrinkItem(d *Drink) *Item {
	it := NewItem(d.ID)
	it.Meta[MetaDrink] = d
	return it
}

// Meta key 约定
const (
	MetaDrink = "drink" // *Drink 原始目录记录
)

// Feature key 约定：分数拆解在链路内的统一命名。
const (
	FeatureContentScore   = "content_score"   // 偏好匹配分
	FeatureCollabScore    = "collab_score"    // 协同过滤分
	FeatureHybridScore    = "hybrid_score"    // 内容/协同融合分
	FeatureSimScore       = "sim_score"       // 饮品相似度总分
	FeatureSimCosine      = "sim_cosine"      // 相似度的加权余弦项
	FeatureSimJaccard     = "sim_jaccard"     // 相似度的 Jaccard 项
	FeatureFeedbackFactor = "feedback_factor" // 反馈微调乘数
)

// Drink 返回 Meta 中挂载的目录记录；未挂载时返回 nil。
func (it *Item) Drink() *Drink {
	if it.Meta == nil {
		return nil
	}
	d, _ := it.Meta[MetaDrink].(*Drink)
	return d
}

// Feature 读取分数拆解项。
func (it *Item) Feature(key string) (float64, bool) {
	if it.Features == nil {
		return 0, false
	}
	v, ok := it.Features[key]
	return v, ok
}

// SetFeature 写入分数拆解项。
func (it *Item) SetFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
