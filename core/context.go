package core

import "github.com/sipkit/sipkit/pkg/utils"

// Mode 是推荐模式的带标签变体，决定打分策略的取舍。
type Mode string

const (
	ModeContent       Mode = "content"       // 纯内容：偏好匹配分
	ModeCollaborative Mode = "collaborative" // 纯协同：邻居加权分，无邻居返回空列表
	ModeHybrid        Mode = "hybrid"        // 混合：内容 + 协同按权重融合，可降级
	ModeSimilar       Mode = "similar"       // 饮品到饮品：属性相似度
)

// Valid 判断模式是否合法。
func (m Mode) Valid() bool {
	switch m {
	case ModeContent, ModeCollaborative, ModeHybrid, ModeSimilar:
		return true
	}
	return false
}

// RecommendContext 承载一次推荐请求的用户/场景/快照信息，贯穿整个 Pipeline 透传。
//
// 设计原则：
//   - 引擎无跨请求可变状态：请求所需快照数据全部挂在上下文上
//   - 年龄核验（AgeVerified）由外部协作方完成，这里只消费结论
//   - Labels 是请求级标签（冷启动、降级原因等），可驱动链路行为并回流到解释
type RecommendContext struct {
	UserID string
	Scene  string // 调用场景：landing / detail / similar ...
	Mode   Mode

	// Limit 是截断条数；<= 0 时按默认值 10 处理
	Limit int

	// AgeVerified 为真时才允许返回酒精类饮品
	AgeVerified bool

	// SourceDrinkID 是饮品到饮品查询的源饮品（仅 ModeSimilar 使用）
	SourceDrinkID string

	// Preference 是强类型口味偏好；nil 表示无偏好记录（内容侧冷启动）
	Preference *Preference

	// TasteFilter 是用户硬性排除过滤器；nil 表示未配置
	TasteFilter *TasteFilter

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	// 例如：冷启动、协同降级、明确的实验桶
	Labels map[string]utils.Label

	// Params 请求级上下文参数（time_of_day、device_type 等扩展信息）
	Params map[string]any
}

// 请求级 Label key 约定
const (
	LabelColdStart      = "cold_start"      // 无偏好记录
	LabelFallbackReason = "fallback_reason" // 混合模式降级原因
	LabelCFNeighbors    = "cf_neighbors"    // 协同邻居数，rank.collab 写入、rank.hybrid 消费
)

// EffectiveLimit 返回生效的截断条数（默认 10）。
func (rctx *RecommendContext) EffectiveLimit() int {
	if rctx.Limit <= 0 {
		return 10
	}
	return rctx.Limit
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
