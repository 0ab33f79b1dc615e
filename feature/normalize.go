package feature

// Normalizer 是单值归一化接口。
// 所有归一化都把原始属性值映射到 [0,1]（除非另有说明），
// 归一化阶段只做裁剪，不做领域校验（越界校验在 core.Drink.Validate）。
type Normalizer interface {
	// NormalizeValue 归一化单个值
	NormalizeValue(value float64) float64
}

// LinearScaleNormalizer 线性缩放归一化
// 公式: x' = (x - lo) / (hi - lo)
// 用于有固定领域区间的属性（甜度/苦度 1..10）
type LinearScaleNormalizer struct {
	Lo float64
	Hi float64
}

// NewLinearScaleNormalizer 创建线性缩放归一化器
func NewLinearScaleNormalizer(lo, hi float64) *LinearScaleNormalizer {
	return &LinearScaleNormalizer{Lo: lo, Hi: hi}
}

// NormalizeValue 归一化单个值
func (n *LinearScaleNormalizer) NormalizeValue(value float64) float64 {
	rangeVal := n.Hi - n.Lo
	if rangeVal <= 0 {
		return 0.5
	}
	return clip01((value - n.Lo) / rangeVal)
}

// CatalogMinMaxNormalizer 目录观测范围的 Min-Max 归一化
// 公式: x' = (x - min) / (max - min)，裁剪到 [0,1]
// 特点: min/max 取自构建时的目录快照观测值；目录只有单一取值时
// 固定返回 0.5（避免除零，同时让该维度在相似度里保持中性）
type CatalogMinMaxNormalizer struct {
	Min float64
	Max float64
}

// NewCatalogMinMaxNormalizer 创建目录范围归一化器
func NewCatalogMinMaxNormalizer(min, max float64) *CatalogMinMaxNormalizer {
	return &CatalogMinMaxNormalizer{Min: min, Max: max}
}

// NormalizeValue 归一化单个值。
// 快照外的饮品可能超出观测范围，此处的裁剪是预期行为，不是校验失败。
func (n *CatalogMinMaxNormalizer) NormalizeValue(value float64) float64 {
	rangeVal := n.Max - n.Min
	if rangeVal <= 0 {
		return 0.5
	}
	return clip01((value - n.Min) / rangeVal)
}

// RatioNormalizer 比例归一化
// 公式: x' = x / denom
// 用于有绝对上限的属性（酒精度 0..100）
type RatioNormalizer struct {
	Denom float64
}

// NewRatioNormalizer 创建比例归一化器
func NewRatioNormalizer(denom float64) *RatioNormalizer {
	return &RatioNormalizer{Denom: denom}
}

// NormalizeValue 归一化单个值
func (n *RatioNormalizer) NormalizeValue(value float64) float64 {
	if n.Denom <= 0 {
		return 0
	}
	return clip01(value / n.Denom)
}

// clip01 把值裁剪到 [0,1]。
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
