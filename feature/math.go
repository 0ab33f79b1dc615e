package feature

import "math"

// 向量相似度原语。组合权重（0.7 余弦 + 0.3 Jaccard 等）由排序层配置，
// 这里只提供两项各自的计算。

// WeightedCosine 计算两个向量在定长数值维度上的加权余弦相似度。
// weights 按维度名取权重，缺省维度权重为 1（等权）；权重 <= 0 的维度跳过。
//
// 边界定义（保证结果确定、对称、落在 [0,1]）：
//   - 两侧范数都为 0：属性完全一致，返回 1.0
//   - 仅一侧范数为 0：返回 0.0
func WeightedCosine(a, b *Vector, weights map[string]float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	var dot, na, nb float64
	for _, dim := range NumericDims() {
		w := 1.0
		if weights != nil {
			if wv, ok := weights[dim]; ok {
				w = wv
			}
		}
		if w <= 0 {
			continue
		}
		av := a.Numeric[dim]
		bv := b.Numeric[dim]
		dot += w * av * bv
		na += w * av * av
		nb += w * bv * bv
	}
	if na == 0 && nb == 0 {
		return 1.0
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return clip01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Jaccard 计算两个向量在类目/标签 one-hot 维度上的 Jaccard 相似度。
// J = |A ∩ B| / |A ∪ B|；双方都没有置位维度时按集合相等返回 1.0。
func Jaccard(a, b *Vector) float64 {
	if a == nil || b == nil {
		return 0
	}
	inter := 0
	union := 0
	for k, v := range a.Onehot {
		if v <= 0 {
			continue
		}
		union++
		if bv, ok := b.Onehot[k]; ok && bv > 0 {
			inter++
		}
	}
	for k, v := range b.Onehot {
		if v <= 0 {
			continue
		}
		if av, ok := a.Onehot[k]; !ok || av <= 0 {
			union++
		}
	}
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}
