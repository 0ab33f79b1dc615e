package feature

// 类别/集合类属性的编码器。
// 数值属性走 Normalizer，这里处理类目 one-hot、标签集合与过敏原 bitset。

// CategoryEncoder One-Hot 编码器（独热编码）
// 将类目转换为 cat_<category>=1.0 的稀疏维度；快照里没见过的类目
// 落入惰性补充的 "other" 桶（cat_other）。
type CategoryEncoder struct {
	known map[string]struct{} // 构建快照时观测到的类目集合
}

// CategoryDimPrefix 是类目维度的特征名前缀。
const CategoryDimPrefix = "cat_"

// CategoryOtherDim 是未知类目的 "other" 桶维度名。
const CategoryOtherDim = CategoryDimPrefix + "other"

// NewCategoryEncoder 创建类目编码器；categories 是目录快照观测到的类目列表。
func NewCategoryEncoder(categories []string) *CategoryEncoder {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c != "" {
			known[c] = struct{}{}
		}
	}
	return &CategoryEncoder{known: known}
}

// Encode 编码单个类目。
// 已知类目 → {cat_<category>: 1.0}；未知/空类目 → {cat_other: 1.0}。
func (e *CategoryEncoder) Encode(category string) map[string]float64 {
	if category == "" {
		return map[string]float64{CategoryOtherDim: 1.0}
	}
	if _, ok := e.known[category]; !ok {
		return map[string]float64{CategoryOtherDim: 1.0}
	}
	return map[string]float64{CategoryDimPrefix + category: 1.0}
}

// TagDimPrefix 是标签维度的特征名前缀。
const TagDimPrefix = "tag_"

// EncodeTags 把自由标签集合编码为 tag_<tag>=1.0 维度。
// 标签是开放集合，不做 other 桶（未知标签就是新维度）。
func EncodeTags(tags []string) map[string]float64 {
	if len(tags) == 0 {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		out[TagDimPrefix+t] = 1.0
	}
	return out
}

// Bitset 是定长位集（按 64 位字分段）。
// 过敏原按固定顺序编码成 bitset，仅用于排除过滤，不参与相似度计算。
type Bitset []uint64

// NewBitset 创建能容纳 n 位的 Bitset。
func NewBitset(n int) Bitset {
	if n <= 0 {
		return Bitset{}
	}
	return make(Bitset, (n+63)/64)
}

// Set 置位第 i 位（越界忽略）。
func (b Bitset) Set(i int) {
	if i < 0 || i/64 >= len(b) {
		return
	}
	b[i/64] |= 1 << uint(i%64)
}

// Test 判断第 i 位是否置位。
func (b Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<uint(i%64)) != 0
}

// Any 判断是否有任意位置位。
func (b Bitset) Any() bool {
	for _, w := range b {
		if w != 0 {
			return true
		}
	}
	return false
}

// Intersects 判断两个 Bitset 是否有共同置位（按短的一方对齐）。
func (b Bitset) Intersects(other Bitset) bool {
	n := len(b)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if b[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

// AllergenEncoder 过敏原 bitset 编码器。
// Order 是目录快照上全量过敏原名的固定顺序（升序去重），
// 同一快照内所有饮品共享同一顺序，bitset 才可比。
type AllergenEncoder struct {
	Order []string
	index map[string]int
}

// NewAllergenEncoder 创建过敏原编码器；order 必须是去重后的固定顺序。
func NewAllergenEncoder(order []string) *AllergenEncoder {
	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}
	return &AllergenEncoder{Order: order, index: index}
}

// Encode 把过敏原名集合编码为固定顺序的 bitset。
// 顺序表之外的过敏原（快照外饮品可能携带）被忽略，由上层排除逻辑兜底。
func (e *AllergenEncoder) Encode(allergens []string) Bitset {
	bs := NewBitset(len(e.Order))
	for _, name := range allergens {
		if i, ok := e.index[name]; ok {
			bs.Set(i)
		}
	}
	return bs
}

// BitFor 返回过敏原名对应的位序号。
func (e *AllergenEncoder) BitFor(name string) (int, bool) {
	i, ok := e.index[name]
	return i, ok
}
