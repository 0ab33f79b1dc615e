package feature

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sipkit/sipkit/core"
)

// 数值维度名约定：相似度的加权余弦只在这组定长维度上计算。
const (
	DimSweetness = "sweetness"
	DimCaffeine  = "caffeine"
	DimSugar     = "sugar"
	DimCalories  = "calories"
	DimPrice     = "price_tier"
	DimAlcohol   = "alcohol"
)

// NumericDims 返回数值维度名的固定顺序列表。
func NumericDims() []string {
	return []string{DimSweetness, DimCaffeine, DimSugar, DimCalories, DimPrice, DimAlcohol}
}

// Vector 是一个饮品的归一化特征向量（引擎内部派生结构，不落库）。
//
// 结构：
//   - Numeric: 定长数值维度（见 NumericDims），全部归一化到 [0,1]
//   - Onehot:  类目 one-hot（cat_*）与标签（tag_*）维度，用于 Jaccard 项
//   - Allergens: 过敏原 bitset，仅用于排除过滤，不参与相似度
//
// 向量整体重建、从不原地修改；UpdatedAt 即源目录记录的更新戳，
// 作为缓存的版本键。
type Vector struct {
	DrinkID   string
	UpdatedAt time.Time
	Numeric   map[string]float64
	Onehot    map[string]float64
	Allergens Bitset
}

// Stats 是目录快照的观测统计：min-max 维度的归一化范围、
// 类目全集（one-hot 维度表）、过敏原固定顺序表。
type Stats struct {
	CaffeineMin, CaffeineMax float64
	SugarMin, SugarMax       float64
	CalorieMin, CalorieMax   float64

	Categories    []string // 观测到的类目（升序）
	AllergenOrder []string // 全量过敏原名（升序去重）

	DrinkCount int
}

// ComputeStats 扫描目录快照，得到归一化所需的观测统计。
// 空目录返回零值统计（合法：构建器对应产出空向量集，不报错）。
func ComputeStats(drinks []*core.Drink) *Stats {
	s := &Stats{DrinkCount: len(drinks)}
	if len(drinks) == 0 {
		return s
	}

	catSet := make(map[string]struct{})
	allergenSet := make(map[string]struct{})
	first := true
	for _, d := range drinks {
		if d == nil {
			continue
		}
		if first {
			s.CaffeineMin, s.CaffeineMax = d.CaffeineMg, d.CaffeineMg
			s.SugarMin, s.SugarMax = d.SugarG, d.SugarG
			s.CalorieMin, s.CalorieMax = d.Calories, d.Calories
			first = false
		} else {
			s.CaffeineMin = minF(s.CaffeineMin, d.CaffeineMg)
			s.CaffeineMax = maxF(s.CaffeineMax, d.CaffeineMg)
			s.SugarMin = minF(s.SugarMin, d.SugarG)
			s.SugarMax = maxF(s.SugarMax, d.SugarG)
			s.CalorieMin = minF(s.CalorieMin, d.Calories)
			s.CalorieMax = maxF(s.CalorieMax, d.Calories)
		}
		if d.Category != "" {
			catSet[d.Category] = struct{}{}
		}
		for _, a := range d.Allergens() {
			allergenSet[a] = struct{}{}
		}
	}

	s.Categories = sortedKeys(catSet)
	s.AllergenOrder = sortedKeys(allergenSet)
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Builder 把目录记录转换为归一化特征向量。
//
// 设计原则：
//   - Build 是目录记录的纯函数（统计快照固定后），同输入必同输出
//   - 可选缓存按 (drink id, updated-at) 键存取，时间戳不匹配即失效
//   - 结构性非法输入（负值、未知档位）返回 INVALID_INPUT，不做静默钳制
type Builder struct {
	stats    *Stats
	sweet    *LinearScaleNormalizer
	caffeine *CatalogMinMaxNormalizer
	sugar    *CatalogMinMaxNormalizer
	calories *CatalogMinMaxNormalizer
	alcohol  *RatioNormalizer
	cats     *CategoryEncoder
	allergen *AllergenEncoder

	cache       *VectorCache
	parallelism int
}

// BuilderOption 构建器配置选项
type BuilderOption func(*Builder)

// WithVectorCache 挂接向量缓存（并发安全，可跨请求共享）。
func WithVectorCache(cache *VectorCache) BuilderOption {
	return func(b *Builder) {
		b.cache = cache
	}
}

// WithParallelism 设置 BuildAll 的并发度（默认 4）。
func WithParallelism(n int) BuilderOption {
	return func(b *Builder) {
		b.parallelism = n
	}
}

// NewBuilder 基于目录快照创建构建器。
// 统计（min-max 范围、类目表、过敏原顺序）在此刻定格。
func NewBuilder(drinks []*core.Drink, opts ...BuilderOption) *Builder {
	stats := ComputeStats(drinks)
	return NewBuilderWithStats(stats, opts...)
}

// NewBuilderWithStats 用既有统计创建构建器（统计可由外部预计算/缓存）。
func NewBuilderWithStats(stats *Stats, opts ...BuilderOption) *Builder {
	if stats == nil {
		stats = &Stats{}
	}
	b := &Builder{
		stats:       stats,
		sweet:       NewLinearScaleNormalizer(1, 10),
		caffeine:    NewCatalogMinMaxNormalizer(stats.CaffeineMin, stats.CaffeineMax),
		sugar:       NewCatalogMinMaxNormalizer(stats.SugarMin, stats.SugarMax),
		calories:    NewCatalogMinMaxNormalizer(stats.CalorieMin, stats.CalorieMax),
		alcohol:     NewRatioNormalizer(100),
		cats:        NewCategoryEncoder(stats.Categories),
		allergen:    NewAllergenEncoder(stats.AllergenOrder),
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Stats 返回构建器定格的目录统计。
func (b *Builder) Stats() *Stats {
	return b.stats
}

// Build 构建单个饮品的特征向量。
// 命中缓存（id 与更新戳都一致）直接复用；否则重建并回写缓存。
func (b *Builder) Build(d *core.Drink) (*Vector, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if b.cache != nil {
		if v, ok := b.cache.Get(d.ID, d.UpdatedAt); ok {
			return v, nil
		}
	}

	numeric := map[string]float64{
		DimSweetness: b.sweet.NormalizeValue(float64(d.Sweetness)),
		DimCaffeine:  b.caffeine.NormalizeValue(d.CaffeineMg),
		DimSugar:     b.sugar.NormalizeValue(d.SugarG),
		DimCalories:  b.calories.NormalizeValue(d.Calories),
		DimAlcohol:   b.alcohol.NormalizeValue(d.AlcoholPct),
	}
	if ord, ok := d.PriceTier.Ordinal(); ok {
		numeric[DimPrice] = ord
	}

	onehot := b.cats.Encode(d.Category)
	for k, v := range EncodeTags(d.Tags) {
		onehot[k] = v
	}

	v := &Vector{
		DrinkID:   d.ID,
		UpdatedAt: d.UpdatedAt,
		Numeric:   numeric,
		Onehot:    onehot,
		Allergens: b.allergen.Encode(d.Allergens()),
	}

	if b.cache != nil {
		b.cache.Put(v)
	}
	return v, nil
}

// BuildAll 并发构建一批饮品的特征向量，返回 map[drinkID]*Vector。
// 任一记录校验失败则整体失败（结构性非法输入必须显式暴露）。
func (b *Builder) BuildAll(ctx context.Context, drinks []*core.Drink) (map[string]*Vector, error) {
	vectors := make([]*Vector, len(drinks))

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, b.parallelism)
	for i, d := range drinks {
		i, d := i, d
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			v, err := b.Build(d)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Vector, len(vectors))
	for _, v := range vectors {
		if v != nil {
			out[v.DrinkID] = v
		}
	}
	return out, nil
}
