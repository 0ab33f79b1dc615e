package cf

import (
	"math"
	"sort"

	"github.com/sipkit/sipkit/core"
)

// AffinityWeights 是亲和度合成的信号权重。
// 三项全为 0 视为未配置，取默认权重 0.5 / 0.3 / 0.2。
type AffinityWeights struct {
	Favorite float64 `json:"favorite" yaml:"favorite"`
	Rating   float64 `json:"rating" yaml:"rating"`
	Consumed float64 `json:"consumed" yaml:"consumed"`
}

// DefaultAffinityWeights 返回默认合成权重。
func DefaultAffinityWeights() AffinityWeights {
	return AffinityWeights{Favorite: 0.5, Rating: 0.3, Consumed: 0.2}
}

func (w AffinityWeights) unset() bool {
	return w.Favorite == 0 && w.Rating == 0 && w.Consumed == 0
}

// Affinity 将一条交互记录压缩为 [0,1] 区间的亲和度分数。
//
// 合成规则：
//   - IsNotForMe 直接归零，压过其他所有信号
//   - 收藏占 Favorite，评分占 Rating（按 5 分制归一），
//     消费次数占 Consumed（5 次封顶）
func (w AffinityWeights) Affinity(in *core.Interaction) float64 {
	if in == nil || in.IsNotForMe {
		return 0
	}
	if w.unset() {
		w = DefaultAffinityWeights()
	}
	var score float64
	if in.IsFavorite {
		score += w.Favorite
	}
	score += w.Rating * math.Min(1, in.Rating/5)
	score += w.Consumed * math.Min(1, float64(in.TimesConsumed)/5)
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// Affinity 按默认权重合成亲和度分数。
func Affinity(in *core.Interaction) float64 {
	return AffinityWeights{}.Affinity(in)
}

// Matrix 是稀疏的用户-饮品亲和度矩阵。
//
// 稀疏语义：缺失条目表示"从未交互"，显式 0.0（标记不适合自己）是另一种事实。
// 相似度只在双方都有记录的饮品上计算，缺失不会被当作 0 参与运算。
type Matrix struct {
	rows map[string]map[string]float64
}

// NewMatrix 创建空矩阵。
func NewMatrix() *Matrix {
	return &Matrix{rows: make(map[string]map[string]float64)}
}

// BuildMatrix 按默认权重从交互记录构建亲和度矩阵。
func BuildMatrix(interactions []*core.Interaction) *Matrix {
	return BuildMatrixWith(interactions, AffinityWeights{})
}

// BuildMatrixWith 按给定权重构建亲和度矩阵。
// 同一 (用户, 饮品) 出现多条时，后出现的记录覆盖先出现的。
func BuildMatrixWith(interactions []*core.Interaction, w AffinityWeights) *Matrix {
	m := NewMatrix()
	for _, in := range interactions {
		if in == nil || in.UserID == "" || in.DrinkID == "" {
			continue
		}
		m.Set(in.UserID, in.DrinkID, w.Affinity(in))
	}
	return m
}

// Set 写入一条亲和度。
func (m *Matrix) Set(userID, drinkID string, affinity float64) {
	row, ok := m.rows[userID]
	if !ok {
		row = make(map[string]float64)
		m.rows[userID] = row
	}
	row[drinkID] = affinity
}

// Affinity 返回某条亲和度；第二个返回值区分"值为 0"与"没有交互"。
func (m *Matrix) Affinity(userID, drinkID string) (float64, bool) {
	v, ok := m.rows[userID][drinkID]
	return v, ok
}

// UserVector 返回某用户的亲和度向量，调用方不应修改。
func (m *Matrix) UserVector(userID string) map[string]float64 {
	return m.rows[userID]
}

// Users 返回矩阵中全部用户 ID，升序排列保证遍历顺序稳定。
func (m *Matrix) Users() []string {
	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len 返回矩阵中的用户数。
func (m *Matrix) Len() int {
	return len(m.rows)
}
