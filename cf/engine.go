package cf

import (
	"math"
	"sort"
)

// Engine 是基于用户的协同过滤引擎（User-based CF，u2u → u2i）。
//
// 核心思想："口味相似的用户，喜欢相似的饮品"
//
// 算法流程：
//  1. 交互记录 → 亲和度向量（收藏/评分/消费合成，见 Affinity）
//  2. 在双方共同交互的饮品上计算用户余弦相似度
//  3. 取 TopK 个正相似度邻居
//  4. 按相似度加权平均邻居亲和度，得到候选饮品的预测分
//
// 边界语义：
//   - 共同饮品数为 0 时相似度无定义，该邻居直接排除而不是记 0
//   - 没有任何邻居时返回空结果，由上层决定回退策略
type Engine struct {
	Matrix *Matrix

	// TopK 参与评分的最相似邻居数量，<=0 时取默认值 20
	TopK int

	// MinSimilarity 邻居入选的相似度下限（严格大于），默认 0
	MinSimilarity float64

	// MinCommonDrinks 两个用户至少需要共同交互的饮品数，<=0 时取 1
	MinCommonDrinks int
}

// DefaultTopK 是参与评分的默认邻居数量。
const DefaultTopK = 20

// Neighbor 是一个口味相似的邻居用户。
type Neighbor struct {
	UserID     string
	Similarity float64
}

// SimilarUsers 返回与 userID 最相似的 TopK 个邻居，
// 按相似度降序排列，相似度相同时按用户 ID 升序，保证结果可复现。
func (e *Engine) SimilarUsers(userID string) []Neighbor {
	if e.Matrix == nil || userID == "" {
		return nil
	}
	target := e.Matrix.UserVector(userID)
	if len(target) == 0 {
		return nil
	}

	minCommon := e.MinCommonDrinks
	if minCommon <= 0 {
		minCommon = 1
	}

	neighbors := make([]Neighbor, 0)
	for _, otherID := range e.Matrix.Users() {
		if otherID == userID {
			continue
		}
		sim, common := sharedCosine(target, e.Matrix.UserVector(otherID))
		if common < minCommon {
			continue
		}
		if sim > 0 && sim > e.MinSimilarity {
			neighbors = append(neighbors, Neighbor{UserID: otherID, Similarity: sim})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].UserID < neighbors[j].UserID
	})

	topK := e.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}
	return neighbors
}

// Scores 返回协同过滤的预测分数表。
//
// score[d] = Σ(sim_u * affinity_u(d)) / Σ(sim_u)，求和遍历所有对 d 有记录的邻居。
// 亲和度在 [0,1]、相似度为正，因此预测分也落在 [0,1]。
// 没有邻居时返回空表和 nil 邻居列表。
func (e *Engine) Scores(userID string) (map[string]float64, []Neighbor) {
	neighbors := e.SimilarUsers(userID)
	if len(neighbors) == 0 {
		return map[string]float64{}, nil
	}

	weighted := make(map[string]float64)
	weightSum := make(map[string]float64)
	for _, nb := range neighbors {
		for drinkID, aff := range e.Matrix.UserVector(nb.UserID) {
			weighted[drinkID] += nb.Similarity * aff
			weightSum[drinkID] += nb.Similarity
		}
	}

	scores := make(map[string]float64, len(weighted))
	for drinkID, sum := range weighted {
		if w := weightSum[drinkID]; w > 0 {
			scores[drinkID] = sum / w
		}
	}
	return scores, neighbors
}

// sharedCosine 在两个稀疏向量共同拥有的维度上计算余弦相似度，
// 并返回共同维度数量。没有共同维度或任一侧范数为 0 时返回 0。
func sharedCosine(a, b map[string]float64) (float64, int) {
	var dot, normA, normB float64
	common := 0
	for drinkID, va := range a {
		vb, ok := b[drinkID]
		if !ok {
			continue
		}
		common++
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if common == 0 || normA == 0 || normB == 0 {
		return 0, common
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), common
}
