package rank

import (
	"github.com/sipkit/sipkit/core"
)

// 偏好匹配的分项维度名，同时作为 Features 里的 breakdown key。
const (
	MatchDimSweetness  = "match_sweetness"
	MatchDimBitterness = "match_bitterness"
	MatchDimPrice      = "match_price"
	MatchDimSugar      = "match_sugar"
	MatchDimCaffeine   = "match_caffeine"
	MatchDimCalories   = "match_calories"
)

// NeutralMatchScore 是无偏好可用时的中性匹配分。
// 冷启动用户对所有饮品一视同仁，而不是一律打零分。
const NeutralMatchScore = 0.5

// MatchPreference 计算饮品与用户偏好的匹配度，返回总分和分项明细。
//
// 计分规则：
//   - 区间维度（甜度/苦度/价格档）：两侧归一到 [0,1] 后取 1-|差值|
//   - 上限维度（糖/咖啡因/热量）：不超限得 1.0，超限按超出比例线性衰减到 0
//   - 总分是已设置维度的简单平均；未设置的维度不参与
//   - 偏好缺失或一个维度都没设置时返回中性分 0.5 和空明细
//
// 苦度只在目录提供了苦度值时参与：缺失属性无从比较，不猜测。
func MatchPreference(pref *core.Preference, d *core.Drink) (float64, map[string]float64) {
	if pref == nil || d == nil || pref.SetDims() == 0 {
		return NeutralMatchScore, nil
	}

	dims := make(map[string]float64, 6)

	if pref.Sweetness != 0 {
		dims[MatchDimSweetness] = boundedMatch(float64(pref.Sweetness), float64(d.Sweetness))
	}
	if pref.Bitterness != 0 && d.Bitterness != 0 {
		dims[MatchDimBitterness] = boundedMatch(float64(pref.Bitterness), float64(d.Bitterness))
	}
	if pref.PriceTier != "" {
		want, okW := pref.PriceTier.Ordinal()
		have, okH := d.PriceTier.Ordinal()
		if okW && okH {
			dims[MatchDimPrice] = clamp01(1 - abs(want-have))
		}
	}
	if pref.SugarLimit != nil {
		dims[MatchDimSugar] = limitMatch(d.SugarG, *pref.SugarLimit)
	}
	if pref.CaffeineLimit != nil {
		dims[MatchDimCaffeine] = limitMatch(d.CaffeineMg, *pref.CaffeineLimit)
	}
	if pref.CalorieLimit != nil {
		dims[MatchDimCalories] = limitMatch(d.Calories, *pref.CalorieLimit)
	}

	if len(dims) == 0 {
		return NeutralMatchScore, nil
	}

	var sum float64
	for _, v := range dims {
		sum += v
	}
	return sum / float64(len(dims)), dims
}

// boundedMatch 比较两个 1..10 刻度值：归一到 [0,1] 后取 1-|差值|。
func boundedMatch(pref, actual float64) float64 {
	p := (pref - 1) / 9
	a := (actual - 1) / 9
	return clamp01(1 - abs(p-a))
}

// limitMatch 按上限计分：不超限满分，超限按超出占上限的比例线性衰减。
// 上限为 0 是最严格上限：值为 0 得满分，任何正值都得 0。
func limitMatch(value, limit float64) float64 {
	if value <= limit {
		return 1.0
	}
	if limit <= 0 {
		return 0.0
	}
	return clamp01(1 - (value-limit)/limit)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
