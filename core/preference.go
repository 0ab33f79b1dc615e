package core

import "fmt"

// Preference 是用户的口味偏好记录（每用户至多一条）。
//
// 设计原则：
//   - 偏好维度允许缺省：未设置的维度不参与匹配打分
//   - 整条记录缺失（nil）是内容侧冷启动态，匹配分回退为中性 0.5
//   - 引擎只读，由外部协作方写入与更新
type Preference struct {
	UserID string `json:"user_id"`

	Sweetness  int `json:"sweetness,omitempty"`  // 甜度偏好 1..10，0 = 未设置
	Bitterness int `json:"bitterness,omitempty"` // 苦度偏好 1..10，0 = 未设置

	// 上限类偏好：nil = 不设限；超限按线性衰减惩罚
	SugarLimit    *float64 `json:"sugar_limit,omitempty"`    // 克
	CaffeineLimit *float64 `json:"caffeine_limit,omitempty"` // 毫克
	CalorieLimit  *float64 `json:"calorie_limit,omitempty"`

	PriceTier PriceTier `json:"price_tier,omitempty"` // 期望价格档位，"" = 未设置

	// 偏好类目：不参与匹配打分，仅用于解释与召回提示
	PreferredCategories []string `json:"preferred_categories,omitempty"`
}

// Validate 校验偏好记录；越界值返回 INVALID_INPUT 并指明字段。
func (p *Preference) Validate() error {
	if p == nil {
		return nil
	}
	if p.Sweetness != 0 && (p.Sweetness < 1 || p.Sweetness > 10) {
		return NewFieldError(ModuleProfile, "sweetness", fmt.Sprintf("sweetness preference %d out of range [1,10]", p.Sweetness))
	}
	if p.Bitterness != 0 && (p.Bitterness < 1 || p.Bitterness > 10) {
		return NewFieldError(ModuleProfile, "bitterness", fmt.Sprintf("bitterness preference %d out of range [1,10]", p.Bitterness))
	}
	if p.SugarLimit != nil && *p.SugarLimit < 0 {
		return NewFieldError(ModuleProfile, "sugar_limit", "sugar limit must be >= 0")
	}
	if p.CaffeineLimit != nil && *p.CaffeineLimit < 0 {
		return NewFieldError(ModuleProfile, "caffeine_limit", "caffeine limit must be >= 0")
	}
	if p.CalorieLimit != nil && *p.CalorieLimit < 0 {
		return NewFieldError(ModuleProfile, "calorie_limit", "calorie limit must be >= 0")
	}
	if p.PriceTier != "" && !p.PriceTier.Valid() {
		return NewFieldError(ModuleProfile, "price_tier", fmt.Sprintf("unknown price tier %q", p.PriceTier))
	}
	return nil
}

// SetDims 返回已设置的偏好维度数。
// 混合打分要求至少一个维度已设置，否则退化为纯内容冷启动态。
func (p *Preference) SetDims() int {
	if p == nil {
		return 0
	}
	n := 0
	if p.Sweetness != 0 {
		n++
	}
	if p.Bitterness != 0 {
		n++
	}
	if p.SugarLimit != nil {
		n++
	}
	if p.CaffeineLimit != nil {
		n++
	}
	if p.CalorieLimit != nil {
		n++
	}
	if p.PriceTier != "" {
		n++
	}
	return n
}

// PrefersCategory 判断类目是否在偏好类目中。
func (p *Preference) PrefersCategory(category string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.PreferredCategories {
		if c == category {
			return true
		}
	}
	return false
}

// TasteFilter 是用户的硬性排除过滤器（每用户至多一条，可停用）。
//
// 与 Preference 的区别：Preference 影响打分，TasteFilter 在打分前
// 直接剔除候选，不参与任何分数计算。
type TasteFilter struct {
	UserID string `json:"user_id"`

	BudgetTier   PriceTier `json:"budget_tier,omitempty"`   // 预算上限档位，"" = 不限
	MaxSweetness int       `json:"max_sweetness,omitempty"` // 甜度上限 1..10，0 = 不限

	CaffeineMinMg *float64 `json:"caffeine_min_mg,omitempty"` // 咖啡因下限，nil = 不限
	CaffeineMaxMg *float64 `json:"caffeine_max_mg,omitempty"` // 咖啡因上限，nil = 不限

	ExcludedIngredients []string `json:"excluded_ingredients,omitempty"`
	ExcludedCategories  []string `json:"excluded_categories,omitempty"`

	Active bool `json:"active"`
}

// Validate 校验过滤器；规则与偏好记录同源（档位合法、区间有序、非负）。
func (f *TasteFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.BudgetTier != "" && !f.BudgetTier.Valid() {
		return NewFieldError(ModuleFilter, "budget_tier", fmt.Sprintf("unknown price tier %q", f.BudgetTier))
	}
	if f.MaxSweetness != 0 && (f.MaxSweetness < 1 || f.MaxSweetness > 10) {
		return NewFieldError(ModuleFilter, "max_sweetness", fmt.Sprintf("max sweetness %d out of range [1,10]", f.MaxSweetness))
	}
	if f.CaffeineMinMg != nil && *f.CaffeineMinMg < 0 {
		return NewFieldError(ModuleFilter, "caffeine_min_mg", "caffeine minimum must be >= 0")
	}
	if f.CaffeineMaxMg != nil && *f.CaffeineMaxMg < 0 {
		return NewFieldError(ModuleFilter, "caffeine_max_mg", "caffeine maximum must be >= 0")
	}
	if f.CaffeineMinMg != nil && f.CaffeineMaxMg != nil && *f.CaffeineMinMg > *f.CaffeineMaxMg {
		return NewFieldError(ModuleFilter, "caffeine_min_mg", "caffeine minimum exceeds maximum")
	}
	return nil
}

// Excludes 判断饮品是否被此过滤器排除。停用的过滤器不排除任何饮品。
func (f *TasteFilter) Excludes(d *Drink) bool {
	if f == nil || !f.Active || d == nil {
		return false
	}
	if f.BudgetTier != "" && !d.PriceTier.LessOrEqual(f.BudgetTier) {
		return true
	}
	if f.MaxSweetness != 0 && d.Sweetness > f.MaxSweetness {
		return true
	}
	if f.CaffeineMinMg != nil && d.CaffeineMg < *f.CaffeineMinMg {
		return true
	}
	if f.CaffeineMaxMg != nil && d.CaffeineMg > *f.CaffeineMaxMg {
		return true
	}
	for _, cat := range f.ExcludedCategories {
		if d.Category == cat {
			return true
		}
	}
	for _, ing := range f.ExcludedIngredients {
		if d.HasIngredient(ing) {
			return true
		}
	}
	return false
}
