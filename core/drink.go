package core

import (
	"fmt"
	"sort"
	"time"
)

// PriceTier 是价格档位（有序："$" < "$$" < "$$$"）。
type PriceTier string

const (
	PriceTierLow  PriceTier = "$"
	PriceTierMid  PriceTier = "$$"
	PriceTierHigh PriceTier = "$$$"
)

// Valid 判断档位是否在合法集合内（空值视为未设置，不合法）。
func (t PriceTier) Valid() bool {
	switch t {
	case PriceTierLow, PriceTierMid, PriceTierHigh:
		return true
	}
	return false
}

// Ordinal 返回档位的序数编码：$ → 0.0，$$ → 0.5，$$$ → 1.0。
func (t PriceTier) Ordinal() (float64, bool) {
	switch t {
	case PriceTierLow:
		return 0.0, true
	case PriceTierMid:
		return 0.5, true
	case PriceTierHigh:
		return 1.0, true
	}
	return 0, false
}

// LessOrEqual 按档位顺序比较（用于预算过滤）。
func (t PriceTier) LessOrEqual(other PriceTier) bool {
	a, oka := t.Ordinal()
	b, okb := other.Ordinal()
	return oka && okb && a <= b
}

// Ingredient 是饮品配料；IsAllergen 标记常见过敏原成分。
type Ingredient struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity,omitempty"`
	IsAllergen bool   `json:"is_allergen,omitempty"`
}

// Drink 是饮品目录记录的引擎侧视图。
//
// 设计原则：
//   - 引擎在单次请求内将其视为不可变快照，不做任何回写
//   - 目录数据由外部协作方（catalog collaborator）提供与维护
//   - UpdatedAt 用作特征缓存的版本戳，目录更新后缓存按时间戳失效
type Drink struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category"`   // 开放集合的类目标签（coffee / tea / soda / ...）
	PriceTier   PriceTier    `json:"price_tier"` // $ / $$ / $$$
	Sweetness   int          `json:"sweetness"`  // 1..10
	Bitterness  int          `json:"bitterness,omitempty"` // 1..10，0 = 目录未提供（可选属性，仅偏好匹配使用）
	CaffeineMg  float64      `json:"caffeine_mg"`          // 咖啡因含量（毫克，>= 0）
	SugarG      float64      `json:"sugar_g"`              // 含糖量（克，>= 0）
	Calories    float64      `json:"calories"`             // 热量（>= 0）
	IsAlcoholic bool         `json:"is_alcoholic"`
	AlcoholPct  float64      `json:"alcohol_pct,omitempty"` // 酒精度（0..100，非酒精饮品为 0）
	Ingredients []Ingredient `json:"ingredients,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate 校验领域约束。越界值返回 INVALID_INPUT 并指明字段；
// 归一化阶段的裁剪（目录范围外的合法值）不属于校验失败。
func (d *Drink) Validate() error {
	if d == nil {
		return NewFieldError(ModuleCatalog, "drink", "drink is nil")
	}
	if d.ID == "" {
		return NewFieldError(ModuleCatalog, "id", "drink id is required")
	}
	if d.Sweetness < 1 || d.Sweetness > 10 {
		return NewFieldError(ModuleCatalog, "sweetness", fmt.Sprintf("sweetness %d out of range [1,10]", d.Sweetness))
	}
	if d.Bitterness != 0 && (d.Bitterness < 1 || d.Bitterness > 10) {
		return NewFieldError(ModuleCatalog, "bitterness", fmt.Sprintf("bitterness %d out of range [1,10]", d.Bitterness))
	}
	if d.CaffeineMg < 0 {
		return NewFieldError(ModuleCatalog, "caffeine_mg", fmt.Sprintf("caffeine %.2f must be >= 0", d.CaffeineMg))
	}
	if d.SugarG < 0 {
		return NewFieldError(ModuleCatalog, "sugar_g", fmt.Sprintf("sugar %.2f must be >= 0", d.SugarG))
	}
	if d.Calories < 0 {
		return NewFieldError(ModuleCatalog, "calories", fmt.Sprintf("calories %.2f must be >= 0", d.Calories))
	}
	if d.AlcoholPct < 0 || d.AlcoholPct > 100 {
		return NewFieldError(ModuleCatalog, "alcohol_pct", fmt.Sprintf("alcohol %.2f out of range [0,100]", d.AlcoholPct))
	}
	// 酒精度 > 0 必须同时置 IsAlcoholic；反向允许 0 度的"无醇"标记
	if d.AlcoholPct > 0 && !d.IsAlcoholic {
		return NewFieldError(ModuleCatalog, "is_alcoholic", "alcohol content > 0 requires alcoholic flag")
	}
	if !d.PriceTier.Valid() {
		return NewFieldError(ModuleCatalog, "price_tier", fmt.Sprintf("unknown price tier %q", d.PriceTier))
	}
	return nil
}

// Allergens 返回去重、升序排列的过敏原成分名（供 bitset 编码与排除过滤）。
func (d *Drink) Allergens() []string {
	seen := make(map[string]struct{}, len(d.Ingredients))
	out := make([]string, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if !ing.IsAllergen || ing.Name == "" {
			continue
		}
		if _, ok := seen[ing.Name]; ok {
			continue
		}
		seen[ing.Name] = struct{}{}
		out = append(out, ing.Name)
	}
	sort.Strings(out)
	return out
}

// HasIngredient 判断是否含有指定配料（按名称精确匹配）。
func (d *Drink) HasIngredient(name string) bool {
	for _, ing := range d.Ingredients {
		if ing.Name == name {
			return true
		}
	}
	return false
}

// HasTag 判断是否带有指定标签。
func (d *Drink) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
