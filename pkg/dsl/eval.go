package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/sipkit/sipkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("item", cel.DynType),
		cel.Variable("drink", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是排除规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，具有类型安全、高性能、线程安全等特性。
//
// 表达式语法（CEL 标准语法）：
//   - 饮品属性：drink.category == "soda" / drink.sugar_g > 40.0
//   - 分数：item.score > 0.7 / item.features.content_score >= 0.5
//   - 标签：label.recall_source.contains("popular")
//   - 上下文：rctx.scene == "landing" && !rctx.age_verified
//   - 逻辑组合：drink.is_alcoholic && drink.alcohol_pct > 20.0
//
// 示例：
//   - `drink.category == "energy" && drink.caffeine_mg > 300.0` → 排除高咖啡因能量饮料
//   - `drink.sugar_g > 50.0 && rctx.scene == "landing"` → 首页不出超高糖饮品
//   - `label.recall_source != null && label.recall_source.contains("popular")` → 仅作用于热门召回
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 表达式使用 CEL (Common Expression Language) 语法。
//
// 注意：CEL 访问不存在的 key 会报错，存在性检查用 label.key != null。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	// 编译表达式
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	// 准备输入数据
	input := e.buildInput()

	// 执行表达式
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	// 构建 label map
	labels := make(map[string]interface{})
	for k, v := range e.item.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
	}

	// 构建 item map
	item := map[string]interface{}{
		"id":       e.item.ID,
		"score":    e.item.Score,
		"features": e.item.Features,
		"meta":     map[string]interface{}{},
		"labels":   labels,
	}

	// 构建 drink map（目录记录挂在 Meta 上时展开为属性）
	drink := map[string]interface{}{}
	if d := e.item.Drink(); d != nil {
		drink = map[string]interface{}{
			"id":           d.ID,
			"name":         d.Name,
			"category":     d.Category,
			"price_tier":   string(d.PriceTier),
			"sweetness":    d.Sweetness,
			"caffeine_mg":  d.CaffeineMg,
			"sugar_g":      d.SugarG,
			"calories":     d.Calories,
			"is_alcoholic": d.IsAlcoholic,
			"alcohol_pct":  d.AlcoholPct,
			"tags":         d.Tags,
		}
	}

	// 构建 rctx map（独立组 Pipeline 时 rctx 可能为 nil）
	rctx := map[string]interface{}{}
	if e.rctx != nil {
		rctx = map[string]interface{}{
			"user_id":      e.rctx.UserID,
			"scene":        e.rctx.Scene,
			"mode":         string(e.rctx.Mode),
			"age_verified": e.rctx.AgeVerified,
			"params":       e.rctx.Params,
		}
	}

	// label 顶层访问器：label.recall_source 直接取 value
	// 注意：CEL 访问不存在的 key 会报错，所以用 label.key != null 检查存在性
	labelAccessor := make(map[string]interface{})
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]interface{})["value"]
	}

	return map[string]interface{}{
		"item":  item,
		"drink": drink,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
