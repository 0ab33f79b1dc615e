package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sipkit/sipkit/core"
)

func f64(v float64) *float64 { return &v }

var catalogStamp = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// 固定目录：drink_x 贴合测试用户偏好，drink_y 各维度都超，
// drink_z 清淡便宜，drink_stout 是酒精饮品（年龄门控用）。
func testDrinks() []*core.Drink {
	return []*core.Drink{
		{
			ID: "drink_x", Name: "Honey Oolong", Category: "tea",
			PriceTier: core.PriceTierMid, Sweetness: 6,
			CaffeineMg: 180, SugarG: 18, Calories: 120,
			UpdatedAt: catalogStamp,
		},
		{
			ID: "drink_y", Name: "Triple Mocha", Category: "coffee",
			PriceTier: core.PriceTierHigh, Sweetness: 9,
			CaffeineMg: 300, SugarG: 45, Calories: 420,
			UpdatedAt: catalogStamp,
		},
		{
			ID: "drink_z", Name: "Cucumber Fizz", Category: "soda",
			PriceTier: core.PriceTierLow, Sweetness: 3,
			CaffeineMg: 0, SugarG: 8, Calories: 60,
			UpdatedAt: catalogStamp,
		},
		{
			ID: "drink_stout", Name: "Coffee Stout", Category: "beer",
			PriceTier: core.PriceTierMid, Sweetness: 4,
			CaffeineMg: 50, SugarG: 10, Calories: 210,
			IsAlcoholic: true, AlcoholPct: 5.6,
			UpdatedAt: catalogStamp,
		},
	}
}

func testEngine() *Engine {
	return New(
		&SliceCatalog{Records: testDrinks()},
		WithProfiles(&SliceProfiles{
			Preferences: []*core.Preference{
				{UserID: "taster", Sweetness: 6, CaffeineLimit: f64(200), PriceTier: core.PriceTierMid},
				{UserID: "u1", Sweetness: 5},
			},
			TasteFilters: []*core.TasteFilter{
				{UserID: "saver", BudgetTier: core.PriceTierLow, Active: true},
			},
		}),
		WithInteractions(&SliceInteractions{
			Records: []*core.Interaction{
				{UserID: "u1", DrinkID: "drink_x", IsFavorite: true, UpdatedAt: catalogStamp},
				{UserID: "u2", DrinkID: "drink_x", IsFavorite: true, UpdatedAt: catalogStamp},
				{UserID: "u2", DrinkID: "drink_z", IsFavorite: true, UpdatedAt: catalogStamp},
				{UserID: "marta", DrinkID: "drink_y", IsNotForMe: true, UpdatedAt: catalogStamp},
			},
		}),
	)
}

func recByID(recs []Recommendation, id string) *Recommendation {
	for i := range recs {
		if recs[i].Drink != nil && recs[i].Drink.ID == id {
			return &recs[i]
		}
	}
	return nil
}

func TestRecommendForUser_Validation(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	if _, err := eng.RecommendForUser(ctx, "", Options{}); !core.IsInvalidInput(err) {
		t.Errorf("空用户 ID 应报 INVALID_INPUT，得到 %v", err)
	}
	if _, err := eng.RecommendForUser(ctx, "taster", Options{Mode: "psychic"}); !core.IsInvalidInput(err) {
		t.Errorf("未知模式应报 INVALID_INPUT，得到 %v", err)
	}
	if _, err := eng.RecommendForUser(ctx, "taster", Options{Mode: core.ModeSimilar}); !core.IsInvalidInput(err) {
		t.Errorf("similar 模式应被拒绝，得到 %v", err)
	}

	bare := New(nil)
	if _, err := bare.RecommendForUser(ctx, "taster", Options{}); !core.IsUnavailable(err) {
		t.Errorf("无目录数据源应报 UNAVAILABLE，得到 %v", err)
	}
}

func TestMatchPreferences_ContentScenario(t *testing.T) {
	eng := testEngine()
	recs, err := eng.MatchPreferences(context.Background(), "taster", Options{})
	if err != nil {
		t.Fatalf("MatchPreferences: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("期望非空结果")
	}

	x := recByID(recs, "drink_x")
	y := recByID(recs, "drink_y")
	if x == nil || y == nil {
		t.Fatalf("drink_x / drink_y 应在结果中，得到 %+v", recs)
	}

	// 偏好 {甜度 6, 咖啡因上限 200, 档位 $$} 对 drink_x 是完美匹配
	if math.Abs(x.Score-1.0) > 1e-9 {
		t.Errorf("drink_x 应得满分，得到 %v", x.Score)
	}
	if x.Score <= y.Score {
		t.Errorf("drink_x(%v) 应高于 drink_y(%v)", x.Score, y.Score)
	}
	if y.Score >= 0.6 {
		t.Errorf("drink_y 超限应被明显惩罚，得到 %v", y.Score)
	}

	// 分项明细随结果返回
	if _, ok := x.Breakdown["match_sweetness"]; !ok {
		t.Errorf("期望返回 match_sweetness 分项，得到 %v", x.Breakdown)
	}
	if len(x.Explanations) == 0 {
		t.Errorf("满分匹配应有解释短语")
	}

	// 排序第一名是 drink_x
	if recs[0].Drink.ID != "drink_x" {
		t.Errorf("第一名应是 drink_x，得到 %s", recs[0].Drink.ID)
	}
}

func TestRecommendForUser_ScoresWithinBounds(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	for _, mode := range []core.Mode{core.ModeContent, core.ModeCollaborative, core.ModeHybrid} {
		for _, user := range []string{"taster", "u1", "u_cold"} {
			recs, err := eng.RecommendForUser(ctx, user, Options{Mode: mode, AgeVerified: true})
			if err != nil {
				t.Fatalf("mode=%s user=%s: %v", mode, user, err)
			}
			for _, rec := range recs {
				if rec.Score < 0 || rec.Score > 1 {
					t.Errorf("mode=%s user=%s drink=%s 分数越界: %v", mode, user, rec.Drink.ID, rec.Score)
				}
			}
		}
	}
}

func TestRecommendForUser_ColdStart(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	t.Run("content neutral", func(t *testing.T) {
		recs, err := eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeContent})
		if err != nil {
			t.Fatalf("RecommendForUser: %v", err)
		}
		if len(recs) == 0 {
			t.Fatal("冷启动仍应返回目录候选")
		}
		for _, rec := range recs {
			if math.Abs(rec.Score-0.5) > 1e-9 {
				t.Errorf("冷启动内容分应为 0.5，%s 得到 %v", rec.Drink.ID, rec.Score)
			}
		}
	})

	t.Run("collaborative empty", func(t *testing.T) {
		recs, err := eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeCollaborative})
		if err != nil {
			t.Fatalf("RecommendForUser: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("零交互用户的纯协同模式应返回空列表，得到 %d 条", len(recs))
		}
	})

	t.Run("hybrid equals content", func(t *testing.T) {
		hybrid, err := eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeHybrid})
		if err != nil {
			t.Fatalf("hybrid: %v", err)
		}
		content, err := eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeContent})
		if err != nil {
			t.Fatalf("content: %v", err)
		}
		if len(hybrid) != len(content) {
			t.Fatalf("降级混合应与内容模式等长: %d vs %d", len(hybrid), len(content))
		}
		for i := range hybrid {
			if hybrid[i].Drink.ID != content[i].Drink.ID {
				t.Errorf("第 %d 名不一致: hybrid=%s content=%s", i, hybrid[i].Drink.ID, content[i].Drink.ID)
			}
			if math.Abs(hybrid[i].Score-content[i].Score) > 1e-9 {
				t.Errorf("第 %d 名分数不一致: hybrid=%v content=%v", i, hybrid[i].Score, content[i].Score)
			}
		}
	})
}

func TestRecommendForUser_NeighborContribution(t *testing.T) {
	eng := testEngine()
	recs, err := eng.RecommendForUser(context.Background(), "u1", Options{Mode: core.ModeHybrid})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}

	// u2 与 u1 同收藏 drink_x，u2 额外收藏 drink_z：
	// drink_z 应获得来自 u2 的协同贡献
	z := recByID(recs, "drink_z")
	if z == nil {
		t.Fatalf("drink_z 应在结果中，得到 %+v", recs)
	}
	if z.Breakdown["collab_score"] <= 0 {
		t.Errorf("drink_z 协同分应大于 0，得到 %v", z.Breakdown["collab_score"])
	}
	if _, ok := z.Breakdown["hybrid_score"]; !ok {
		t.Errorf("混合模式应写 hybrid_score，得到 %v", z.Breakdown)
	}

	// 邻居亲和度 0.5、相似度 1.0 → 预测协同分 0.5
	if math.Abs(z.Breakdown["collab_score"]-0.5) > 1e-9 {
		t.Errorf("drink_z 协同分应为 0.5，得到 %v", z.Breakdown["collab_score"])
	}
}

func TestRecommendForUser_NotForMeExcluded(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	for _, mode := range []core.Mode{core.ModeContent, core.ModeHybrid} {
		recs, err := eng.RecommendForUser(ctx, "marta", Options{Mode: mode})
		if err != nil {
			t.Fatalf("mode=%s: %v", mode, err)
		}
		if recByID(recs, "drink_y") != nil {
			t.Errorf("mode=%s: 标记 not_for_me 的 drink_y 不应出现", mode)
		}
	}
}

func TestRecommendForUser_AlcoholGate(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	recs, err := eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeContent})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if recByID(recs, "drink_stout") != nil {
		t.Errorf("未过年龄核验不应返回酒精饮品")
	}

	recs, err = eng.RecommendForUser(ctx, "u_cold", Options{Mode: core.ModeContent, AgeVerified: true})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if recByID(recs, "drink_stout") == nil {
		t.Errorf("过了年龄核验应允许酒精饮品")
	}
}

func TestRecommendForUser_TasteFilter(t *testing.T) {
	eng := testEngine()
	recs, err := eng.RecommendForUser(context.Background(), "saver", Options{Mode: core.ModeContent})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("预算过滤后仍应有低价候选")
	}
	for _, rec := range recs {
		if rec.Drink.PriceTier != core.PriceTierLow {
			t.Errorf("预算 $ 之外的 %s (%s) 不应出现", rec.Drink.ID, rec.Drink.PriceTier)
		}
	}
}

func TestRecommendForUser_Idempotent(t *testing.T) {
	eng := testEngine()
	ctx := context.Background()

	first, err := eng.RecommendForUser(ctx, "u1", Options{Mode: core.ModeHybrid, AgeVerified: true})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := eng.RecommendForUser(ctx, "u1", Options{Mode: core.ModeHybrid, AgeVerified: true})
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("两次调用条数不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Drink.ID != second[i].Drink.ID {
			t.Errorf("第 %d 名不一致: %s vs %s", i, first[i].Drink.ID, second[i].Drink.ID)
		}
		if math.Abs(first[i].Score-second[i].Score) > 1e-12 {
			t.Errorf("第 %d 名分数不一致: %v vs %v", i, first[i].Score, second[i].Score)
		}
	}
}

func TestRecommendForUser_Limit(t *testing.T) {
	eng := testEngine()
	recs, err := eng.RecommendForUser(context.Background(), "u_cold", Options{Mode: core.ModeContent, Limit: 2})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("期望截断到 2 条，得到 %d", len(recs))
	}
}

func TestSimilarDrinks(t *testing.T) {
	catalog := &SliceCatalog{Records: []*core.Drink{
		{
			ID: "a_latte", Name: "Latte", Category: "coffee",
			PriceTier: core.PriceTierMid, Sweetness: 5,
			CaffeineMg: 150, SugarG: 20, Calories: 180,
			Tags: []string{"classic"}, UpdatedAt: catalogStamp,
		},
		{
			ID: "b_flatwhite", Name: "Flat White", Category: "coffee",
			PriceTier: core.PriceTierMid, Sweetness: 5,
			CaffeineMg: 155, SugarG: 19, Calories: 175,
			Tags: []string{"classic"}, UpdatedAt: catalogStamp,
		},
		{
			ID: "c_cola", Name: "Cherry Cola", Category: "soda",
			PriceTier: core.PriceTierLow, Sweetness: 10,
			CaffeineMg: 30, SugarG: 45, Calories: 160,
			Tags: []string{"fizzy"}, UpdatedAt: catalogStamp,
		},
	}}
	eng := New(catalog)
	ctx := context.Background()

	t.Run("ranking and self exclusion", func(t *testing.T) {
		sims, err := eng.SimilarDrinks(ctx, "a_latte", Options{})
		if err != nil {
			t.Fatalf("SimilarDrinks: %v", err)
		}
		if len(sims) != 2 {
			t.Fatalf("期望 2 条结果，得到 %d", len(sims))
		}
		if sims[0].Drink.ID != "b_flatwhite" {
			t.Errorf("近似饮品应排第一，得到 %s", sims[0].Drink.ID)
		}
		for _, s := range sims {
			if s.Drink.ID == "a_latte" {
				t.Errorf("结果不应包含源饮品自身")
			}
			if s.Similarity < 0 || s.Similarity > 1 {
				t.Errorf("%s 相似度越界: %v", s.Drink.ID, s.Similarity)
			}
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		fromA, err := eng.SimilarDrinks(ctx, "a_latte", Options{})
		if err != nil {
			t.Fatalf("SimilarDrinks(a): %v", err)
		}
		fromB, err := eng.SimilarDrinks(ctx, "b_flatwhite", Options{})
		if err != nil {
			t.Fatalf("SimilarDrinks(b): %v", err)
		}

		var ab, ba float64
		for _, s := range fromA {
			if s.Drink.ID == "b_flatwhite" {
				ab = s.Similarity
			}
		}
		for _, s := range fromB {
			if s.Drink.ID == "a_latte" {
				ba = s.Similarity
			}
		}
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("相似度应对称: sim(a,b)=%v sim(b,a)=%v", ab, ba)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		if _, err := eng.SimilarDrinks(ctx, "ghost", Options{}); !core.IsNotFound(err) {
			t.Errorf("未知源饮品应报 NOT_FOUND，得到 %v", err)
		}
	})

	t.Run("empty source id", func(t *testing.T) {
		if _, err := eng.SimilarDrinks(ctx, "", Options{}); !core.IsInvalidInput(err) {
			t.Errorf("空源饮品 ID 应报 INVALID_INPUT，得到 %v", err)
		}
	})
}

func TestRecommendForUser_FeedbackAdjustment(t *testing.T) {
	catalog := &SliceCatalog{Records: testDrinks()}
	profiles := &SliceProfiles{Preferences: []*core.Preference{
		{UserID: "fiona", Sweetness: 6, CaffeineLimit: f64(200), PriceTier: core.PriceTierMid},
	}}

	plain := New(catalog, WithProfiles(profiles), WithInteractions(&SliceInteractions{}))
	adjusted := New(catalog, WithProfiles(profiles), WithInteractions(&SliceInteractions{
		Feedbacks: []*core.Feedback{
			{UserID: "fiona", DrinkID: "drink_x", Type: core.FeedbackTooSweet, CreatedAt: catalogStamp},
		},
	}))

	ctx := context.Background()
	before, err := plain.RecommendForUser(ctx, "fiona", Options{Mode: core.ModeContent})
	if err != nil {
		t.Fatalf("无反馈请求: %v", err)
	}
	after, err := adjusted.RecommendForUser(ctx, "fiona", Options{Mode: core.ModeContent})
	if err != nil {
		t.Fatalf("有反馈请求: %v", err)
	}

	xBefore := recByID(before, "drink_x")
	xAfter := recByID(after, "drink_x")
	if xBefore == nil || xAfter == nil {
		t.Fatal("drink_x 应在两次结果中")
	}
	if math.Abs(xAfter.Score-xBefore.Score*0.6) > 1e-9 {
		t.Errorf("too_sweet 反馈应把分数压到 0.6 倍: %v -> %v", xBefore.Score, xAfter.Score)
	}
	if math.Abs(xAfter.Breakdown["feedback_factor"]-0.6) > 1e-9 {
		t.Errorf("期望 feedback_factor=0.6，得到 %v", xAfter.Breakdown["feedback_factor"])
	}
}

type stubFeatures struct {
	values map[string]map[string]any
}

func (s *stubFeatures) DrinkFeatures(_ context.Context, drinkIDs, _ []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, id := range drinkIDs {
		if v, ok := s.values[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func TestRecommendForUser_OnlineFeatures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OnlineFeatures = []string{"drink_stats:popularity"}

	eng := New(
		&SliceCatalog{Records: testDrinks()},
		WithConfig(cfg),
		WithDrinkFeatures(&stubFeatures{values: map[string]map[string]any{
			"drink_x": {"drink_stats:popularity": 0.91},
		}}),
	)

	recs, err := eng.RecommendForUser(context.Background(), "u_cold", Options{Mode: core.ModeContent})
	if err != nil {
		t.Fatalf("RecommendForUser: %v", err)
	}
	x := recByID(recs, "drink_x")
	if x == nil {
		t.Fatal("drink_x 应在结果中")
	}
	if math.Abs(x.Breakdown["online_popularity"]-0.91) > 1e-9 {
		t.Errorf("在线特征应并入分数拆解，得到 %v", x.Breakdown)
	}
}
