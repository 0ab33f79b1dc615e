package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/store"
)

type sliceCatalog struct {
	drinks []*core.Drink
}

func (c *sliceCatalog) Name() string { return "slice" }

func (c *sliceCatalog) Drink(ctx context.Context, drinkID string) (*core.Drink, error) {
	for _, d := range c.drinks {
		if d.ID == drinkID {
			return d, nil
		}
	}
	return nil, core.NewNotFoundError(core.ModuleCatalog, "drink not found")
}

func (c *sliceCatalog) Drinks(ctx context.Context) ([]*core.Drink, error) {
	out := make([]*core.Drink, len(c.drinks))
	copy(out, c.drinks)
	return out, nil
}

func recallDrink(id string) *core.Drink {
	return &core.Drink{
		ID:        id,
		Name:      "drink " + id,
		Category:  "tea",
		PriceTier: core.PriceTierLow,
		Sweetness: 4,
		UpdatedAt: time.Unix(1700000000, 0),
	}
}

func TestCatalog_Recall(t *testing.T) {
	cat := &Catalog{Provider: &sliceCatalog{drinks: []*core.Drink{
		recallDrink("b"), recallDrink("a"), recallDrink("c"),
	}}}

	items, err := cat.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Recall() returned %d items, want 3", len(items))
	}
	// Sorted by drink id for reproducible candidate order.
	if items[0].ID != "a" || items[1].ID != "b" || items[2].ID != "c" {
		t.Errorf("Recall() order = [%s %s %s], want [a b c]", items[0].ID, items[1].ID, items[2].ID)
	}
	if items[0].Drink() == nil {
		t.Errorf("item should carry the drink record in Meta")
	}
	if lbl, ok := items[0].Labels["recall_source"]; !ok || lbl.Value != "recall.catalog" {
		t.Errorf("recall_source label = %v, want recall.catalog", lbl)
	}
}

func TestPopular_RecallFromZSet(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	ms.ZAdd(ctx, "popular:drinks", 30, "a")
	ms.ZAdd(ctx, "popular:drinks", 90, "b")
	ms.ZAdd(ctx, "popular:drinks", 60, "c")

	p := &Popular{
		Store:    ms,
		Provider: &sliceCatalog{drinks: []*core.Drink{recallDrink("a"), recallDrink("b"), recallDrink("c")}},
		Key:      "popular:drinks",
	}

	items, err := p.Recall(ctx, nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Recall() returned %d items, want 3", len(items))
	}
	// ZRange is descending by popularity score.
	if items[0].ID != "b" || items[1].ID != "c" || items[2].ID != "a" {
		t.Errorf("Recall() order = [%s %s %s], want [b c a]", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestPopular_SkipsRetiredDrinks(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	ms.ZAdd(ctx, "popular:drinks", 90, "gone")
	ms.ZAdd(ctx, "popular:drinks", 60, "a")

	p := &Popular{
		Store:    ms,
		Provider: &sliceCatalog{drinks: []*core.Drink{recallDrink("a")}},
		Key:      "popular:drinks",
	}

	items, err := p.Recall(ctx, nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("Recall() = %v, want only the still listed drink a", items)
	}
}

func TestPopular_FallbackIDs(t *testing.T) {
	p := &Popular{
		Provider: &sliceCatalog{drinks: []*core.Drink{recallDrink("x")}},
		IDs:      []string{"x"},
	}

	items, err := p.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "x" {
		t.Errorf("Recall() = %v, want fallback drink x", items)
	}
}

func TestUserHistory_Recall(t *testing.T) {
	base := time.Unix(1700000000, 0)
	ints := &staticInteractions{records: []*core.Interaction{
		{UserID: "u1", DrinkID: "old", TimesConsumed: 2, UpdatedAt: base},
		{UserID: "u1", DrinkID: "recent", TimesConsumed: 1, UpdatedAt: base.Add(time.Hour)},
		{UserID: "u1", DrinkID: "banned", TimesConsumed: 9, IsNotForMe: true, UpdatedAt: base.Add(2 * time.Hour)},
		{UserID: "u1", DrinkID: "untouched", UpdatedAt: base},
	}}

	h := &UserHistory{
		Interactions: ints,
		Provider: &sliceCatalog{drinks: []*core.Drink{
			recallDrink("old"), recallDrink("recent"), recallDrink("banned"), recallDrink("untouched"),
		}},
	}

	items, err := h.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Recall() returned %d items, want 2 (not_for_me and untouched dropped)", len(items))
	}
	if items[0].ID != "recent" || items[1].ID != "old" {
		t.Errorf("Recall() order = [%s %s], want newest first [recent old]", items[0].ID, items[1].ID)
	}
}

func TestUserHistory_FavoritesOnly(t *testing.T) {
	ints := &staticInteractions{records: []*core.Interaction{
		{UserID: "u1", DrinkID: "fav", IsFavorite: true},
		{UserID: "u1", DrinkID: "sipped", TimesConsumed: 3},
	}}

	h := &UserHistory{
		Interactions:  ints,
		Provider:      &sliceCatalog{drinks: []*core.Drink{recallDrink("fav"), recallDrink("sipped")}},
		FavoritesOnly: true,
	}

	items, err := h.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "fav" {
		t.Errorf("Recall() = %v, want only the favorite", items)
	}
}

type staticInteractions struct {
	records []*core.Interaction
}

func (s *staticInteractions) UserInteractions(ctx context.Context, userID string) ([]*core.Interaction, error) {
	out := make([]*core.Interaction, 0, len(s.records))
	for _, in := range s.records {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *staticInteractions) CommunityInteractions(ctx context.Context, userID string) ([]*core.Interaction, error) {
	return s.records, nil
}

func (s *staticInteractions) Feedback(ctx context.Context, userID string) ([]*core.Feedback, error) {
	return nil, nil
}

type stubSource struct {
	name  string
	items []*core.Item
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestFanout_MergeKeepsPriorityOrder(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "first", items: []*core.Item{core.NewItem("a"), core.NewItem("b")}},
			&stubSource{name: "second", items: []*core.Item{core.NewItem("b"), core.NewItem("c")}},
		},
		Dedup: true,
	}

	items, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Process() returned %d items, want 3 after dedup", len(items))
	}
	if items[0].ID != "a" || items[1].ID != "b" || items[2].ID != "c" {
		t.Errorf("merge order = [%s %s %s], want [a b c]", items[0].ID, items[1].ID, items[2].ID)
	}
	// The duplicate b keeps the higher priority source and accumulates the second.
	if lbl := items[1].Labels["recall_source"]; !lbl.Contains("first") {
		t.Errorf("duplicate lost the higher priority source: %v", lbl)
	}
}

func TestFanout_SourceErrorDoesNotAbort(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&stubSource{name: "broken", err: errors.New("boom")},
			&stubSource{name: "ok", items: []*core.Item{core.NewItem("a")}},
		},
	}

	items, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("Process() = %v, want the healthy source result", items)
	}
}
