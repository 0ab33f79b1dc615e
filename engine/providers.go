package engine

import (
	"context"
	"fmt"

	"github.com/sipkit/sipkit/core"
)

// 内存切片实现的数据接入，面向两类场景：
//   - 单元测试与示例：不需要任何外部存储
//   - 小目录嵌入式集成：菜单在进程内维护，直接传切片
//
// 生产环境通常换成 store.StoreCatalog / store.StoreProfiles /
// store.StoreInteractions（Redis 后端见 store.RedisStore）。

// SliceCatalog 用内存切片实现 core.CatalogProvider。
type SliceCatalog struct {
	Records []*core.Drink
}

func (c *SliceCatalog) Name() string { return "slice_catalog" }

func (c *SliceCatalog) Drink(_ context.Context, drinkID string) (*core.Drink, error) {
	for _, d := range c.Records {
		if d != nil && d.ID == drinkID {
			return d, nil
		}
	}
	return nil, core.NewNotFoundError(core.ModuleCatalog, fmt.Sprintf("drink %q not found", drinkID))
}

func (c *SliceCatalog) Drinks(_ context.Context) ([]*core.Drink, error) {
	out := make([]*core.Drink, 0, len(c.Records))
	for _, d := range c.Records {
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// SliceProfiles 用内存切片实现 core.ProfileProvider。
// 无记录返回 (nil, nil)：冷启动不是错误。
type SliceProfiles struct {
	Preferences  []*core.Preference
	TasteFilters []*core.TasteFilter
}

func (p *SliceProfiles) Preference(_ context.Context, userID string) (*core.Preference, error) {
	for _, pref := range p.Preferences {
		if pref != nil && pref.UserID == userID {
			return pref, nil
		}
	}
	return nil, nil
}

func (p *SliceProfiles) TasteFilter(_ context.Context, userID string) (*core.TasteFilter, error) {
	for _, tf := range p.TasteFilters {
		if tf != nil && tf.UserID == userID {
			return tf, nil
		}
	}
	return nil, nil
}

// SliceInteractions 用内存切片实现 core.InteractionProvider。
// CommunityInteractions 返回全部记录：切片本身就是圈定好的人群快照。
type SliceInteractions struct {
	Records   []*core.Interaction
	Feedbacks []*core.Feedback
}

func (s *SliceInteractions) UserInteractions(_ context.Context, userID string) ([]*core.Interaction, error) {
	var out []*core.Interaction
	for _, in := range s.Records {
		if in != nil && in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *SliceInteractions) CommunityInteractions(_ context.Context, _ string) ([]*core.Interaction, error) {
	out := make([]*core.Interaction, 0, len(s.Records))
	for _, in := range s.Records {
		if in != nil {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *SliceInteractions) Feedback(_ context.Context, userID string) ([]*core.Feedback, error) {
	var out []*core.Feedback
	for _, fb := range s.Feedbacks {
		if fb != nil && fb.UserID == userID {
			out = append(out, fb)
		}
	}
	return out, nil
}

var (
	_ core.CatalogProvider     = (*SliceCatalog)(nil)
	_ core.ProfileProvider     = (*SliceProfiles)(nil)
	_ core.InteractionProvider = (*SliceInteractions)(nil)
)
