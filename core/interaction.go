package core

import (
	"fmt"
	"time"
)

// Interaction 是用户与饮品的交互记录，键为 (UserID, DrinkID)。
//
// 信号语义：
//   - TimesConsumed 单调不减（历史信号，不删除）
//   - Rating 0 表示未评分，不表示差评
//   - IsNotForMe 是显式负反馈，覆盖其他一切信号（排除 + 亲和度置 0）
//   - IsFavorite 与 IsNotForMe 同时为真属于不一致数据，引擎按排除处理
type Interaction struct {
	UserID        string    `json:"user_id"`
	DrinkID       string    `json:"drink_id"`
	TimesConsumed int       `json:"times_consumed,omitempty"`
	IsFavorite    bool      `json:"is_favorite,omitempty"`
	Rating        float64   `json:"rating,omitempty"` // 0..5，0 = 未评分
	IsNotForMe    bool      `json:"is_not_for_me,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate 校验交互记录；越界值返回 INVALID_INPUT 并指明字段。
func (i *Interaction) Validate() error {
	if i == nil {
		return NewFieldError(ModuleInteraction, "interaction", "interaction is nil")
	}
	if i.UserID == "" {
		return NewFieldError(ModuleInteraction, "user_id", "user id is required")
	}
	if i.DrinkID == "" {
		return NewFieldError(ModuleInteraction, "drink_id", "drink id is required")
	}
	if i.TimesConsumed < 0 {
		return NewFieldError(ModuleInteraction, "times_consumed", fmt.Sprintf("times consumed %d must be >= 0", i.TimesConsumed))
	}
	if i.Rating < 0 || i.Rating > 5 {
		return NewFieldError(ModuleInteraction, "rating", fmt.Sprintf("rating %.2f out of range [0,5]", i.Rating))
	}
	return nil
}

// FeedbackType 是用户对推荐结果的反馈类型。
type FeedbackType string

const (
	FeedbackNotForMe     FeedbackType = "not_for_me"
	FeedbackLoveIt       FeedbackType = "love_it"
	FeedbackTooSweet     FeedbackType = "too_sweet"
	FeedbackTooBitter    FeedbackType = "too_bitter"
	FeedbackTooExpensive FeedbackType = "too_expensive"
	FeedbackPerfect      FeedbackType = "perfect"
)

// Valid 判断反馈类型是否合法。
func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackNotForMe, FeedbackLoveIt, FeedbackTooSweet,
		FeedbackTooBitter, FeedbackTooExpensive, FeedbackPerfect:
		return true
	}
	return false
}

// Feedback 是一条推荐反馈记录，用于排序阶段的分数微调。
type Feedback struct {
	UserID    string       `json:"user_id"`
	DrinkID   string       `json:"drink_id"`
	Type      FeedbackType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Validate 校验反馈记录。
func (f *Feedback) Validate() error {
	if f == nil {
		return NewFieldError(ModuleInteraction, "feedback", "feedback is nil")
	}
	if f.UserID == "" {
		return NewFieldError(ModuleInteraction, "user_id", "user id is required")
	}
	if f.DrinkID == "" {
		return NewFieldError(ModuleInteraction, "drink_id", "drink id is required")
	}
	if !f.Type.Valid() {
		return NewFieldError(ModuleInteraction, "feedback_type", fmt.Sprintf("unknown feedback type %q", f.Type))
	}
	return nil
}
