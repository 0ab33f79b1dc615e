package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sipkit/sipkit/core"
)

// StoreInteractions 是基于 core.Store 的交互数据接入适配器，
// 实现 core.InteractionProvider。
//
// 存储布局：
//   用户交互：{KeyPrefix}:user:{userID} → Interaction JSON 数组
//   用户注册表：{KeyPrefix}:users → zset（KeyValueStore）或 JSON 数组
//   反馈记录：{KeyPrefix}:feedback:{userID} → Feedback JSON 数组
//
// CommunityInteractions 扫描注册表里的全部用户。注册表由 SaveInteraction
// 维护，人群裁剪（只保留与目标用户有交集的用户）由协同引擎自己完成。
type StoreInteractions struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "interaction"
	KeyPrefix string

	// MaxCommunityUsers 社区扫描的用户数上限，<=0 时取 1000
	MaxCommunityUsers int64
}

// NewStoreInteractions 创建一个基于 core.Store 的交互适配器。
func NewStoreInteractions(s core.Store, keyPrefix string) *StoreInteractions {
	if keyPrefix == "" {
		keyPrefix = "interaction"
	}
	return &StoreInteractions{store: s, KeyPrefix: keyPrefix}
}

func (a *StoreInteractions) userKey(userID string) string { return a.KeyPrefix + ":user:" + userID }
func (a *StoreInteractions) usersKey() string             { return a.KeyPrefix + ":users" }
func (a *StoreInteractions) feedbackKey(userID string) string {
	return a.KeyPrefix + ":feedback:" + userID
}

func (a *StoreInteractions) UserInteractions(ctx context.Context, userID string) ([]*core.Interaction, error) {
	data, err := a.store.Get(ctx, a.userKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []*core.Interaction{}, nil
		}
		return nil, err
	}
	var out []*core.Interaction
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *StoreInteractions) CommunityInteractions(ctx context.Context, userID string) ([]*core.Interaction, error) {
	userIDs, err := a.communityUsers(ctx)
	if err != nil {
		return nil, err
	}

	seen := false
	for _, id := range userIDs {
		if id == userID {
			seen = true
			break
		}
	}
	if !seen && userID != "" {
		userIDs = append(userIDs, userID)
	}

	all := make([]*core.Interaction, 0)
	for _, id := range userIDs {
		ints, err := a.UserInteractions(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, ints...)
	}
	return all, nil
}

func (a *StoreInteractions) communityUsers(ctx context.Context) ([]string, error) {
	max := a.MaxCommunityUsers
	if max <= 0 {
		max = 1000
	}

	if kv, ok := a.store.(core.KeyValueStore); ok {
		members, err := kv.ZRange(ctx, a.usersKey(), 0, max-1)
		if err != nil {
			return nil, err
		}
		return members, nil
	}

	data, err := a.store.Get(ctx, a.usersKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	if int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (a *StoreInteractions) Feedback(ctx context.Context, userID string) ([]*core.Feedback, error) {
	data, err := a.store.Get(ctx, a.feedbackKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []*core.Feedback{}, nil
		}
		return nil, err
	}
	var out []*core.Feedback
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveInteraction 追加或覆盖一条交互记录并维护用户注册表。
// 同一 (用户, 饮品) 的旧记录被新记录替换。
func (a *StoreInteractions) SaveInteraction(ctx context.Context, in *core.Interaction) error {
	if err := in.Validate(); err != nil {
		return err
	}

	existing, err := a.UserInteractions(ctx, in.UserID)
	if err != nil {
		return err
	}
	replaced := false
	for i, old := range existing {
		if old.DrinkID == in.DrinkID {
			existing[i] = in
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, in)
	}

	data, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, a.userKey(in.UserID), data); err != nil {
		return err
	}
	return a.registerUser(ctx, in.UserID)
}

func (a *StoreInteractions) registerUser(ctx context.Context, userID string) error {
	if kv, ok := a.store.(core.KeyValueStore); ok {
		return kv.ZAdd(ctx, a.usersKey(), float64(time.Now().Unix()), userID)
	}

	var ids []string
	data, err := a.store.Get(ctx, a.usersKey())
	if err != nil && !core.IsStoreNotFound(err) {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if id == userID {
			return nil
		}
	}
	ids = append(ids, userID)
	updated, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.usersKey(), updated)
}

// SaveFeedback 追加一条反馈记录。
func (a *StoreInteractions) SaveFeedback(ctx context.Context, fb *core.Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}

	existing, err := a.Feedback(ctx, fb.UserID)
	if err != nil {
		return err
	}
	existing = append(existing, fb)

	data, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.feedbackKey(fb.UserID), data)
}

var _ core.InteractionProvider = (*StoreInteractions)(nil)
