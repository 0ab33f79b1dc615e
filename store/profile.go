package store

import (
	"context"
	"encoding/json"

	"github.com/sipkit/sipkit/core"
)

// StoreProfiles 是基于 core.Store 的用户画像接入适配器，实现 core.ProfileProvider。
//
// 存储布局：
//   偏好记录：  {KeyPrefix}:pref:{userID} → Preference JSON
//   硬性过滤器：{KeyPrefix}:filter:{userID} → TasteFilter JSON
//
// 记录不存在返回 (nil, nil)：无画像是合法的冷启动态，不是错误。
type StoreProfiles struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "profile"
	KeyPrefix string
}

// NewStoreProfiles 创建一个基于 core.Store 的画像适配器。
func NewStoreProfiles(s core.Store, keyPrefix string) *StoreProfiles {
	if keyPrefix == "" {
		keyPrefix = "profile"
	}
	return &StoreProfiles{store: s, KeyPrefix: keyPrefix}
}

func (p *StoreProfiles) prefKey(userID string) string   { return p.KeyPrefix + ":pref:" + userID }
func (p *StoreProfiles) filterKey(userID string) string { return p.KeyPrefix + ":filter:" + userID }

func (p *StoreProfiles) Preference(ctx context.Context, userID string) (*core.Preference, error) {
	data, err := p.store.Get(ctx, p.prefKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var pref core.Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

func (p *StoreProfiles) TasteFilter(ctx context.Context, userID string) (*core.TasteFilter, error) {
	data, err := p.store.Get(ctx, p.filterKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var f core.TasteFilter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// SavePreference 写入偏好记录，供数据同步任务与测试使用。
func (p *StoreProfiles) SavePreference(ctx context.Context, pref *core.Preference) error {
	if err := pref.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(pref)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.prefKey(pref.UserID), data)
}

// SaveTasteFilter 写入硬性过滤器。
func (p *StoreProfiles) SaveTasteFilter(ctx context.Context, f *core.TasteFilter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.filterKey(f.UserID), data)
}

var _ core.ProfileProvider = (*StoreProfiles)(nil)
