package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sipkit/sipkit/core"
)

// StoreCatalog 是基于 core.Store 的目录接入适配器，实现 core.CatalogProvider。
//
// 存储布局：
//   - KeyValueStore：hash {KeyPrefix}:drinks，field 为饮品 ID，value 为 JSON
//   - 普通 Store：单条 {KeyPrefix}:drink:{drinkID}，索引 {KeyPrefix}:ids（JSON 数组）
//
// 两种布局由 SaveDrink 同步维护，读取时按接口能力自动选择。
type StoreCatalog struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，默认 "catalog"
	KeyPrefix string
}

// NewStoreCatalog 创建一个基于 core.Store 的目录适配器。
func NewStoreCatalog(s core.Store, keyPrefix string) *StoreCatalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &StoreCatalog{store: s, KeyPrefix: keyPrefix}
}

func (c *StoreCatalog) Name() string { return "store_catalog" }

func (c *StoreCatalog) hashKey() string  { return c.KeyPrefix + ":drinks" }
func (c *StoreCatalog) indexKey() string { return c.KeyPrefix + ":ids" }
func (c *StoreCatalog) drinkKey(id string) string {
	return c.KeyPrefix + ":drink:" + id
}

// Drink 按 ID 读取单条记录；不存在时返回 NOT_FOUND。
func (c *StoreCatalog) Drink(ctx context.Context, drinkID string) (*core.Drink, error) {
	var data []byte
	var err error

	if kv, ok := c.store.(core.KeyValueStore); ok {
		data, err = kv.HGet(ctx, c.hashKey(), drinkID)
	} else {
		data, err = c.store.Get(ctx, c.drinkKey(drinkID))
	}
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewNotFoundError(core.ModuleCatalog, fmt.Sprintf("drink %q not found", drinkID))
		}
		return nil, err
	}

	var d core.Drink
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Drinks 返回目录快照。空目录返回空切片，不是错误。
func (c *StoreCatalog) Drinks(ctx context.Context) ([]*core.Drink, error) {
	if kv, ok := c.store.(core.KeyValueStore); ok {
		fields, err := kv.HGetAll(ctx, c.hashKey())
		if err != nil {
			return nil, err
		}
		out := make([]*core.Drink, 0, len(fields))
		for _, raw := range fields {
			var d core.Drink
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, err
			}
			out = append(out, &d)
		}
		return out, nil
	}

	data, err := c.store.Get(ctx, c.indexKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []*core.Drink{}, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.drinkKey(id))
	}
	raw, err := c.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Drink, 0, len(raw))
	for _, id := range ids {
		data, ok := raw[c.drinkKey(id)]
		if !ok {
			continue
		}
		var d core.Drink
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, nil
}

// SaveDrink 写入一条目录记录并维护索引，供数据同步任务与测试使用。
func (c *StoreCatalog) SaveDrink(ctx context.Context, d *core.Drink) error {
	if err := d.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}

	if kv, ok := c.store.(core.KeyValueStore); ok {
		return kv.HSet(ctx, c.hashKey(), d.ID, data)
	}

	if err := c.store.Set(ctx, c.drinkKey(d.ID), data); err != nil {
		return err
	}
	return c.appendIndex(ctx, d.ID)
}

func (c *StoreCatalog) appendIndex(ctx context.Context, drinkID string) error {
	var ids []string
	data, err := c.store.Get(ctx, c.indexKey())
	if err != nil && !core.IsStoreNotFound(err) {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if id == drinkID {
			return nil
		}
	}
	ids = append(ids, drinkID)
	updated, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.indexKey(), updated)
}

var _ core.CatalogProvider = (*StoreCatalog)(nil)
