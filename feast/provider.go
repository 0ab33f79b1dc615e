package feast

import (
	"context"
	"fmt"

	"github.com/sipkit/sipkit/core"
)

// DrinkEntityKey 饮品实体在特征库中的默认实体键
const DrinkEntityKey = "drink_id"

// DrinkFeatures 基于 Feast 在线特征库实现 core.DrinkFeatureProvider。
//
// 使用场景：
//   - 饮品的动态统计特征（销量、评分均值、近期复购率）由离线管道
//     物化到 Feast，推荐时在线补齐到候选集上
//   - 静态属性（甜度、咖啡因含量等）仍走目录存储，两者在 EnrichNode 中合并
type DrinkFeatures struct {
	// Client Feast 客户端
	Client Client

	// EntityKey 实体键名，空时取 DrinkEntityKey
	EntityKey string
}

// NewDrinkFeatures 创建饮品特征 Provider。
func NewDrinkFeatures(client Client) *DrinkFeatures {
	return &DrinkFeatures{Client: client}
}

// DrinkFeatures 拉取一批饮品的在线特征，返回 map[drinkID]map[featureName]value。
// 特征库中缺失的饮品不会出现在结果里，调用方按"缺省即无特征"处理。
func (p *DrinkFeatures) DrinkFeatures(ctx context.Context, drinkIDs []string, features []string) (map[string]map[string]any, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("feast: client is required")
	}
	if len(drinkIDs) == 0 || len(features) == 0 {
		return map[string]map[string]any{}, nil
	}

	entityKey := p.EntityKey
	if entityKey == "" {
		entityKey = DrinkEntityKey
	}

	rows := make([]map[string]any, len(drinkIDs))
	for i, id := range drinkIDs {
		rows[i] = map[string]any{entityKey: id}
	}

	resp, err := p.Client.OnlineFeatures(ctx, &OnlineFeaturesRequest{
		Features:   features,
		EntityRows: rows,
	})
	if err != nil {
		return nil, fmt.Errorf("feast drink features: %w", err)
	}

	result := make(map[string]map[string]any, len(resp.Vectors))
	for _, vector := range resp.Vectors {
		id, ok := vector.EntityRow[entityKey].(string)
		if !ok || id == "" {
			continue
		}
		if len(vector.Values) == 0 {
			continue
		}
		result[id] = vector.Values
	}
	return result, nil
}

var _ core.DrinkFeatureProvider = (*DrinkFeatures)(nil)
