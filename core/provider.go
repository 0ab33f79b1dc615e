package core

import "context"

// 数据接入接口：引擎从不直接查询存储，所有快照数据由外部协作方
// 通过以下窄接口供给。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）或调用方实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 引擎按"调用方给什么算什么"工作，不做人群发现，也不做重试
//     （数据侧重试/超时属于协作方职责）

// CatalogProvider 提供饮品目录快照。
//
// 实现：
//   - store.StoreCatalog 基于 core.Store 实现
//   - 调用方也可以直接用内存切片实现（见 engine.SliceCatalog）
type CatalogProvider interface {
	// Name 返回目录来源名称（用于日志/监控）
	Name() string

	// Drink 按 ID 取单条记录；不存在时返回 NOT_FOUND
	Drink(ctx context.Context, drinkID string) (*Drink, error)

	// Drinks 返回本次请求可见的目录快照
	Drinks(ctx context.Context) ([]*Drink, error)
}

// ProfileProvider 提供用户口味偏好与硬性过滤器。
// 记录不存在用 (nil, nil) 表达：无偏好是合法的冷启动态，不是错误。
type ProfileProvider interface {
	// Preference 返回用户偏好记录；无记录返回 (nil, nil)
	Preference(ctx context.Context, userID string) (*Preference, error)

	// TasteFilter 返回用户的激活过滤器；无记录返回 (nil, nil)
	TasteFilter(ctx context.Context, userID string) (*TasteFilter, error)
}

// InteractionProvider 提供交互与反馈快照。
//
// CommunityInteractions 的人群范围由协作方圈定（通常是与目标用户
// 至少共享一条交互饮品的用户），引擎不做人群发现。
type InteractionProvider interface {
	// UserInteractions 返回目标用户自己的交互记录
	UserInteractions(ctx context.Context, userID string) ([]*Interaction, error)

	// CommunityInteractions 返回协同打分所需的人群交互记录（含目标用户）
	CommunityInteractions(ctx context.Context, userID string) ([]*Interaction, error)

	// Feedback 返回目标用户的推荐反馈记录
	Feedback(ctx context.Context, userID string) ([]*Feedback, error)
}

// DrinkFeatureProvider 提供饮品的在线特征（如 Feast 特征库对接）。
// 返回 map[drinkID]map[featureName]value。
type DrinkFeatureProvider interface {
	DrinkFeatures(ctx context.Context, drinkIDs []string, features []string) (map[string]map[string]any, error)
}
