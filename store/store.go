package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var s core.Store = NewMemoryStore()
//   var kv core.KeyValueStore = NewMemoryStore()
//
// 在 Store 之上，本包还提供目录/画像/交互三类数据接入适配器
// （StoreCatalog / StoreProfiles / StoreInteractions），
// 分别实现 core 包中的 Provider 接口。
