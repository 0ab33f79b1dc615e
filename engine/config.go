package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sipkit/sipkit/cf"
	"github.com/sipkit/sipkit/core"
)

// Config 是引擎门面的装配参数。
//
// 所有字段都遵循"零值即默认"：不关心的参数不用填，
// 生效值见各字段注释。配置校验只拦结构性非法（负权重、未知模式），
// 口径裁剪（如权重归一）不在校验范围。
type Config struct {
	// DefaultMode 请求未指定模式时的默认模式，空时取 hybrid
	DefaultMode core.Mode `json:"default_mode" yaml:"default_mode"`

	// DefaultLimit 请求未指定条数时的默认截断，<=0 时取 10
	DefaultLimit int `json:"default_limit" yaml:"default_limit"`

	// Hybrid 混合模式的融合权重
	Hybrid HybridConfig `json:"hybrid" yaml:"hybrid"`

	// Collaborative 协同过滤参数
	Collaborative CollaborativeConfig `json:"collaborative" yaml:"collaborative"`

	// Similarity 饮品相似度参数
	Similarity SimilarityConfig `json:"similarity" yaml:"similarity"`

	// MaxReasons 每条推荐保留的解释条数，<=0 时取 3
	MaxReasons int `json:"max_reasons" yaml:"max_reasons"`

	// OnlineFeatures 要从特征库补齐的特征引用（需配合 DrinkFeatureProvider）
	OnlineFeatures []string `json:"online_features" yaml:"online_features"`

	// VectorCacheSize 特征向量缓存容量，<=0 时取 1024
	VectorCacheSize int `json:"vector_cache_size" yaml:"vector_cache_size"`
}

// HybridConfig 是混合打分的融合权重；两者同时为 0 取 0.5 / 0.5。
type HybridConfig struct {
	ContentWeight float64 `json:"content_weight" yaml:"content_weight"`
	CollabWeight  float64 `json:"collab_weight" yaml:"collab_weight"`
}

// CollaborativeConfig 是协同过滤引擎参数。
type CollaborativeConfig struct {
	// TopK 参与评分的邻居数量，<=0 时取 20
	TopK int `json:"top_k" yaml:"top_k"`

	// MinSimilarity 邻居入选的相似度下限（严格大于）
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity"`

	// MinCommonDrinks 邻居至少需要的共同交互饮品数，<=0 时取 1
	MinCommonDrinks int `json:"min_common_drinks" yaml:"min_common_drinks"`

	// Affinity 亲和度合成权重，全 0 取 0.5 / 0.3 / 0.2
	Affinity cf.AffinityWeights `json:"affinity" yaml:"affinity"`
}

// SimilarityConfig 是饮品到饮品相似度参数。
type SimilarityConfig struct {
	// CosineWeight / JaccardWeight 同时为 0 取 0.7 / 0.3
	CosineWeight  float64 `json:"cosine_weight" yaml:"cosine_weight"`
	JaccardWeight float64 `json:"jaccard_weight" yaml:"jaccard_weight"`

	// DimWeights 数值维度权重，nil 时等权
	DimWeights map[string]float64 `json:"dim_weights" yaml:"dim_weights"`
}

// DefaultConfig 返回所有默认值显式展开的配置，便于序列化成模板。
func DefaultConfig() *Config {
	return &Config{
		DefaultMode:  core.ModeHybrid,
		DefaultLimit: 10,
		Hybrid: HybridConfig{
			ContentWeight: 0.5,
			CollabWeight:  0.5,
		},
		Collaborative: CollaborativeConfig{
			TopK:            cf.DefaultTopK,
			MinCommonDrinks: 1,
			Affinity:        cf.DefaultAffinityWeights(),
		},
		Similarity: SimilarityConfig{
			CosineWeight:  0.7,
			JaccardWeight: 0.3,
		},
		MaxReasons:      3,
		VectorCacheSize: 1024,
	}
}

// LoadConfig 从 YAML 文件加载引擎配置。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 解析 YAML 格式的引擎配置并校验。
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的结构性约束。
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.DefaultMode != "" && !c.DefaultMode.Valid() {
		return core.NewFieldError(core.ModuleConfig, "default_mode", fmt.Sprintf("unknown mode %q", c.DefaultMode))
	}
	if c.DefaultMode == core.ModeSimilar {
		return core.NewFieldError(core.ModuleConfig, "default_mode", "similar mode requires a source drink and cannot be the default")
	}
	if c.Hybrid.ContentWeight < 0 || c.Hybrid.CollabWeight < 0 {
		return core.NewFieldError(core.ModuleConfig, "hybrid", "hybrid weights must be >= 0")
	}
	if c.Similarity.CosineWeight < 0 || c.Similarity.JaccardWeight < 0 {
		return core.NewFieldError(core.ModuleConfig, "similarity", "similarity weights must be >= 0")
	}
	for dim, w := range c.Similarity.DimWeights {
		if w < 0 {
			return core.NewFieldError(core.ModuleConfig, "dim_weights", fmt.Sprintf("weight for %q must be >= 0", dim))
		}
	}
	a := c.Collaborative.Affinity
	if a.Favorite < 0 || a.Rating < 0 || a.Consumed < 0 {
		return core.NewFieldError(core.ModuleConfig, "affinity", "affinity weights must be >= 0")
	}
	if c.Collaborative.MinSimilarity < 0 || c.Collaborative.MinSimilarity >= 1 {
		return core.NewFieldError(core.ModuleConfig, "min_similarity", "min similarity must be in [0,1)")
	}
	return nil
}

// mode 返回请求模式的生效值。
func (c *Config) mode(requested core.Mode) core.Mode {
	if requested != "" {
		return requested
	}
	if c != nil && c.DefaultMode != "" {
		return c.DefaultMode
	}
	return core.ModeHybrid
}

// limit 返回截断条数的生效值。
func (c *Config) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	if c != nil && c.DefaultLimit > 0 {
		return c.DefaultLimit
	}
	return 0 // rctx.EffectiveLimit 兜底为 10
}

// cacheSize 返回向量缓存容量的生效值。
func (c *Config) cacheSize() int {
	if c != nil && c.VectorCacheSize > 0 {
		return c.VectorCacheSize
	}
	return 1024
}
