package config

import (
	"github.com/sipkit/sipkit/pipeline"
)

// Build 用注册表中的构建器把配置实例化为 Pipeline。
// 未注册的 Node 类型在构建前就会被 ValidatePipelineConfig 拦下，
// 错误信息携带已支持类型列表。
func Build(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory())
}

// BuildFromYAML 从 YAML 文件加载并构建 Pipeline。
//
// 示例配置：
//
//	pipeline:
//	  name: landing_page
//	  nodes:
//	    - type: recall.popular
//	      config:
//	        ids: ["latte", "matcha_latte", "cold_brew"]
//	    - type: filter
//	      config:
//	        filters:
//	          - type: alcohol
//	    - type: rank.content
//	    - type: rerank.topn
func BuildFromYAML(path string) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}

// BuildFromJSON 从 JSON 文件加载并构建 Pipeline。
func BuildFromJSON(path string) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFromJSON(path)
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}
