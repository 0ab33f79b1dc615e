package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sipkit/sipkit/config"
	_ "github.com/sipkit/sipkit/config/builders"
	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写临时配置: %v", err)
	}
	return path
}

func TestBuildFromYAML(t *testing.T) {
	path := writeTemp(t, "pipeline.yaml", `
pipeline:
  name: landing_page
  nodes:
    - type: recall.popular
      config:
        ids: ["latte", "mocha", "stout"]
    - type: filter
      config:
        filters:
          - type: not_for_me
            drink_ids: ["mocha"]
    - type: rank.content
    - type: rerank.topn
      config:
        n: 2
`)

	p, err := config.BuildFromYAML(path)
	if err != nil {
		t.Fatalf("BuildFromYAML: %v", err)
	}

	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: "demo"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 topn 截到 2 条，得到 %d", len(items))
	}
	for _, it := range items {
		if it.ID == "mocha" {
			t.Errorf("被排除的 mocha 不应出现")
		}
	}
	// 冷启动同分按 ID 升序
	if items[0].ID != "latte" || items[1].ID != "stout" {
		t.Errorf("顺序不符: %s, %s", items[0].ID, items[1].ID)
	}
}

func TestBuildFromJSON(t *testing.T) {
	path := writeTemp(t, "pipeline.json", `{
  "pipeline": {
    "name": "simple",
    "nodes": [
      {"type": "recall.popular", "config": {"ids": ["latte"]}},
      {"type": "rerank.topn"}
    ]
  }
}`)

	p, err := config.BuildFromJSON(path)
	if err != nil {
		t.Fatalf("BuildFromJSON: %v", err)
	}
	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 1 || items[0].ID != "latte" {
		t.Errorf("期望只有 latte，得到 %+v", items)
	}
}

func TestBuild_UnknownNodeType(t *testing.T) {
	var cfg pipeline.Config
	cfg.Pipeline.Name = "broken"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.quantum"}}

	_, err := config.Build(&cfg)
	if err == nil {
		t.Fatal("未注册类型应报错")
	}
	if !strings.Contains(err.Error(), "rank.quantum") || !strings.Contains(err.Error(), "supported") {
		t.Errorf("错误应指明类型并带已支持列表: %v", err)
	}
}

func TestBuild_InvalidTasteFilter(t *testing.T) {
	path := writeTemp(t, "bad.yaml", `
pipeline:
  name: bad
  nodes:
    - type: filter
      config:
        filters:
          - type: taste
            max_sweetness: 99
`)

	if _, err := config.BuildFromYAML(path); err == nil {
		t.Fatal("非法口味过滤器应在构建期报错")
	}
}

func TestSupportedTypes(t *testing.T) {
	types := config.SupportedTypes()
	want := map[string]bool{
		"recall.popular":      false,
		"recall.fanout":       false,
		"filter":              false,
		"rank.content":        false,
		"rank.hybrid":         false,
		"rerank.topn":         false,
		"rerank.diversity":    false,
		"postprocess.explain": false,
	}
	for _, typ := range types {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("内置类型 %s 未注册", typ)
		}
	}
}

func TestValidatePipelineConfig_Nil(t *testing.T) {
	if err := config.ValidatePipelineConfig(nil); err != nil {
		t.Errorf("nil 配置应视为合法: %v", err)
	}
}
