// Package sipkit 是一个饮品推荐引擎工具包（Sip Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - Snapshot-first: 每次请求基于目录/交互快照做无状态计算，可并行、可复现
// - Node 可扩展: 自定义 Node 即可插拔扩展召回源与打分策略
package sipkit

import "github.com/sipkit/sipkit/pipeline"

// 轻量 facade：便于用户直接 import "sipkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
