package utils

import "strings"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；Sipkit 只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank / postprocess ...
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 如果你需要更复杂的优先级/覆盖规则，可以在上层封装自己的 merge 策略。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Values 拆出累积的各段 Value（按 '|' 切分，空 Label 返回 nil）。
// 解释生成依赖它做去重与截断。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}

// Contains 判断累积的 Value 中是否已包含某段（精确匹配一段，而非子串）。
func (l Label) Contains(v string) bool {
	for _, part := range l.Values() {
		if part == v {
			return true
		}
	}
	return false
}
