package pipeline

import (
	"context"

	"github.com/sipkit/sipkit/core"
)

// Pipeline 是 Sipkit 的核心抽象：把推荐逻辑拆成可组合的 Node 链。
// 一次推荐请求按 Node 顺序流过：召回生成候选，过滤剔除，排序打分，
// 重排截断，后处理补充解释。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
