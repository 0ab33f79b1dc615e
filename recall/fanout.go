package recall

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。
// 单个召回源出错只丢弃该源的结果，不中断其他源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results = make([][]*core.Item, len(n.Sources))
		eg, _   = errgroup.WithContext(ctx)
	)

	// 限流：使用 semaphore 控制并发数
	sem := make(chan struct{}, n.MaxConcurrent)
	if n.MaxConcurrent <= 0 {
		close(sem) // 无限制时直接关闭，避免阻塞
	}

	for i, src := range n.Sources {
		s := src
		priority := i // 优先级（索引越小优先级越高）

		eg.Go(func() error {
			if n.MaxConcurrent > 0 {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测。
			// 召回源自己打过同名来源段的不重复累积。
			for _, it := range items {
				if lbl, ok := it.Labels["recall_source"]; !ok || !lbl.Contains(s.Name()) {
					it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				}
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(priority), Source: "recall"})
			}

			mu.Lock()
			results[priority] = items
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按 Sources 声明顺序拼接，保证合并输出顺序稳定
	all := make([]*core.Item, 0)
	for _, items := range results {
		all = append(all, items...)
	}

	switch n.MergeStrategy {
	case "union":
		return all, nil
	default: // "first" / "priority"：高优先级源先出现，去重时天然保留高优先级
		return n.mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的；后出现条目的 label 合并进去。
// 源结果已按优先级顺序拼接，因此保留第一个即保留最高优先级。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
