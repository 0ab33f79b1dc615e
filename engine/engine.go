package engine

import (
	"context"
	"fmt"

	"github.com/sipkit/sipkit/cf"
	"github.com/sipkit/sipkit/core"
	"github.com/sipkit/sipkit/explain"
	"github.com/sipkit/sipkit/feature"
	"github.com/sipkit/sipkit/filter"
	"github.com/sipkit/sipkit/pipeline"
	"github.com/sipkit/sipkit/pkg/utils"
	"github.com/sipkit/sipkit/rank"
	"github.com/sipkit/sipkit/recall"
	"github.com/sipkit/sipkit/rerank"
)

// Engine 是推荐引擎门面：按请求组装 Pipeline 并执行。
//
// 设计原则：
//   - 引擎无跨请求可变状态：每次请求从 Provider 拉取快照，
//     唯一的共享结构是特征向量缓存（copy-on-write，见 feature.VectorCache）
//   - 门面只负责装配，算法语义全部在各 Node 内
//   - 需要更自由的链路（自定义召回、CEL 规则过滤、布隆去重）时
//     直接组 pipeline.Pipeline，不必经过门面
//
// 使用场景：
//
//	eng := engine.New(catalog,
//		engine.WithProfiles(profiles),
//		engine.WithInteractions(interactions),
//	)
//	recs, err := eng.RecommendForUser(ctx, "alice", engine.Options{
//		Mode:  core.ModeHybrid,
//		Limit: 5,
//	})
type Engine struct {
	catalog      core.CatalogProvider
	profiles     core.ProfileProvider
	interactions core.InteractionProvider
	features     core.DrinkFeatureProvider

	config *Config
	cache  *feature.VectorCache
}

// Option 配置引擎门面。
type Option func(*Engine)

// WithConfig 指定引擎配置，缺省用 DefaultConfig。
func WithConfig(cfg *Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithProfiles 接入用户偏好数据。
func WithProfiles(p core.ProfileProvider) Option {
	return func(e *Engine) { e.profiles = p }
}

// WithInteractions 接入交互与反馈数据（协同过滤、负反馈排除、分数微调）。
func WithInteractions(p core.InteractionProvider) Option {
	return func(e *Engine) { e.interactions = p }
}

// WithDrinkFeatures 接入在线特征库（配合 Config.OnlineFeatures 使用）。
func WithDrinkFeatures(p core.DrinkFeatureProvider) Option {
	return func(e *Engine) { e.features = p }
}

// WithVectorCache 复用外部向量缓存（多个引擎实例共享目录时使用）。
func WithVectorCache(c *feature.VectorCache) Option {
	return func(e *Engine) { e.cache = c }
}

// New 创建引擎门面。catalog 是唯一的必选依赖。
func New(catalog core.CatalogProvider, opts ...Option) *Engine {
	e := &Engine{catalog: catalog}
	for _, opt := range opts {
		opt(e)
	}
	if e.config == nil {
		e.config = DefaultConfig()
	}
	if e.cache == nil {
		e.cache = feature.NewVectorCache(e.config.cacheSize())
	}
	return e
}

// Options 是单次请求的参数。
type Options struct {
	// Mode 推荐模式，空时取配置默认（hybrid）
	Mode core.Mode

	// Limit 截断条数，<=0 时取配置默认（10）
	Limit int

	// AgeVerified 为真时才允许返回酒精类饮品
	AgeVerified bool

	// Scene 调用场景标识，透传到请求上下文
	Scene string

	// Params 扩展上下文参数，透传到请求上下文
	Params map[string]any
}

// Recommendation 是一条推荐结果。
type Recommendation struct {
	// Drink 目录记录
	Drink *core.Drink

	// Score 最终排序分
	Score float64

	// Explanations 推荐理由（去重截断后的短语列表）
	Explanations []string

	// Breakdown 分数拆解（content_score / collab_score / match_* 等）
	Breakdown map[string]float64

	// Labels 链路标签快照（召回来源、排序模型等）
	Labels map[string]utils.Label
}

// SimilarDrink 是一条饮品相似结果。
type SimilarDrink struct {
	Drink      *core.Drink
	Similarity float64
}

// RecommendForUser 为用户生成一页推荐。
//
// 模式语义：
//   - content：纯偏好匹配；无偏好记录时所有候选中性分 0.5 并打冷启动标记
//   - collaborative：纯邻居加权分；没有任何邻居时返回空列表
//   - hybrid：内容 + 协同融合；协同侧或偏好侧缺数据时降级为纯内容
//
// similar 模式由 SimilarDrinks 承接，传入会报 INVALID_INPUT。
func (e *Engine) RecommendForUser(ctx context.Context, userID string, opts Options) ([]Recommendation, error) {
	if e.catalog == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "catalog provider is required")
	}
	if userID == "" {
		return nil, core.NewFieldError(core.ModuleEngine, "user_id", "user id is required")
	}

	mode := e.config.mode(opts.Mode)
	if !mode.Valid() {
		return nil, core.NewFieldError(core.ModuleEngine, "mode", fmt.Sprintf("unknown mode %q", opts.Mode))
	}
	if mode == core.ModeSimilar {
		return nil, core.NewFieldError(core.ModuleEngine, "mode", "similar mode is served by SimilarDrinks")
	}

	rctx := &core.RecommendContext{
		UserID:      userID,
		Scene:       opts.Scene,
		Mode:        mode,
		Limit:       e.config.limit(opts.Limit),
		AgeVerified: opts.AgeVerified,
		Params:      opts.Params,
	}

	if err := e.loadProfile(ctx, rctx); err != nil {
		return nil, err
	}

	var cfEngine *cf.Engine
	if mode == core.ModeCollaborative || mode == core.ModeHybrid {
		var err error
		cfEngine, err = e.collabEngine(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	items, err := e.userPipeline(mode, cfEngine).Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	return toRecommendations(items), nil
}

// MatchPreferences 返回纯偏好匹配的推荐页（等价于 content 模式）。
// 用于"按我的口味筛一遍菜单"类场景：结果只反映偏好契合度，
// 不掺杂任何人群信号。
func (e *Engine) MatchPreferences(ctx context.Context, userID string, opts Options) ([]Recommendation, error) {
	opts.Mode = core.ModeContent
	return e.RecommendForUser(ctx, userID, opts)
}

// SimilarDrinks 返回与源饮品最相似的饮品列表。
//
// 源饮品不在目录中时报 NOT_FOUND；结果已剔除源饮品自身，
// 相似度严格对称：SimilarDrinks(a) 中 b 的分数等于 SimilarDrinks(b) 中 a 的分数。
func (e *Engine) SimilarDrinks(ctx context.Context, drinkID string, opts Options) ([]SimilarDrink, error) {
	if e.catalog == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "catalog provider is required")
	}
	if drinkID == "" {
		return nil, core.NewFieldError(core.ModuleEngine, "drink_id", "source drink id is required")
	}

	drinks, err := e.catalog.Drinks(ctx)
	if err != nil {
		return nil, err
	}
	builder := feature.NewBuilder(drinks, feature.WithVectorCache(e.cache))
	vectors, err := builder.BuildAll(ctx, drinks)
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{
		Scene:         opts.Scene,
		Mode:          core.ModeSimilar,
		Limit:         e.config.limit(opts.Limit),
		AgeVerified:   opts.AgeVerified,
		SourceDrinkID: drinkID,
		Params:        opts.Params,
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Catalog{Provider: e.catalog},
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.SourceDrink{},
				&filter.Alcohol{},
			}},
			&rank.SimilarNode{
				Vectors:       vectors,
				DimWeights:    e.config.Similarity.DimWeights,
				CosineWeight:  e.config.Similarity.CosineWeight,
				JaccardWeight: e.config.Similarity.JaccardWeight,
			},
			&rerank.TopNNode{},
		},
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]SimilarDrink, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, SimilarDrink{Drink: it.Drink(), Similarity: it.Score})
	}
	return out, nil
}

// loadProfile 把用户偏好与硬性过滤器快照挂到请求上下文。
func (e *Engine) loadProfile(ctx context.Context, rctx *core.RecommendContext) error {
	if e.profiles == nil {
		return nil
	}
	pref, err := e.profiles.Preference(ctx, rctx.UserID)
	if err != nil {
		return err
	}
	tf, err := e.profiles.TasteFilter(ctx, rctx.UserID)
	if err != nil {
		return err
	}
	rctx.Preference = pref
	rctx.TasteFilter = tf
	return nil
}

// collabEngine 从人群交互快照构建本次请求的协同过滤引擎。
// 没有交互数据源时返回 nil：协同侧按"零邻居"处理。
func (e *Engine) collabEngine(ctx context.Context, userID string) (*cf.Engine, error) {
	if e.interactions == nil {
		return nil, nil
	}
	ints, err := e.interactions.CommunityInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	cc := e.config.Collaborative
	return &cf.Engine{
		Matrix:          cf.BuildMatrixWith(ints, cc.Affinity),
		TopK:            cc.TopK,
		MinSimilarity:   cc.MinSimilarity,
		MinCommonDrinks: cc.MinCommonDrinks,
	}, nil
}

// userPipeline 按模式装配用户推荐链路。
func (e *Engine) userPipeline(mode core.Mode, cfEngine *cf.Engine) *pipeline.Pipeline {
	nodes := make([]pipeline.Node, 0, 8)
	nodes = append(nodes, &recall.Catalog{Provider: e.catalog})

	if e.features != nil && len(e.config.OnlineFeatures) > 0 {
		nodes = append(nodes, &feature.EnrichNode{
			Features:    e.features,
			FeatureRefs: e.config.OnlineFeatures,
		})
	}

	filters := make([]filter.Filter, 0, 3)
	if e.interactions != nil {
		filters = append(filters, &filter.NotForMe{Interactions: e.interactions})
	}
	filters = append(filters, &filter.Alcohol{}, &filter.Taste{})
	nodes = append(nodes, &filter.FilterNode{Filters: filters})

	switch mode {
	case core.ModeContent:
		nodes = append(nodes, &rank.ContentNode{Profiles: e.profiles})
	case core.ModeCollaborative:
		nodes = append(nodes, &rank.CollabNode{Engine: cfEngine})
	default: // hybrid
		nodes = append(nodes,
			&rank.ContentNode{Profiles: e.profiles},
			&rank.CollabNode{Engine: cfEngine},
			&rank.HybridNode{
				ContentWeight: e.config.Hybrid.ContentWeight,
				CollabWeight:  e.config.Hybrid.CollabWeight,
			},
		)
	}

	if e.interactions != nil {
		nodes = append(nodes, &rank.FeedbackNode{Interactions: e.interactions})
	}

	nodes = append(nodes,
		&rerank.TopNNode{},
		&explain.Node{MaxReasons: e.config.MaxReasons},
	)
	return &pipeline.Pipeline{Nodes: nodes}
}

// toRecommendations 把链路产出转为对外结果。
func toRecommendations(items []*core.Item) []Recommendation {
	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		rec := Recommendation{
			Drink: it.Drink(),
			Score: it.Score,
		}
		if len(it.Features) > 0 {
			rec.Breakdown = make(map[string]float64, len(it.Features))
			for k, v := range it.Features {
				rec.Breakdown[k] = v
			}
		}
		if len(it.Labels) > 0 {
			rec.Labels = make(map[string]utils.Label, len(it.Labels))
			for k, v := range it.Labels {
				rec.Labels[k] = v
			}
			if lbl, ok := it.Labels[explain.LabelExplanation]; ok {
				rec.Explanations = lbl.Values()
			}
		}
		out = append(out, rec)
	}
	return out
}
