package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
//
// 设计原则（DDD）：
//   - 领域层：Client 接口（client.go）保持不变
//   - 基础设施层：GrpcClient 实现 Client 接口
//   - 高内聚低耦合：通过接口抽象，可以替换实现
type GrpcClient struct {
	// client 官方 SDK 的 gRPC 客户端
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// Endpoint 服务端点（用于信息展示）
	Endpoint string

	// timeout 单次调用超时，0 表示不限制
	timeout time.Duration
}

// NewGrpcClient 创建一个基于官方 SDK 的 Feast gRPC 客户端。
// port 为 0 时取默认端口 6565；配置了 StaticToken 时走带凭证的连接。
func NewGrpcClient(host string, port int, project string, opts ...ClientOption) (*GrpcClient, error) {
	if port == 0 {
		port = 6565
	}

	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var client *feastsdk.GrpcClient
	var err error
	if config.StaticToken != "" {
		security := feastsdk.SecurityConfig{
			EnableTLS:  false,
			Credential: feastsdk.NewStaticCredential(config.StaticToken),
		}
		client, err = feastsdk.NewSecureGrpcClient(host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}

	return &GrpcClient{
		client:   client,
		Project:  config.Project,
		Endpoint: config.Endpoint,
		timeout:  config.Timeout,
	}, nil
}

// OnlineFeatures 获取在线特征（实现 Client 接口）。
func (c *GrpcClient) OnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeaturesResponse, error) {
	if req == nil || len(req.Features) == 0 {
		return nil, fmt.Errorf("feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, fmt.Errorf("feast: entity rows are required")
	}

	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, fmt.Errorf("feast: project is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// SDK 的 Row 类型是 map[string]*types.Value
	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			entityRow[k] = toSDKValue(v)
		}
		entityRows[i] = entityRow
	}

	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if val, exists := row[name]; exists {
				if converted := fromSDKValue(val); converted != nil {
					values[name] = converted
				}
			}
		}
		vectors[i] = FeatureVector{
			Values:    values,
			EntityRow: req.EntityRows[i],
		}
	}

	return &OnlineFeaturesResponse{Vectors: vectors}, nil
}

// Close 关闭客户端连接（实现 Client 接口）。
// 官方 SDK 没有显式的 Close，连接由 gRPC 库管理。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// toSDKValue 将 any 转为 SDK 的 *types.Value（经 SDK 辅助函数）。
func toSDKValue(v any) *feasttypes.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// fromSDKValue 把 *types.Value 还原为 Go 基础类型。
// 数值统一还原为 float64（引擎的特征值类型），字符串原样保留，
// 未置值或列表类型返回 nil（饮品属性不取列表特征）。
func fromSDKValue(val *feasttypes.Value) any {
	if val == nil {
		return nil
	}
	switch v := val.GetVal().(type) {
	case *feasttypes.Value_StringVal:
		return v.StringVal
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val)
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val)
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal)
	case *feasttypes.Value_BoolVal:
		if v.BoolVal {
			return float64(1)
		}
		return float64(0)
	case *feasttypes.Value_BytesVal:
		return string(v.BytesVal)
	default:
		return nil
	}
}

// 确保 GrpcClient 实现了 Client 接口
var _ Client = (*GrpcClient)(nil)
