package feast

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Client 是 Feast Feature Store 在线特征的客户端接口。
//
// Feast 在这套引擎里扮演可选的饮品属性来源：目录团队把饮品特征
// 物化进在线库后，引擎通过此接口按需取数，而不直连目录数据库。
// 只收敛到在线读取一个动作；注册、物化、离线训练数据都属于
// 特征平台侧的职责，不进入引擎。
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// OnlineFeatures 批量获取实体的在线特征
	OnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// OnlineFeaturesRequest 在线特征请求。
type OnlineFeaturesRequest struct {
	// Features 特征引用列表，形如 "drink_attributes:sweetness"
	Features []string

	// EntityRows 实体行，例如 [{"drink_id": "latte"}]
	EntityRows []map[string]any

	// Project 项目名称，空时用客户端默认项目
	Project string
}

// OnlineFeaturesResponse 在线特征响应，Vectors 与请求实体行一一对应。
type OnlineFeaturesResponse struct {
	Vectors []FeatureVector
}

// FeatureVector 单个实体的特征值集合。
type FeatureVector struct {
	// Values 特征值，key 为特征引用
	Values map[string]any

	// EntityRow 对应的请求实体行
	EntityRow map[string]any
}

// ClientConfig 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// StaticToken 非空时走带凭证的连接
	StaticToken string
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// WithTimeout 设置单次调用超时。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithStaticToken 设置静态 Token 凭证。
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.StaticToken = token
	}
}

// NewClient 按端点创建 gRPC 客户端。
// 端点形如 "localhost:6565" 或 "grpc://localhost:6565"，缺省端口 6565。
func NewClient(endpoint, project string, opts ...ClientOption) (Client, error) {
	host, port := parseEndpoint(endpoint)
	return NewGrpcClient(host, port, project, opts...)
}

// parseEndpoint 解析端点地址，返回 host 和 port（无端口时返回 0）。
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")

	parts := strings.Split(endpoint, ":")
	if len(parts) == 2 {
		if port, err := strconv.Atoi(parts[1]); err == nil {
			return parts[0], port
		}
	}
	return endpoint, 0
}
