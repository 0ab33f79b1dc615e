package feast

import (
	"context"
	"testing"
)

// TestGrpcClient_OnlineFeatures 测试 gRPC 客户端的基本功能
// 注意：这是一个示例测试，实际使用时需要连接真实的 Feast 服务器
func TestGrpcClient_OnlineFeatures(t *testing.T) {
	t.Skip("需要连接真实的 Feast 服务器才能运行")

	ctx := context.Background()

	client, err := NewGrpcClient("localhost", 6565, "sipkit")
	if err != nil {
		t.Fatalf("创建客户端失败: %v", err)
	}
	defer client.Close()

	req := &OnlineFeaturesRequest{
		Features: []string{
			"drink_stats:popularity",
			"drink_stats:rating_avg",
		},
		EntityRows: []map[string]any{
			{"drink_id": "latte"},
			{"drink_id": "matcha_latte"},
		},
	}

	resp, err := client.OnlineFeatures(ctx, req)
	if err != nil {
		t.Fatalf("获取特征失败: %v", err)
	}

	if len(resp.Vectors) != 2 {
		t.Errorf("期望 2 个特征向量，实际得到 %d 个", len(resp.Vectors))
	}

	for i, fv := range resp.Vectors {
		if len(fv.Values) == 0 {
			t.Errorf("特征向量 %d 为空", i)
		}
		t.Logf("特征向量 %d: %+v", i, fv.Values)
	}
}

// TestSDKValueRoundTrip 测试值类型转换（to/from SDK 往返）
func TestSDKValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"string", "latte", "latte"},
		{"int", 100, float64(100)},
		{"int64", int64(42), float64(42)},
		{"int32", int32(7), float64(7)},
		{"float64", 3.14, 3.14},
		{"float32", float32(0.5), float64(0.5)},
		{"bool_true", true, float64(1)},
		{"bool_false", false, float64(0)},
		{"bytes", []byte("oat"), "oat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdkVal := toSDKValue(tt.input)
			if sdkVal == nil {
				t.Fatalf("toSDKValue(%v) 不应该为 nil", tt.input)
			}
			got := fromSDKValue(sdkVal)
			if got != tt.want {
				t.Errorf("往返转换 %v: 期望 %v (%T)，实际 %v (%T)", tt.input, tt.want, tt.want, got, got)
			}
		})
	}
}

func TestFromSDKValueNil(t *testing.T) {
	if got := fromSDKValue(nil); got != nil {
		t.Errorf("nil 输入应该返回 nil，实际得到 %v", got)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		wantHost string
		wantPort int
	}{
		{"localhost:6565", "localhost", 6565},
		{"grpc://feast.internal:6566", "feast.internal", 6566},
		{"http://localhost:6566", "localhost", 6566},
		{"feast.internal", "feast.internal", 0},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, port := parseEndpoint(tt.endpoint)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseEndpoint(%q) = (%q, %d)，期望 (%q, %d)",
					tt.endpoint, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
