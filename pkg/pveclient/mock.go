package pveclient

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCaller 是 Caller 的 mock 实现
type MockCaller struct {
	mock.Mock
}

// NewMockCaller 创建 MockCaller
func NewMockCaller() *MockCaller {
	return &MockCaller{}
}

func (m *MockCaller) Call(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error) {
	args := m.Called(ctx, endpoint, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

// JSONResponse 构造一个带有 JSON 响应体的 Response，便于测试
func JSONResponse(status int, body string) *Response {
	return &Response{StatusCode: status, Body: []byte(body)}
}
