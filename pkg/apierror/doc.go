// Package apierror 提供统一的错误类型，用于 pvegate 所有组件的错误处理
//
// 错误响应格式（JSON）：
//
//	{
//	    "errors": [
//	        {
//	            "code": "UpstreamRejected",
//	            "message": "The Proxmox ticket is no longer valid."
//	        }
//	    ],
//	    "requestID": "req-1234567890",
//	    "redirect": "/session-reset?reason=invalid"
//	}
//
// 错误分类：
//
//   - ErrValidation: 输入缺失，用户可修正，不会调用上游
//   - ErrUpstreamRejected: 上游 401，会话终止
//   - ErrUpstreamUnavailable: 上游非 2xx 或传输失败，在组件边界内处理
//   - ErrIntegrity: 上游成功响应缺少字段
//   - ErrUnauthorized / ErrSessionExpired: 会话守卫拒绝
//   - ErrInternalError: 内部错误
//
// 使用示例：
//
//	// 包装预定义错误并保留原始错误
//	err := apierror.WrapError(apierror.ErrUpstreamUnavailable, "Failed to list VMs", rawErr)
//
//	// 判断错误类型
//	if errors.Is(err, apierror.ErrUpstreamRejected) {
//	    // 清理会话
//	}
package apierror
