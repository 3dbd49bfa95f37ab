package apierror

import "net/http"

// pvegate 错误分类
var (
	// ErrValidation 用户可修正的输入错误，不会发起上游调用
	ErrValidation = &Error{
		Code:       "ValidationError",
		Message:    "The request is missing required input.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrUpstreamRejected 上游返回 401，会话必须立即失效
	ErrUpstreamRejected = &Error{
		Code:       "UpstreamRejected",
		Message:    "The Proxmox ticket is no longer valid.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrUpstreamUnavailable 上游返回非 2xx（401 除外）或连接失败
	ErrUpstreamUnavailable = &Error{
		Code:       "UpstreamUnavailable",
		Message:    "The Proxmox API could not be reached or returned an error.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrIntegrity 上游成功响应缺少必要字段
	ErrIntegrity = &Error{
		Code:       "IntegrityError",
		Message:    "The Proxmox API response is missing required fields.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrUnauthorized 请求没有携带有效会话
	ErrUnauthorized = &Error{
		Code:       "unauthorized",
		Message:    "No active session.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrSessionExpired 会话超过软过期时间
	ErrSessionExpired = &Error{
		Code:       "expired",
		Message:    "The session has expired.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrInternalError 内部错误
	ErrInternalError = &Error{
		Code:       "InternalError",
		Message:    "An internal error has occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
