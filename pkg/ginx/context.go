package ginx

import (
	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	requestIDKey contextKey = "ginx.request_id"
	redirectKey  contextKey = "ginx.redirect"
)

// SetRequestID 记录本次请求的 ID，错误响应会带上它
func SetRequestID(ctx *gin.Context, id string) {
	ctx.Set(string(requestIDKey), id)
}

// RequestID 返回本次请求的 ID
func RequestID(ctx *gin.Context) string {
	return ctx.GetString(string(requestIDKey))
}

// SetRedirect 设置错误响应中提示客户端跳转的地址
func SetRedirect(ctx *gin.Context, location string) {
	ctx.Set(string(redirectKey), location)
}

func redirect(ctx *gin.Context) string {
	return ctx.GetString(string(redirectKey))
}
