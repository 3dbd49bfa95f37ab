package ginx

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func isJSONRequest(ctx *gin.Context) bool {
	return strings.Contains(ctx.GetHeader("Content-Type"), "application/json")
}

// bindArgs 绑定请求参数到 args 结构体
// JSON body 优先；否则按 form / query 绑定。URI 参数总是额外绑定
func bindArgs(ctx *gin.Context, args any) error {
	var err error
	switch {
	case isJSONRequest(ctx):
		err = ctx.ShouldBindWith(args, binding.JSON)
	case ctx.Request.Method == "GET" || ctx.Request.Method == "DELETE":
		err = ctx.ShouldBindQuery(args)
	default:
		err = ctx.ShouldBind(args)
	}
	if err != nil {
		return err
	}
	if len(ctx.Params) > 0 {
		return ctx.ShouldBindUri(args)
	}
	return nil
}
