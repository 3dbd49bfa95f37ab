// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和 JSON 响应处理
//
// 支持的 handler 函数签名：
//
//	// 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)
//
//	// 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)
//
//	// 无参数，只有返回值
//	func(c *gin.Context) resp
//
// 参数绑定：Content-Type 为 application/json 时解析 JSON body，否则按 form/query 解析。
// 参数实现 IsValid() error 时会在调用 handler 前校验。
//
// 错误响应统一为 apierror.ErrorResponse，带上 SetRequestID 记录的请求 ID
// 以及 SetRedirect 设置的跳转提示：
//
//	router.POST("/api/bulk", ginx.Adapt5(func(c *gin.Context, args *BulkArgs) (*BulkResult, error) {
//	    return svc.Execute(c, args)
//	}))
package ginx
