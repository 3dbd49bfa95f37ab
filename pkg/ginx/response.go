package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/pkg/apierror"
)

// renderResponse 渲染 JSON 响应
func renderResponse(ctx *gin.Context, response any) {
	if response == nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	switch v := response.(type) {
	case string:
		ctx.String(http.StatusOK, v)
		return
	case int, int64, uint, uint64, float64, bool:
		ctx.JSON(http.StatusOK, gin.H{"value": v})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// RenderError 渲染错误响应
// *apierror.Error 使用自身的 HTTP 状态码；其他错误使用 statusCode
// 响应体总是带上请求 ID，以及（如果设置了）跳转提示
func RenderError(ctx *gin.Context, statusCode int, err error) {
	var errorResp *apierror.ErrorResponse
	var apiErr *apierror.Error

	switch {
	case errors.As(err, &errorResp):
		if len(errorResp.Errors) > 0 && errorResp.Errors[0].HTTPStatus > 0 {
			statusCode = errorResp.Errors[0].HTTPStatus
		}
	case errors.As(err, &apiErr):
		if apiErr.HTTPStatus > 0 {
			statusCode = apiErr.HTTPStatus
		}
		errorResp = apierror.NewErrorResponse("", apiErr)
	default:
		code := apierror.ErrInternalError.Code
		if statusCode == http.StatusBadRequest {
			code = apierror.ErrValidation.Code
		}
		errorResp = apierror.NewErrorResponse("", apierror.NewErrorWithStatus(code, err.Error(), statusCode))
	}

	if errorResp.RequestID == "" {
		errorResp.RequestID = RequestID(ctx)
	}
	if errorResp.Redirect == "" {
		errorResp.Redirect = redirect(ctx)
	}
	ctx.AbortWithStatusJSON(statusCode, errorResp)
}
