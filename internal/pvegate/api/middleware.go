package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/ginx"
	"github.com/jimyag/pvegate/pkg/idgen"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// requestContext 为每个请求生成 ID，并把带有 request_id 的 logger 放入请求的 context
func requestContext(gen *idgen.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		requestID, err := gen.GenerateRequestID()
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to generate request ID")
		}

		logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Logger()
		ctx = logger.WithContext(idgen.WithRequestID(ctx, requestID))
		c.Request = c.Request.WithContext(ctx)

		ginx.SetRequestID(c, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// accessLog 请求结束后记录一条访问日志
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := zerolog.Ctx(c).Info()
		if status >= http.StatusInternalServerError {
			event = zerolog.Ctx(c).Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

// frameAncestors 允许页面被嵌入 iframe
// 去掉 X-Frame-Options，用 CSP frame-ancestors 声明允许的来源
func frameAncestors(origins []string) gin.HandlerFunc {
	directive := "frame-ancestors *"
	if len(origins) > 0 && origins[0] != "*" {
		directive = "frame-ancestors " + strings.Join(origins, " ")
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Del("X-Frame-Options")
		existing := header.Get("Content-Security-Policy")
		if !strings.Contains(existing, "frame-ancestors") {
			if existing != "" {
				existing += "; "
			}
			header.Set("Content-Security-Policy", existing+directive)
		}
		c.Next()
	}
}

// guardMode 会话检查失败时的响应方式
type guardMode int

const (
	// browserMode 清除会话并跳转到 /session-reset
	browserMode guardMode = iota
	// apiMode 返回 401 JSON，不修改会话
	apiMode
)

// requireSession 受保护的路由在处理前检查会话
func (s *sessions) requireSession(mode guardMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.load(c)
		decision := s.guard.Authorize(sess)
		if decision.Allowed() {
			c.Set(sessionContextKey, decision.Session)
			c.Next()
			return
		}

		zerolog.Ctx(c).Info().
			Str("reason", string(decision.Denied)).
			Str("path", c.Request.URL.Path).
			Msg("Session rejected")

		if mode == apiMode {
			ginx.SetRedirect(c, resetURL(decision.Denied))
			ginx.RenderError(c, http.StatusUnauthorized, denyError(decision.Denied))
			return
		}

		s.reset(c, sess)
		c.Redirect(http.StatusFound, resetURL(decision.Denied))
		c.Abort()
	}
}

func denyError(reason entity.DenyReason) *apierror.Error {
	if reason == entity.DenyExpired {
		return apierror.ErrSessionExpired
	}
	return apierror.ErrUnauthorized
}
