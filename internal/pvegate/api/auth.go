package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/rs/zerolog"
)

// AuthServiceInterface 定义登录服务的接口
type AuthServiceInterface interface {
	Login(ctx context.Context, req *entity.LoginRequest) (entity.Session, error)
	LoginView(sess entity.Session) *entity.LoginView
}

// Auth 登录、登出和会话重置
type Auth struct {
	authService AuthServiceInterface
	sessions    *sessions
}

func NewAuth(authService AuthServiceInterface, sessions *sessions) *Auth {
	return &Auth{
		authService: authService,
		sessions:    sessions,
	}
}

func (a *Auth) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", a.LoginPage)
	router.POST("/login", a.Login)
	router.GET("/logout", a.Logout)
	router.GET("/session-reset", a.SessionReset)
}

// LoginPage 登录表单，force=1 时先清除会话
func (a *Auth) LoginPage(c *gin.Context) {
	if c.Query("force") == "1" {
		a.sessions.reset(c, a.sessions.load(c))
		view := a.authService.LoginView(entity.Session{})
		view.Notice = "Session reset. Please log in again."
		c.HTML(http.StatusOK, "login", view)
		return
	}

	c.HTML(http.StatusOK, "login", a.authService.LoginView(a.sessions.load(c)))
}

// Login 提交登录表单
func (a *Auth) Login(c *gin.Context) {
	logger := zerolog.Ctx(c)

	var req entity.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to bind login form")
	}

	sess, err := a.authService.Login(c, &req)
	if err == nil {
		err = a.sessions.issue(c, sess)
	}
	if err != nil {
		logger.Warn().Err(err).Str("username", req.Username).Msg("Login rejected")
		a.sessions.forget(c, sess)

		view := a.authService.LoginView(sess)
		view.Username = req.Username
		view.Error = errorMessage(err)
		c.HTML(http.StatusOK, "login", view)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Logout 清除会话并回到登录页
func (a *Auth) Logout(c *gin.Context) {
	sess := a.sessions.load(c)
	zerolog.Ctx(c).Info().Str("user", sess.Principal).Msg("Logout")
	a.sessions.reset(c, sess)
	c.Redirect(http.StatusFound, "/login")
}

// SessionReset 会话失效提示页，清除会话后引导重新登录
func (a *Auth) SessionReset(c *gin.Context) {
	reason := entity.DenyReason(c.DefaultQuery("reason", string(entity.DenyExpired)))
	a.sessions.reset(c, a.sessions.load(c))
	c.HTML(http.StatusOK, "reset", newResetView(reason))
}

func errorMessage(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
