package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/internal/pvegate/relay"
	"github.com/jimyag/pvegate/internal/pvegate/session"
	"github.com/rs/zerolog"
)

const sessionContextKey = "pvegate.session"

// sessions 负责会话 cookie 和转发 cookie 的写入与清除
type sessions struct {
	store       *session.Store
	guard       *session.Guard
	policy      relay.Policy
	defaultHost string
}

func (s *sessions) load(c *gin.Context) entity.Session {
	return s.store.Load(c.Request)
}

func (s *sessions) scope(c *gin.Context, sess entity.Session) relay.Scope {
	host := sess.UpstreamHost
	if host == "" {
		host = s.defaultHost
	}
	return relay.ScopeFromRequest(c.Request, host)
}

// cookieOptions 会话 cookie 的属性
// 只有 HTTPS 请求才沿用转发 cookie 的策略；HTTP 下浏览器会丢弃 Secure cookie，使用 Lax
func (s *sessions) cookieOptions(scope relay.Scope) session.CookieOptions {
	if !scope.Secure {
		return session.CookieOptions{Secure: false, SameSite: http.SameSiteLaxMode}
	}
	secure, sameSite := s.policy.Attributes(scope)
	return session.CookieOptions{Secure: secure, SameSite: sameSite}
}

func (s *sessions) write(c *gin.Context, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		http.SetCookie(c.Writer, cookie)
	}
}

// issue 登录成功：写入会话 cookie 和转发 cookie
func (s *sessions) issue(c *gin.Context, sess entity.Session) error {
	scope := s.scope(c, sess)
	cookie, err := s.store.Cookie(sess, s.cookieOptions(scope))
	if err != nil {
		return err
	}
	s.write(c, relay.Issue(sess.Credentials(), scope, s.policy))
	http.SetCookie(c.Writer, cookie)
	return nil
}

// forget 清除凭据，保留上游地址偏好
func (s *sessions) forget(c *gin.Context, sess entity.Session) {
	scope := s.scope(c, sess)
	s.write(c, relay.Clear(scope, s.policy))
	cookie, err := s.store.Cookie(sess.WithoutCredentials(), s.cookieOptions(scope))
	if err != nil {
		zerolog.Ctx(c).Error().Err(err).Msg("Failed to write session cookie")
		http.SetCookie(c.Writer, s.store.ClearCookie(s.cookieOptions(scope)))
		return
	}
	http.SetCookie(c.Writer, cookie)
}

// reset 清除会话的全部内容
func (s *sessions) reset(c *gin.Context, sess entity.Session) {
	scope := s.scope(c, sess)
	s.write(c, relay.Clear(scope, s.policy))
	http.SetCookie(c.Writer, s.store.ClearCookie(s.cookieOptions(scope)))
}

func currentSession(c *gin.Context) entity.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(entity.Session); ok {
			return sess
		}
	}
	return entity.Session{}
}

func resetURL(reason entity.DenyReason) string {
	return "/session-reset?reason=" + string(reason)
}
