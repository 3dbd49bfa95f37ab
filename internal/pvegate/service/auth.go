// Package service 提供业务逻辑层的服务实现
package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/idgen"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/rs/zerolog"
)

// Defaults 登录表单未填写时使用的上游地址
type Defaults struct {
	Host      string
	Port      string
	Realm     string
	VerifyTLS bool
}

// Session 没有任何凭据、只带默认上游地址的会话
func (d Defaults) Session() entity.Session {
	return entity.Session{
		UpstreamHost: d.Host,
		UpstreamPort: d.Port,
		AuthRealm:    d.Realm,
		VerifyTLS:    d.VerifyTLS,
	}
}

// AuthService 登录服务：获取 ticket 并验证
type AuthService struct {
	client   pveclient.Caller
	defaults Defaults
	now      func() time.Time
}

// NewAuthService 创建登录服务
func NewAuthService(client pveclient.Caller, defaults Defaults, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		client:   client,
		defaults: defaults,
		now:      now,
	}
}

// LoginView 登录页面的预填内容，来自会话中记住的上游地址
func (s *AuthService) LoginView(sess entity.Session) *entity.LoginView {
	view := &entity.LoginView{
		Host:      sess.UpstreamHost,
		Port:      sess.UpstreamPort,
		Realm:     sess.AuthRealm,
		VerifySSL: sess.VerifyTLS,
	}
	if view.Host == "" {
		view.Host = s.defaults.Host
		view.VerifySSL = s.defaults.VerifyTLS
	}
	if view.Port == "" {
		view.Port = s.defaults.Port
	}
	if view.Realm == "" {
		view.Realm = s.defaults.Realm
	}
	return view
}

// Login 登录
// 无论成功与否都返回会话：失败时会话只保存用户填写的上游地址，用于重新渲染表单
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (entity.Session, error) {
	logger := zerolog.Ctx(ctx)
	requestID := idgen.RequestIDFromContext(ctx)

	user, realm := req.Principal(s.defaults.Realm)
	sess := entity.Session{
		UpstreamHost: firstNonEmpty(req.Host, s.defaults.Host),
		UpstreamPort: firstNonEmpty(req.Port, s.defaults.Port),
		AuthRealm:    realm,
		VerifyTLS:    checkboxChecked(req.VerifySSL),
	}

	if err := req.IsValid(); err != nil {
		return sess, err
	}

	principal := user + "@" + realm
	logger.Info().
		Str("user", principal).
		Str("host", sess.UpstreamHost).
		Str("port", sess.UpstreamPort).
		Bool("verify", sess.VerifyTLS).
		Msg("Login attempt")

	// 1. 获取 ticket
	resp, err := s.client.Call(ctx, sess.Endpoint(), &pveclient.Request{
		Method: http.MethodPost,
		Path:   pveclient.PathTicket,
		Form:   url.Values{"username": {principal}, "password": {req.Password}},
	})
	if err != nil {
		logger.Error().Err(err).Str("user", principal).Msg("Ticket request failed")
		return sess, loginFailure(apierror.ErrUpstreamUnavailable, requestID, err.Error(), err)
	}
	if !resp.OK() {
		base := apierror.ErrUpstreamUnavailable
		if resp.Unauthorized() {
			base = apierror.ErrUpstreamRejected
		}
		logger.Warn().Int("status", resp.StatusCode).Str("user", principal).Msg("Ticket request rejected")
		return sess, loginFailure(base, requestID, fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode), nil)
	}

	ticket, err := pveclient.DecodeData[pveclient.TicketData](resp)
	if err == nil {
		err = ticket.Validate()
	}
	if err != nil {
		logger.Error().Err(err).Str("user", principal).Msg("Ticket response is incomplete")
		return sess, loginFailure(apierror.ErrIntegrity, requestID, "ticket response is incomplete", err)
	}

	// 2. 用新凭据验证 ticket 可用
	authed := sess.WithCredentials(principal, ticket.Credentials(), s.now())
	if err := s.validate(ctx, authed); err != nil {
		return sess, err
	}

	logger.Info().Str("user", principal).Msg("Login succeeded")
	return authed, nil
}

func (s *AuthService) validate(ctx context.Context, sess entity.Session) error {
	logger := zerolog.Ctx(ctx)

	resp, err := s.client.Call(ctx, sess.Endpoint(), &pveclient.Request{
		Method:      http.MethodGet,
		Path:        pveclient.PathVersion,
		Credentials: sess.Credentials(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Ticket validation call failed")
		return apierror.WrapError(apierror.ErrUpstreamUnavailable, "Ticket validation exception; please login again.", err)
	}
	if !resp.OK() {
		logger.Warn().Int("status", resp.StatusCode).Msg("Ticket validation rejected")
		base := apierror.ErrUpstreamUnavailable
		if resp.Unauthorized() {
			base = apierror.ErrUpstreamRejected
		}
		return apierror.WrapError(base, fmt.Sprintf("Ticket validation failed (HTTP %d). Please retry.", resp.StatusCode), nil)
	}

	if version, err := pveclient.DecodeData[pveclient.VersionData](resp); err == nil {
		logger.Debug().Str("version", version.Version).Msg("Ticket validated")
	}
	return nil
}

func loginFailure(base *apierror.Error, requestID, detail string, raw error) *apierror.Error {
	return apierror.WrapError(base, fmt.Sprintf("Login failed (Request ID: %s): %s", requestID, detail), raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// checkboxChecked 复选框提交的值
func checkboxChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
