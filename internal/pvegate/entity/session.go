// Package entity 定义业务实体
package entity

import (
	"time"

	"github.com/jimyag/pvegate/pkg/pveclient"
)

// Session 浏览器会话
// 上游地址、realm 和 TLS 策略在登录时确定，会话期间不变；
// Ticket 与 CSRFToken 要么同时存在，要么同时为空
type Session struct {
	UpstreamHost string    `json:"host"`                // 上游 Proxmox 地址
	UpstreamPort string    `json:"port"`                // 上游端口
	AuthRealm    string    `json:"realm"`               // 认证 realm，如 pam、pve
	VerifyTLS    bool      `json:"verify_ssl"`          // 是否校验上游证书
	Principal    string    `json:"user,omitempty"`      // user@realm
	Ticket       string    `json:"ticket,omitempty"`    // PVEAuthCookie
	CSRFToken    string    `json:"csrf,omitempty"`      // CSRFPreventionToken
	IssuedAt     time.Time `json:"issued_at,omitempty"` // ticket 签发时间
}

// Authenticated 是否持有完整的凭据
func (s Session) Authenticated() bool {
	return s.Ticket != "" && s.CSRFToken != ""
}

// Normalize 只有 ticket 或 CSRF token 其中之一的会话视为未登录
func (s Session) Normalize() Session {
	if s.Authenticated() {
		return s
	}
	return s.WithoutCredentials()
}

// WithCredentials 返回带有新凭据的会话副本
func (s Session) WithCredentials(principal string, creds pveclient.Credentials, issuedAt time.Time) Session {
	s.Principal = principal
	s.Ticket = creds.Ticket
	s.CSRFToken = creds.CSRFToken
	s.IssuedAt = issuedAt
	return s
}

// WithoutCredentials 清除凭据，保留上游地址偏好
func (s Session) WithoutCredentials() Session {
	s.Principal = ""
	s.Ticket = ""
	s.CSRFToken = ""
	s.IssuedAt = time.Time{}
	return s
}

// Endpoint 会话对应的上游地址
func (s Session) Endpoint() pveclient.Endpoint {
	return pveclient.Endpoint{Host: s.UpstreamHost, Port: s.UpstreamPort, VerifyTLS: s.VerifyTLS}
}

// Credentials 会话持有的上游凭据
func (s Session) Credentials() pveclient.Credentials {
	return pveclient.Credentials{Ticket: s.Ticket, CSRFToken: s.CSRFToken}
}

// DenyReason 会话被拒绝的原因，同时也是 /session-reset 的 reason 参数
type DenyReason string

const (
	DenyMissing DenyReason = "missing" // 没有会话
	DenyExpired DenyReason = "expired" // 超过软过期时间
	DenyInvalid DenyReason = "invalid" // 上游返回 401
)

// Decision 会话检查结果，Denied 为空表示放行
type Decision struct {
	Session Session
	Denied  DenyReason
}

// Allowed 是否放行
func (d Decision) Allowed() bool {
	return d.Denied == ""
}
