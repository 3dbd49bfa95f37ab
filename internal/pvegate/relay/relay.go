// Package relay 把上游签发的 ticket 和 CSRF token 转发为浏览器 cookie
//
// 总是在服务自身的域名下写入 host-only cookie；上游域名与服务域名不同时，
// 额外写入上游域名下的 cookie，使浏览器直接访问上游控制台时也能带上凭据
package relay

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jimyag/pvegate/pkg/pveclient"
)

var cookieNames = []string{pveclient.TicketCookieName, pveclient.CSRFHeaderName}

// Scope cookie 的作用范围
type Scope struct {
	UIHost         string // 服务自身的域名（不含端口）
	UpstreamDomain string // 上游域名，与 UIHost 相同时不写 domain cookie
	Secure         bool   // 入站请求是否为 https
}

// ScopeFromRequest 根据请求推断作用范围
// 服务域名优先取 X-Forwarded-Host 的第一个值
func ScopeFromRequest(r *http.Request, upstreamHost string) Scope {
	host := firstValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	return Scope{
		UIHost:         stripPort(host),
		UpstreamDomain: stripPort(upstreamHost),
		Secure:         r.TLS != nil || strings.EqualFold(firstValue(r.Header.Get("X-Forwarded-Proto")), "https"),
	}
}

// CrossDomain 是否需要写上游域名下的 cookie
func (s Scope) CrossDomain() bool {
	return s.UpstreamDomain != "" && !strings.EqualFold(s.UpstreamDomain, s.UIHost)
}

// Policy cookie 策略
type Policy struct {
	// CrossSiteEmbedding 页面会被跨站嵌入，cookie 使用 SameSite=None 并强制 Secure
	CrossSiteEmbedding bool
}

// Attributes 返回 Secure 和 SameSite 属性
func (p Policy) Attributes(scope Scope) (secure bool, sameSite http.SameSite) {
	if p.CrossSiteEmbedding {
		return true, http.SameSiteNoneMode
	}
	return scope.Secure, http.SameSiteLaxMode
}

// Issue 返回需要写入的 cookie，按顺序写入
// 先删除已有的同名 cookie，再写 host-only 的一对，最后（跨域时）写 domain cookie
func Issue(creds pveclient.Credentials, scope Scope, policy Policy) []*http.Cookie {
	secure, sameSite := policy.Attributes(scope)

	cookies := Clear(scope, policy)
	cookies = append(cookies, pair(creds, "", secure, sameSite)...)
	if scope.CrossDomain() {
		cookies = append(cookies, pair(creds, scope.UpstreamDomain, secure, sameSite)...)
	}
	return cookies
}

// Clear 返回删除两个凭据 cookie 的 cookie（host-only 以及跨域时的 domain cookie）
func Clear(scope Scope, policy Policy) []*http.Cookie {
	secure, sameSite := policy.Attributes(scope)

	domains := []string{""}
	if scope.CrossDomain() {
		domains = append(domains, scope.UpstreamDomain)
	}

	cookies := make([]*http.Cookie, 0, len(domains)*len(cookieNames))
	for _, domain := range domains {
		for _, name := range cookieNames {
			cookies = append(cookies, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				Domain:   domain,
				MaxAge:   -1,
				Expires:  time.Unix(0, 0),
				HttpOnly: name == pveclient.TicketCookieName,
				Secure:   secure,
				SameSite: sameSite,
			})
		}
	}
	return cookies
}

// pair ticket 为 HttpOnly；CSRF token 需要被页面脚本读取，不设置 HttpOnly
func pair(creds pveclient.Credentials, domain string, secure bool, sameSite http.SameSite) []*http.Cookie {
	return []*http.Cookie{
		{
			Name:     pveclient.TicketCookieName,
			Value:    creds.Ticket,
			Path:     "/",
			Domain:   domain,
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		},
		{
			Name:     pveclient.CSRFHeaderName,
			Value:    creds.CSRFToken,
			Path:     "/",
			Domain:   domain,
			Secure:   secure,
			SameSite: sameSite,
		},
	}
}

func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func stripPort(hostport string) string {
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return strings.Trim(hostport, "[]")
}
