package relay

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = pveclient.Credentials{
	Ticket:    "PVE:root@pam:65F0A1B2::c2lnbmF0dXJl",
	CSRFToken: "65F0A1B2:Y3NyZnNpZw",
}

func TestScopeFromRequest(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name     string
		host     string
		headers  map[string]string
		tls      bool
		upstream string
		want     Scope
	}{
		{
			name:     "plain host with port",
			host:     "gate.example.com:8080",
			upstream: "pve.example.com",
			want:     Scope{UIHost: "gate.example.com", UpstreamDomain: "pve.example.com"},
		},
		{
			name:     "forwarded host and proto",
			host:     "127.0.0.1:8080",
			headers:  map[string]string{"X-Forwarded-Host": "gate.example.com:443, proxy.internal", "X-Forwarded-Proto": "https"},
			upstream: "pve.example.com",
			want:     Scope{UIHost: "gate.example.com", UpstreamDomain: "pve.example.com", Secure: true},
		},
		{
			name:     "tls",
			host:     "gate.example.com",
			tls:      true,
			upstream: "gate.example.com",
			want:     Scope{UIHost: "gate.example.com", UpstreamDomain: "gate.example.com", Secure: true},
		},
		{
			name:     "ipv6",
			host:     "[::1]:8080",
			upstream: "::1",
			want:     Scope{UIHost: "::1", UpstreamDomain: "::1"},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Host = tc.host
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			assert.Equal(t, tc.want, ScopeFromRequest(r, tc.upstream))
		})
	}
}

func TestIssue_SameDomain(t *testing.T) {
	t.Parallel()

	scope := Scope{UIHost: "pve.example.com", UpstreamDomain: "pve.example.com"}
	cookies := Issue(testCreds, scope, Policy{})

	// 2 个删除 + 2 个写入
	require.Len(t, cookies, 4)
	for _, c := range cookies[:2] {
		assert.Negative(t, c.MaxAge)
		assert.Empty(t, c.Domain)
	}
	ticket, csrf := cookies[2], cookies[3]
	assert.Equal(t, pveclient.TicketCookieName, ticket.Name)
	assert.Equal(t, testCreds.Ticket, ticket.Value)
	assert.True(t, ticket.HttpOnly)
	assert.Equal(t, pveclient.CSRFHeaderName, csrf.Name)
	assert.Equal(t, testCreds.CSRFToken, csrf.Value)
	assert.False(t, csrf.HttpOnly)
	for _, c := range cookies {
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.False(t, c.Secure)
	}
}

func TestIssue_CrossDomain(t *testing.T) {
	t.Parallel()

	scope := Scope{UIHost: "gate.example.com", UpstreamDomain: "pve.example.com"}
	cookies := Issue(testCreds, scope, Policy{CrossSiteEmbedding: true})

	// 4 个删除 + host-only 一对 + domain 一对
	require.Len(t, cookies, 8)

	var domainSet []*http.Cookie
	for _, c := range cookies {
		assert.True(t, c.Secure, "cross-site embedding forces Secure")
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
		if c.Domain == "pve.example.com" && c.MaxAge >= 0 {
			domainSet = append(domainSet, c)
		}
	}
	require.Len(t, domainSet, 2)
	assert.Equal(t, testCreds.Ticket, domainSet[0].Value)
	assert.Equal(t, testCreds.CSRFToken, domainSet[1].Value)

	// 删除总在写入之前
	for i, c := range cookies {
		if c.MaxAge < 0 {
			assert.Less(t, i, 4)
		}
	}
}

func TestIssue_SecureFollowsRequest(t *testing.T) {
	t.Parallel()

	cookies := Issue(testCreds, Scope{UIHost: "a", UpstreamDomain: "a", Secure: true}, Policy{})
	for _, c := range cookies {
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	assert.Len(t, Clear(Scope{UIHost: "a", UpstreamDomain: "a"}, Policy{}), 2)

	cookies := Clear(Scope{UIHost: "gate.example.com", UpstreamDomain: "pve.example.com"}, Policy{})
	require.Len(t, cookies, 4)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
	assert.Equal(t, "pve.example.com", cookies[2].Domain)
}

// 登录时写入的 cookie 经过浏览器回传后，上游客户端能提取出同一对凭据
func TestIssue_RoundTrip(t *testing.T) {
	t.Parallel()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	uiURL, err := url.Parse("https://gate.example.com/")
	require.NoError(t, err)

	// 上一次登录残留的凭据
	jar.SetCookies(uiURL, []*http.Cookie{
		{Name: pveclient.TicketCookieName, Value: "stale", Path: "/"},
		{Name: pveclient.CSRFHeaderName, Value: "stale", Path: "/"},
	})

	scope := Scope{UIHost: "gate.example.com", UpstreamDomain: "gate.example.com", Secure: true}
	jar.SetCookies(uiURL, Issue(testCreds, scope, Policy{}))

	req := httptest.NewRequest(http.MethodGet, "https://gate.example.com/", nil)
	for _, c := range jar.Cookies(uiURL) {
		req.AddCookie(c)
	}
	assert.Equal(t, testCreds, pveclient.CredentialsFromRequest(req))

	// 清除后不再带有凭据
	jar.SetCookies(uiURL, Clear(scope, Policy{}))
	assert.Empty(t, jar.Cookies(uiURL))
}
