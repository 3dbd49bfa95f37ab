package pveclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// TicketCookieName Proxmox 认证 ticket 的 cookie 名称
	TicketCookieName = "PVEAuthCookie"
	// CSRFHeaderName Proxmox CSRF token 的 header（以及 cookie）名称
	CSRFHeaderName = "CSRFPreventionToken"

	apiPrefix           = "/api2/json"
	defaultTimeout      = 30 * time.Second
	defaultPreviewLimit = 160
	debugPreviewLimit   = 2048
	maxResponseBytes    = 8 << 20
)

// Caller 定义上游调用接口，便于测试和 mock
type Caller interface {
	Call(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error)
}

// Endpoint 上游 API 地址以及 TLS 校验策略
type Endpoint struct {
	Host      string
	Port      string
	VerifyTLS bool
}

// BaseURL 返回 https://{host}:{port}/api2/json
func (e Endpoint) BaseURL() string {
	hostport := e.Host
	if e.Port != "" {
		hostport = net.JoinHostPort(e.Host, e.Port)
	}
	return "https://" + hostport + apiPrefix
}

// Credentials 上游签发的 ticket 与 CSRF token
type Credentials struct {
	Ticket    string
	CSRFToken string
}

// Complete ticket 和 CSRF token 是否同时存在
func (c Credentials) Complete() bool {
	return c.Ticket != "" && c.CSRFToken != ""
}

func (c Credentials) apply(req *http.Request) {
	if c.Ticket != "" {
		req.AddCookie(&http.Cookie{Name: TicketCookieName, Value: c.Ticket})
	}
	if c.CSRFToken != "" {
		req.Header.Set(CSRFHeaderName, c.CSRFToken)
	}
}

// CredentialsFromRequest 从请求中提取凭据
// ticket 取自 PVEAuthCookie cookie；CSRF token 优先取 header，其次取同名 cookie
func CredentialsFromRequest(r *http.Request) Credentials {
	var creds Credentials
	if c, err := r.Cookie(TicketCookieName); err == nil {
		creds.Ticket = c.Value
	}
	creds.CSRFToken = r.Header.Get(CSRFHeaderName)
	if creds.CSRFToken == "" {
		if c, err := r.Cookie(CSRFHeaderName); err == nil {
			creds.CSRFToken = c.Value
		}
	}
	return creds
}

// Request 一次上游调用
type Request struct {
	Method      string
	Path        string
	Credentials Credentials
	Params      url.Values
	Form        url.Values
}

// Response 上游响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// OK 状态码是否为 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Unauthorized 上游是否拒绝了 ticket
func (r *Response) Unauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}

// Preview 返回截断后的单行响应体
func (r *Response) Preview(limit int) string {
	body := r.Body
	if len(body) > limit {
		body = body[:limit]
	}
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(string(body))
}

// Client Proxmox API 客户端
type Client struct {
	verifying *http.Client
	insecure  *http.Client
	debugHTTP bool
}

// Option 客户端配置项
type Option func(*Client)

// WithTimeout 设置单次调用的超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.verifying.Timeout = timeout
		c.insecure.Timeout = timeout
	}
}

// WithDebugHTTP 额外记录（脱敏后的）响应 header 和更长的响应体预览
func WithDebugHTTP(enabled bool) Option {
	return func(c *Client) {
		c.debugHTTP = enabled
	}
}

// New 创建客户端
func New(opts ...Option) *Client {
	verifyingTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // 仅用于显式关闭校验的自签名部署
	}

	c := &Client{
		verifying: &http.Client{Transport: verifyingTransport, Timeout: defaultTimeout},
		insecure:  &http.Client{Transport: insecureTransport, Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) httpClient(verifyTLS bool) *http.Client {
	if verifyTLS {
		return c.verifying
	}
	return c.insecure
}

// Call 发送一次上游请求
// 传输错误以 error 返回；任何 HTTP 状态码都以 Response 返回，由调用方决定如何处理
func (c *Client) Call(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error) {
	logger := zerolog.Ctx(ctx)

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := endpoint.BaseURL() + req.Path
	fullURL := target
	if len(req.Params) > 0 {
		fullURL += "?" + req.Params.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, target, err)
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Credentials.apply(httpReq)

	logger.Info().
		Str("method", method).
		Str("url", target).
		Interface("params", RedactValues(req.Params)).
		Interface("form", RedactValues(req.Form)).
		Interface("headers", RedactHeaders(httpReq.Header)).
		Bool("verify", endpoint.VerifyTLS).
		Msg("OUTBOUND")

	start := time.Now()
	httpResp, err := c.httpClient(endpoint.VerifyTLS).Do(httpReq)
	if err != nil {
		logger.Warn().
			Str("method", method).
			Str("url", target).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("Upstream request failed")
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, target, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		Elapsed:    time.Since(start),
	}

	limit := defaultPreviewLimit
	if c.debugHTTP {
		limit = debugPreviewLimit
	}
	preview := resp.Preview(limit)
	if req.Path == PathTicket {
		// ticket 签发接口的响应体包含 ticket 本身
		preview = redactedValue
	}

	event := logger.Info().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Float64("elapsed_ms", float64(resp.Elapsed.Microseconds())/1000.0).
		Str("body_preview", preview)
	if c.debugHTTP {
		event = event.Interface("response_headers", RedactHeaders(httpResp.Header))
	}
	event.Msg("INBOUND")

	return resp, nil
}
