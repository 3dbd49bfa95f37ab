// Package pveclient 提供访问 Proxmox VE API 的 HTTP 客户端
//
// 客户端本身不保存任何凭据，每次调用由调用方传入：
//   - Endpoint: 上游主机、端口以及是否校验 TLS 证书
//   - Credentials: ticket（以 PVEAuthCookie cookie 发送）和 CSRF token（以 CSRFPreventionToken header 发送）
//
// 每次调用会在发送前后各输出一条结构化日志，日志中的敏感字段会被脱敏：
//   - authorization / cookie / set-cookie header 整体替换为 <redacted>
//   - password / passwd 字段只保留最后 4 个字符
//
// 客户端不会自动重试，传输错误和非 2xx 响应都交给调用方处理。
//
// 使用示例：
//
//	client := pveclient.New(pveclient.WithTimeout(30 * time.Second))
//	resp, err := client.Call(ctx, pveclient.Endpoint{Host: "pve.example.com", Port: "8006"}, &pveclient.Request{
//	    Method:      http.MethodGet,
//	    Path:        pveclient.PathVersion,
//	    Credentials: creds,
//	})
package pveclient
