package pveclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// 上游 API 路径（相对于 /api2/json）
const (
	PathTicket           = "/access/ticket"
	PathVersion          = "/version"
	PathClusterResources = "/cluster/resources"
)

// ErrMissingField 上游成功响应缺少必要字段
var ErrMissingField = errors.New("missing required field")

// StatusPath 返回 /nodes/{node}/{qemu|lxc}/{vmid}/status/{command}
func StatusPath(node, vmType, vmid, command string) string {
	return fmt.Sprintf("/nodes/%s/%s/%s/status/%s",
		url.PathEscape(node), url.PathEscape(vmType), url.PathEscape(vmid), url.PathEscape(command))
}

// envelope Proxmox 响应统一包裹在 data 字段中
type envelope[T any] struct {
	Data T `json:"data"`
}

// DecodeData 解析响应体中的 data 字段
func DecodeData[T any](resp *Response) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return env.Data, fmt.Errorf("decode response: %w", err)
	}
	return env.Data, nil
}

// TicketData POST /access/ticket 的响应
type TicketData struct {
	Username            string `json:"username"`
	Ticket              string `json:"ticket"`
	CSRFPreventionToken string `json:"CSRFPreventionToken"`
}

// Validate ticket 和 CSRF token 必须同时存在
func (t *TicketData) Validate() error {
	switch {
	case t.Ticket == "" && t.CSRFPreventionToken == "":
		return fmt.Errorf("ticket and CSRFPreventionToken: %w", ErrMissingField)
	case t.Ticket == "":
		return fmt.Errorf("ticket: %w", ErrMissingField)
	case t.CSRFPreventionToken == "":
		return fmt.Errorf("CSRFPreventionToken: %w", ErrMissingField)
	}
	return nil
}

// Credentials 转换为调用凭据
func (t *TicketData) Credentials() Credentials {
	return Credentials{Ticket: t.Ticket, CSRFToken: t.CSRFPreventionToken}
}

// VersionData GET /version 的响应
type VersionData struct {
	Version string `json:"version"`
	Release string `json:"release"`
	RepoID  string `json:"repoid"`
}

// ResourceRow GET /cluster/resources 的单行
type ResourceRow struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Node     string `json:"node"`
	VMID     int    `json:"vmid"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Template Flag   `json:"template"`
}

// Validate VM 行必须带有 node 和 vmid
func (r *ResourceRow) Validate() error {
	if r.Node == "" {
		return fmt.Errorf("node: %w", ErrMissingField)
	}
	if r.VMID <= 0 {
		return fmt.Errorf("vmid: %w", ErrMissingField)
	}
	return nil
}

// Flag Proxmox 的布尔字段，可能是 JSON bool、0/1 数字或字符串
type Flag bool

// UnmarshalJSON 实现 json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	switch string(data) {
	case "", "null", "0", "false":
		*f = false
		return nil
	case "1", "true":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid flag value %q", data)
	}
	*f = n != 0
	return nil
}

// ActionData POST /nodes/{node}/{type}/{vmid}/status/{command} 的响应，data 为任务 UPID
type ActionData string
