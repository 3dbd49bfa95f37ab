package pveclient

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	redactedValue = "<redacted>"
	maskKeepEnd   = 4
)

// Mask 只保留最后 keepEnd 个字符，其余替换为 *
// 长度不超过 keepEnd 的值整体替换
func Mask(value string, keepEnd int) string {
	if value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= keepEnd {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-keepEnd) + string(runes[len(runes)-keepEnd:])
}

// RedactHeaders 返回脱敏后的 header 副本
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		v := strings.Join(values, ", ")
		switch strings.ToLower(k) {
		case "authorization", "cookie", "set-cookie":
			v = redactedValue
		case strings.ToLower(CSRFHeaderName):
			v = Mask(v, maskKeepEnd)
		}
		out[k] = v
	}
	return out
}

// RedactValues 返回脱敏后的表单/查询参数副本
func RedactValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		v := strings.Join(vs, ",")
		switch strings.ToLower(k) {
		case "password", "passwd":
			v = Mask(v, maskKeepEnd)
		}
		out[k] = v
	}
	return out
}
