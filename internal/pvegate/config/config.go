package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSessionSecret 未配置密钥时使用的占位值，启动时会打印警告
const DefaultSessionSecret = "change-me-now"

type Config struct {
	// Address 是 HTTP 监听地址
	// 可以通过环境变量 PVEGATE_ADDRESS 配置；只设置 PORT 时监听 0.0.0.0:{PORT}
	// 默认：0.0.0.0:8080
	Address string

	// ProxmoxHost / ProxmoxPort / ProxmoxRealm 是登录表单的默认上游地址
	// 用户在登录时可以覆盖，覆盖后的值保存在会话中
	ProxmoxHost  string
	ProxmoxPort  string
	ProxmoxRealm string

	// VerifySSL 是否默认校验上游证书（VERIFY_SSL，默认 false，适配自签名部署）
	VerifySSL bool

	// SessionSecretKey 用于派生会话 token 的签名密钥
	// 优先 SESSION_SECRET_KEY，其次 FLASK_SECRET_KEY
	SessionSecretKey string

	// EmbedAllow 允许页面被嵌入 iframe，输出 frame-ancestors
	EmbedAllow        bool
	EmbedAllowOrigins []string

	// EmbedCookies 为 true 时转发的 cookie 使用 SameSite=None; Secure
	EmbedCookies bool

	LogLevel string

	// DebugHTTP 上游日志额外记录脱敏后的响应 header 和更长的响应体预览
	DebugHTTP bool

	UpstreamTimeout time.Duration

	// SessionSoftExpiry 会话软过期时间，必须小于上游 ticket 的有效期（约 120 分钟）
	SessionSoftExpiry time.Duration

	// ConsolePath 是反向代理到 Proxmox 控制台的路径前缀
	ConsolePath string
}

// New 读取配置
// 如果设置了 PVEGATE_CONFIG，先加载该 YAML 文件；环境变量优先于文件
func New() (*Config, error) {
	src := source{}
	if path := os.Getenv("PVEGATE_CONFIG"); path != "" {
		file, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}
	return src.build()
}

func (src source) build() (*Config, error) {
	cfg := &Config{
		Address:           src.address(),
		ProxmoxHost:       src.getString("PROXMOX_HOST", "127.0.0.1"),
		ProxmoxPort:       src.getString("PROXMOX_PORT", "8006"),
		ProxmoxRealm:      src.getString("PROXMOX_REALM", "pam"),
		VerifySSL:         src.getBool("VERIFY_SSL", false),
		SessionSecretKey:  src.sessionSecret(),
		EmbedAllow:        src.getBool("EMBED_ALLOW", true),
		EmbedAllowOrigins: splitOrigins(src.getString("EMBED_ALLOW_ORIGINS", "*")),
		EmbedCookies:      src.getBool("EMBED_COOKIES", true),
		LogLevel:          strings.ToLower(src.getString("LOG_LEVEL", "debug")),
		DebugHTTP:         src.getBool("DEBUG_HTTP", false),
		ConsolePath:       src.getString("CONSOLE_PATH", "/proxmox/"),
	}

	var err error
	if cfg.UpstreamTimeout, err = src.getDuration("UPSTREAM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionSoftExpiry, err = src.getDuration("SESSION_SOFT_EXPIRY", 110*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionSoftExpiry >= 120*time.Minute {
		return nil, fmt.Errorf("SESSION_SOFT_EXPIRY %s must be below the 120m upstream ticket lifetime", cfg.SessionSoftExpiry)
	}
	return cfg, nil
}

// DefaultSecret 是否仍在使用占位密钥
func (c *Config) DefaultSecret() bool {
	return c.SessionSecretKey == DefaultSessionSecret
}

type source struct {
	file map[string]string
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func (src source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := src.file[key]
	return v, ok && v != ""
}

func (src source) getString(key, def string) string {
	if v, ok := src.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (src source) getBool(key string, def bool) bool {
	v, ok := src.lookup(key)
	if !ok {
		return def
	}
	return parseBool(v)
}

func (src source) getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := src.lookup(key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

// address 获取监听地址，优先 PVEGATE_ADDRESS，其次 PORT
func (src source) address() string {
	if addr, ok := src.lookup("PVEGATE_ADDRESS"); ok {
		return addr
	}
	if port, ok := src.lookup("PORT"); ok {
		if _, err := strconv.Atoi(port); err == nil {
			return "0.0.0.0:" + port
		}
	}
	return "0.0.0.0:8080"
}

func (src source) sessionSecret() string {
	if v, ok := src.lookup("SESSION_SECRET_KEY"); ok {
		return v
	}
	if v, ok := src.lookup("FLASK_SECRET_KEY"); ok {
		return v
	}
	return DefaultSessionSecret
}

// parseBool 接受 1/true/yes/y（忽略大小写），其他值都为 false
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func splitOrigins(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return []string{"*"}
	}
	return fields
}
