package session

import (
	"time"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
)

// DefaultSoftExpiry 会话软过期时间，小于上游 ticket 约 120 分钟的有效期
const DefaultSoftExpiry = 110 * time.Minute

// Guard 受保护操作前的会话检查
type Guard struct {
	softExpiry time.Duration
	now        func() time.Time
}

// GuardOption Guard 配置项
type GuardOption func(*Guard)

// WithClock 替换时钟，用于测试
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard 创建 Guard，softExpiry <= 0 时使用 DefaultSoftExpiry
func NewGuard(softExpiry time.Duration, opts ...GuardOption) *Guard {
	if softExpiry <= 0 {
		softExpiry = DefaultSoftExpiry
	}
	g := &Guard{softExpiry: softExpiry, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize 判断会话能否继续使用
// 不修改会话，拒绝后的清理由调用方负责
func (g *Guard) Authorize(sess entity.Session) entity.Decision {
	sess = sess.Normalize()
	if !sess.Authenticated() {
		return entity.Decision{Session: sess, Denied: entity.DenyMissing}
	}
	if sess.IssuedAt.IsZero() || g.now().Sub(sess.IssuedAt) > g.softExpiry {
		return entity.Decision{Session: sess, Denied: entity.DenyExpired}
	}
	return entity.Decision{Session: sess}
}

// Now 返回 Guard 使用的当前时间，登录时用它记录签发时间
func (g *Guard) Now() time.Time {
	return g.now()
}
