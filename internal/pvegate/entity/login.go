package entity

import (
	"strings"

	"github.com/jimyag/pvegate/pkg/apierror"
)

// LoginRequest 登录表单
type LoginRequest struct {
	Username  string `form:"username"`
	Password  string `form:"password"`
	Host      string `form:"host"`
	Port      string `form:"port"`
	Realm     string `form:"realm"`
	VerifySSL string `form:"verify_ssl"` // 复选框，存在即为 true
}

// IsValid 用户名和密码不能为空
func (r *LoginRequest) IsValid() error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return apierror.WrapError(apierror.ErrValidation, "Username and password are required.", nil)
	}
	return nil
}

// Principal 返回 user@realm
// 用户名中恰好有一个 @ 且两侧非空时，@ 后面的部分覆盖表单中的 realm
func (r *LoginRequest) Principal(defaultRealm string) (user, realm string) {
	user = strings.TrimSpace(r.Username)
	realm = strings.TrimSpace(r.Realm)
	if realm == "" {
		realm = defaultRealm
	}
	if strings.Count(user, "@") == 1 {
		name, suffix, _ := strings.Cut(user, "@")
		if name != "" && suffix != "" {
			return name, suffix
		}
	}
	return user, realm
}

// LoginView 登录页面需要的数据
type LoginView struct {
	Host      string
	Port      string
	Realm     string
	VerifySSL bool
	Username  string
	Error     string
	Notice    string
}
