// Package session 保存浏览器会话并在受保护的操作前检查会话
//
// 会话完全保存在客户端：HS256 签名的 JWT 放在 HttpOnly cookie 中，服务端不保存任何状态
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
)

// CookieName 会话 cookie 名称
const CookieName = "pvegate_session"

const (
	issuer  = "pvegate"
	keyInfo = "pvegate session signing key v1"
	keySize = 32
)

// claims 会话 token 的内容
// 不设置 exp：软过期由 Guard 根据 ticket 签发时间判断
type claims struct {
	jwt.RegisteredClaims
	Session entity.Session `json:"sess"`
}

// Store 会话的编码与解码
type Store struct {
	key []byte
	now func() time.Time
}

// NewStore 从配置的密钥派生签名密钥
func NewStore(secret string) (*Store, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &Store{key: key, now: time.Now}, nil
}

// Encode 把会话签名为 token
func (s *Store) Encode(sess entity.Session) (string, error) {
	sess = sess.Normalize()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  sess.Principal,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		Session: sess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Decode 校验并解析 token
func (s *Store) Decode(token string) (entity.Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return entity.Session{}, fmt.Errorf("parse session: %w", err)
	}
	return c.Session.Normalize(), nil
}

// Load 从请求中读取会话
// 没有 cookie 或 token 无效时返回空会话
func (s *Store) Load(r *http.Request) entity.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return entity.Session{}
	}
	sess, err := s.Decode(cookie.Value)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Discarding unreadable session cookie")
		return entity.Session{}
	}
	return sess
}

// CookieOptions 会话 cookie 的属性
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// Cookie 返回保存会话的 cookie
func (s *Store) Cookie(sess entity.Session, opts CookieOptions) (*http.Cookie, error) {
	token, err := s.Encode(sess)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}, nil
}

// ClearCookie 返回删除会话的 cookie
func (s *Store) ClearCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}
