// Package session 读取登录流程写入的 auth_token / user_info。
// token 对客户端而言是不透明的，这里只做展示用的声明解析，不做签名校验。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenEmpty = errors.New("session token is empty")

// Claims token 中可读取的声明（未校验签名）
type Claims struct {
	Subject   string     `json:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
}

// Expired 判断 token 是否已过期；无过期时间视为未过期
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(*c.ExpiresAt)
}

// Info 会话摘要
type Info struct {
	Authenticated bool            `json:"authenticated"`
	User          json.RawMessage `json:"user,omitempty"`
	Claims        *Claims         `json:"claims,omitempty"`
}

// Manager 会话读写
type Manager struct {
	storage storage.Storage
}

// NewManager 创建会话管理器
func NewManager(s storage.Storage) *Manager {
	return &Manager{storage: s}
}

// Token 读取 bearer token；不存在或读取失败返回空串
func (m *Manager) Token(ctx context.Context) string {
	if m == nil || m.storage == nil {
		return ""
	}
	raw, ok, err := m.storage.Load(ctx, constants.StorageKeyToken)
	if err != nil {
		logger.Warnw("session_token_load_failed", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return normalizeToken(raw)
}

// UserInfo 读取用户资料 JSON
func (m *Manager) UserInfo(ctx context.Context) (json.RawMessage, bool) {
	if m == nil || m.storage == nil {
		return nil, false
	}
	raw, ok, err := m.storage.Load(ctx, constants.StorageKeyUserInfo)
	if err != nil {
		logger.Warnw("session_user_info_load_failed", "error", err)
		return nil, false
	}
	if !ok || !json.Valid(raw) {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// SignIn 保存登录流程交给客户端的 token 与用户资料
func (m *Manager) SignIn(ctx context.Context, token string, user json.RawMessage) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenEmpty
	}
	if err := m.storage.Save(ctx, constants.StorageKeyToken, []byte(token)); err != nil {
		return err
	}
	if len(user) > 0 && json.Valid(user) {
		return m.storage.Save(ctx, constants.StorageKeyUserInfo, user)
	}
	return m.storage.Delete(ctx, constants.StorageKeyUserInfo)
}

// SignOut 删除 token 与用户资料
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.storage.Delete(ctx, constants.StorageKeyToken); err != nil {
		return err
	}
	return m.storage.Delete(ctx, constants.StorageKeyUserInfo)
}

// Info 返回会话摘要
func (m *Manager) Info(ctx context.Context) Info {
	token := m.Token(ctx)
	if token == "" {
		return Info{}
	}
	info := Info{Authenticated: true}
	if user, ok := m.UserInfo(ctx); ok {
		info.User = user
	}
	if claims, err := DecodeClaims(token); err == nil {
		info.Claims = claims
	}
	return info
}

// DecodeClaims 解析 JWT 形式 token 的声明（不校验签名）
func DecodeClaims(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenEmpty
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iss, err := parsed.Claims.GetIssuer(); err == nil {
		claims.Issuer = iss
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	if iat, err := parsed.Claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		claims.IssuedAt = &t
	}
	return claims, nil
}

// 兼容前端以 JSON 字符串形式写入的 token
func normalizeToken(raw []byte) string {
	value := strings.TrimSpace(string(raw))
	if strings.HasPrefix(value, `"`) {
		var decoded string
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			value = strings.TrimSpace(decoded)
		}
	}
	return value
}
