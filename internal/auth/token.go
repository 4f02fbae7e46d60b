package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// Claims 登录令牌声明
type Claims struct {
	EmployeeID string              `json:"eid"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Role       domain.ApprovalRole `json:"role"`
	jwt.RegisteredClaims
}

// SessionID 会话 ID，每次登录生成新的值
func (c *Claims) SessionID() string {
	return c.ID
}

// Actor 转换为操作者
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{
		EmployeeID: c.EmployeeID,
		Name:       c.Name,
		Role:       c.Role,
	}
}

// TokenManager HS256 令牌签发与校验
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager 创建令牌管理器
func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue 为员工签发令牌
func (m *TokenManager) Issue(e domain.Employee) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		EmployeeID: e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Role:       e.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   e.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// Validate 校验令牌
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
