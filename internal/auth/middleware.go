package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// gin 上下文中的键
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// Middleware JWT 认证中间件
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
			})
			return
		}

		// 将用户信息存储到上下文
		c.Set(ContextUserID, claims.EmployeeID)
		c.Set(ContextClaims, claims)
		ctx := WithActor(c.Request.Context(), claims.Actor())
		ctx = WithSession(ctx, claims.SessionID())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole 限制只有指定角色可以访问
func RequireRole(roles ...domain.ApprovalRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "unauthenticated",
			})
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "permission denied",
		})
	}
}

// ClaimsFromGin 从 gin 上下文读取令牌声明
func ClaimsFromGin(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// bearerToken 读取 Authorization 头，WebSocket 握手时也接受 token 查询参数
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if header != "" {
		return strings.TrimSpace(header)
	}
	return c.Query("token")
}
