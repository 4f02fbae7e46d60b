package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
)

// Handler WebSocket 处理器
//
// 浏览器无法为 WebSocket 设置请求头，令牌也可以放在 token 查询参数中。
func Handler(hub *Hub, tokens *auth.TokenManager, allowedOrigins []string) gin.HandlerFunc {
	upgrader := gorillaWS.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}

	return func(c *gin.Context) {
		// 1. 读取令牌
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "missing token"})
			return
		}

		// 2. 验证令牌
		claims, err := tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid token"})
			return
		}

		// 3. 升级连接，失败时 upgrader 已写入响应
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.WithError(err).Warn("failed to upgrade websocket connection")
			return
		}

		// 4. 注册客户端并启动读写
		client := NewClient(uuid.New().String(), claims.EmployeeID, hub, conn)
		hub.Register <- client
		go client.ReadPump()
		go client.WritePump()
	}
}

// originAllowed 未携带 Origin 或命中允许列表时放行
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
