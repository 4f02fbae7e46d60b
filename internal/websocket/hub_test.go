package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// TestHub_NotifyWithoutRun 测试 Hub 未运行时通知不阻塞
func TestHub_NotifyWithoutRun(t *testing.T) {
	hub := websocket.NewHub(quietLogger())
	for i := 0; i < 200; i++ {
		hub.Notify("logs.changed", map[string]int{"i": i})
	}
	assert.Zero(t, hub.ClientCount())
}

// TestHandler 测试连接认证与事件推送
func TestHandler(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour, "test")
	hub := websocket.NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", websocket.Handler(hub, tokens, []string{"*"}))
	server := httptest.NewServer(router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	// 1. 缺少令牌
	_, resp, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 2. 有效令牌
	token, _, err := tokens.Issue(domain.Employee{ID: "e1", Name: "김교사", Position: "직업훈련교사"})
	require.NoError(t, err)
	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// 3. 收到事件
	hub.Notify("approvals.changed", map[string][]string{"ids": {"log-1"}})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event websocket.Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, "approvals.changed", event.Event)
	assert.False(t, event.At.IsZero())
}
