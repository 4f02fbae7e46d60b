package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jarcoal/httpmock"
	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/container"
	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Detail  string          `json:"detail"`
}

// newRouter 创建完整路由，远程请求全部由 httpmock 拒绝
func newRouter(t *testing.T) (*gin.Engine, *container.Container) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Backup.Dir = t.TempDir()
	cfg.RateLimit.RPS = 0
	cfg.Sheet.ScriptURL = ""

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	transport := httpmock.NewMockTransport()
	ctr, err := container.NewWithDB(cfg, db, logger, &http.Client{Transport: transport})
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Close() })

	// 名册：负责人、事务局长、院长
	ctx := context.Background()
	for _, req := range []service.EmployeeRequest{
		{Name: "김교사", Position: "직업훈련교사", Email: "teacher@test.kr", Password: "pw-teacher"},
		{Name: "박국장", Position: "사무국장", Email: "manager@test.kr", Password: "pw-manager"},
		{Name: "최원장", Position: "원장", Email: "director@test.kr", Password: "pw-director"},
	} {
		req := req
		_, err := ctr.RosterService().CreateEmployee(ctx, &req)
		require.NoError(t, err)
	}
	return ctr.Router(), ctr
}

func do(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func login(t *testing.T, router http.Handler, email, password string) string {
	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.LoginResult
	decode(t, w, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}

// TestRoutes_Health 测试健康检查
func TestRoutes_Health(t *testing.T) {
	router, _ := newRouter(t)

	w := do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

// TestRoutes_Auth 测试登录与认证
func TestRoutes_Auth(t *testing.T) {
	router, _ := newRouter(t)

	// 1. 密码错误
	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "teacher@test.kr", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 2. 缺少令牌
	w = do(t, router, http.MethodGet, "/api/v1/logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 3. 无效令牌
	w = do(t, router, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 4. 登录后读取当前员工，不返回密码
	token := login(t, router, "manager@test.kr", "pw-manager")
	w = do(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]interface{}
	decode(t, w, &me)
	assert.Equal(t, "박국장", me["name"])
	assert.Empty(t, me["password"])
}

// TestRoutes_LogLifecycle 测试创建日志、审批与文档输出
func TestRoutes_LogLifecycle(t *testing.T) {
	router, _ := newRouter(t)
	teacherToken := login(t, router, "teacher@test.kr", "pw-teacher")
	managerToken := login(t, router, "manager@test.kr", "pw-manager")
	directorToken := login(t, router, "director@test.kr", "pw-director")

	// 1. 准备名册
	w := do(t, router, http.MethodPost, "/api/v1/jobs", teacherToken, gin.H{"title": "포장", "description": "제품 포장"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var job map[string]interface{}
	decode(t, w, &job)

	w = do(t, router, http.MethodPost, "/api/v1/trainees", teacherToken, gin.H{"name": "홍길동"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var trainee map[string]interface{}
	decode(t, w, &trainee)

	// 2. 请求体缺少必填字段
	w = do(t, router, http.MethodPost, "/api/v1/logs", teacherToken, gin.H{"date": "2024-03-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 3. 同一学员重复评价
	dup := gin.H{
		"date": "2024-03-01", "taskId": job["id"], "instructorName": "김교사",
		"evaluations": []gin.H{{"traineeId": trainee["id"], "score": 3}, {"traineeId": trainee["id"], "score": 4}},
	}
	w = do(t, router, http.MethodPost, "/api/v1/logs", teacherToken, dup)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 4. 创建日志，未配置脚本时不排队同步
	w = do(t, router, http.MethodPost, "/api/v1/logs", teacherToken, gin.H{
		"date": "2024-03-01", "taskId": job["id"], "instructorName": "김교사", "aiSummary": "양호",
		"evaluations": []gin.H{{"traineeId": trainee["id"], "score": 4, "note": "집중"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.CreateLogResult
	decode(t, w, &created)
	require.NotNil(t, created.Log)
	assert.False(t, created.SyncQueued)
	logID := created.Log.ID
	escaped := url.PathEscape(logID)

	// 重复提交同一日志
	w = do(t, router, http.MethodPost, "/api/v1/logs", teacherToken, gin.H{
		"date": "2024-03-01", "taskId": job["id"], "instructorName": "김교사",
		"evaluations": []gin.H{{"traineeId": trainee["id"], "score": 2}},
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// 驳回必须填写理由
	w = do(t, router, http.MethodPost, "/api/v1/approvals/"+escaped+"/reject", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, router, http.MethodPost, "/api/v1/approvals/"+escaped+"/reject", managerToken, gin.H{"reason": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 5. 列表与详情，远程读取失败时仍返回本地数据
	w = do(t, router, http.MethodGet, "/api/v1/logs?date=2024-03-01", teacherToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var logs []map[string]interface{}
	decode(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, logID, logs[0]["id"])

	w = do(t, router, http.MethodGet, "/api/v1/logs/"+escaped, teacherToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodGet, "/api/v1/logs/log-missing", teacherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 6. 院长不能跳过事务局长
	w = do(t, router, http.MethodPost, "/api/v1/approvals/"+escaped+"/approve", directorToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 7. 事务局长批准后进入院长待办
	w = do(t, router, http.MethodPost, "/api/v1/approvals/"+escaped+"/approve", managerToken, gin.H{"comment": "확인"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/approvals/queue", directorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue struct {
		Pending []map[string]interface{} `json:"pending"`
	}
	decode(t, w, &queue)
	require.Len(t, queue.Pending, 1)
	assert.Equal(t, logID, queue.Pending[0]["id"])

	// 8. 打印文档
	w = do(t, router, http.MethodGet, "/api/v1/logs/"+escaped+"/document", teacherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "홍길동")

	// 9. 未配置脚本时保存到云端失败
	w = do(t, router, http.MethodPost, "/api/v1/logs/"+escaped+"/document/drive", teacherToken, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	// 10. 导出 xlsx
	w = do(t, router, http.MethodGet, "/api/v1/export/logs.xlsx", teacherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	// 11. 统计
	w = do(t, router, http.MethodGet, "/api/v1/stats/approvals", teacherToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRoutes_LogIDWithSlash 测试职务名包含斜杠时日志仍可寻址
func TestRoutes_LogIDWithSlash(t *testing.T) {
	router, _ := newRouter(t)
	teacherToken := login(t, router, "teacher@test.kr", "pw-teacher")
	managerToken := login(t, router, "manager@test.kr", "pw-manager")

	w := do(t, router, http.MethodPost, "/api/v1/jobs", teacherToken, gin.H{"title": "포장/조립"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var job map[string]interface{}
	decode(t, w, &job)
	w = do(t, router, http.MethodPost, "/api/v1/trainees", teacherToken, gin.H{"name": "홍길동"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var trainee map[string]interface{}
	decode(t, w, &trainee)

	w = do(t, router, http.MethodPost, "/api/v1/logs", teacherToken, gin.H{
		"date": "2024-03-01", "taskId": job["id"], "instructorName": "김교사",
		"evaluations": []gin.H{{"traineeId": trainee["id"], "score": 4}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.CreateLogResult
	decode(t, w, &created)
	require.NotNil(t, created.Log)
	assert.Contains(t, created.Log.ID, "포장/조립")
	escaped := url.PathEscape(created.Log.ID)

	// 转义后的 ID 可读取与审批
	w = do(t, router, http.MethodGet, "/api/v1/logs/"+escaped, teacherToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPost, "/api/v1/approvals/"+escaped+"/approve", managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved map[string]interface{}
	decode(t, w, &approved)
	assert.Equal(t, created.Log.ID, approved["id"])
}

// TestRoutes_RoleRestrictions 测试管理操作的角色限制
func TestRoutes_RoleRestrictions(t *testing.T) {
	router, _ := newRouter(t)
	teacherToken := login(t, router, "teacher@test.kr", "pw-teacher")
	directorToken := login(t, router, "director@test.kr", "pw-director")

	w := do(t, router, http.MethodGet, "/api/v1/backups", teacherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, router, http.MethodPut, "/api/v1/settings", teacherToken, gin.H{"facilityName": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 院长可以管理备份
	w = do(t, router, http.MethodPost, "/api/v1/backups", directorToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.BackupInfo
	decode(t, w, &info)
	assert.NotEmpty(t, info.Filename)

	w = do(t, router, http.MethodGet, "/api/v1/backups", directorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var backups []service.BackupInfo
	decode(t, w, &backups)
	assert.Len(t, backups, 1)

	w = do(t, router, http.MethodDelete, "/api/v1/backups/not-a-backup.txt", directorToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 审计记录包含备份操作
	w = do(t, router, http.MethodGet, "/api/v1/audit?limit=10", directorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backup")
}

// TestRoutes_Settings 测试读取与更新设置
func TestRoutes_Settings(t *testing.T) {
	router, _ := newRouter(t)
	token := login(t, router, "director@test.kr", "pw-director")

	w := do(t, router, http.MethodPut, "/api/v1/settings", token, gin.H{"facilityName": "새작업장", "autoSync": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings map[string]interface{}
	decode(t, w, &settings)
	assert.Equal(t, "새작업장", settings["facilityName"])
	assert.Equal(t, false, settings["autoSync"])
}

// TestRoutes_SyncErrors 测试远程错误的状态码映射
func TestRoutes_SyncErrors(t *testing.T) {
	router, _ := newRouter(t)
	token := login(t, router, "teacher@test.kr", "pw-teacher")

	// 1. 远程读取失败
	w := do(t, router, http.MethodPost, "/api/v1/sync/refresh", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// 2. 未配置脚本
	w = do(t, router, http.MethodPost, "/api/v1/sync/test", token, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "remote sheet is not configured", env.Message)

	// 3. 状态接口始终可用
	w = do(t, router, http.MethodGet, "/api/v1/sync/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status service.SyncStatus
	decode(t, w, &status)
	assert.False(t, status.ScriptURLSet)
}
