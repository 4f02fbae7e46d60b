package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/sirupsen/logrus"
)

// SyncController 远程表格同步控制器
type SyncController struct {
	syncService service.SyncService
}

// NewSyncController 创建同步控制器
func NewSyncController(syncService service.SyncService) *SyncController {
	return &SyncController{
		syncService: syncService,
	}
}

// Refresh 重新读取远程表格
// @Router /sync/refresh [post]
func (c *SyncController) Refresh(ctx *gin.Context) {
	result, err := c.syncService.Refresh(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "refresh remote data")
		return
	}
	Success(ctx, result)
}

// Import 将远程日志导入本地
// @Router /sync/import [post]
func (c *SyncController) Import(ctx *gin.Context) {
	count, err := c.syncService.Import(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "import logs")
		return
	}
	Success(ctx, gin.H{"imported": count})
}

// SyncTrainees 从远程同步学员
// @Router /sync/trainees [post]
func (c *SyncController) SyncTrainees(ctx *gin.Context) {
	count, err := c.syncService.SyncTrainees(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "sync trainees")
		return
	}
	Success(ctx, gin.H{"trainees": count})
}

// SyncEmployees 从远程同步员工
// @Router /sync/employees [post]
func (c *SyncController) SyncEmployees(ctx *gin.Context) {
	count, err := c.syncService.SyncEmployees(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "sync employees")
		return
	}
	Success(ctx, gin.H{"employees": count})
}

// PushEmployees 将本地员工推送到远程
// @Router /sync/employees/push [post]
func (c *SyncController) PushEmployees(ctx *gin.Context) {
	count, err := c.syncService.PushEmployees(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "push employees")
		return
	}
	Success(ctx, gin.H{"employees": count})
}

// Raw 最近一次读取的原始远程数据
// @Router /sync/raw [get]
func (c *SyncController) Raw(ctx *gin.Context) {
	Success(ctx, c.syncService.Raw())
}

// Status 同步状态
// @Router /sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	status, err := c.syncService.Status(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get sync status")
		return
	}
	Success(ctx, status)
}

// TestConnection 测试脚本与云端文件夹连接
// @Router /sync/test [post]
func (c *SyncController) TestConnection(ctx *gin.Context) {
	result, err := c.syncService.TestConnection(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "test connection")
		return
	}
	Success(ctx, result)
}

// SessionSyncMiddleware 每个登录会话首次浏览时刷新一次远程数据，失败不阻断请求
func SessionSyncMiddleware(syncService service.SyncService, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshed, err := syncService.EnsureSession(c.Request.Context())
		if err != nil {
			logger.WithError(err).Warn("session refresh failed, serving local data")
		} else if refreshed {
			logger.WithField("request_id", c.GetString("request_id")).Debug("session refresh completed")
		}
		c.Next()
	}
}
