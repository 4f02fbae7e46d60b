package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/jswork01-cmyk/trainning1/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config *config.Config
	Logger logrus.FieldLogger
	DB     *gorm.DB
	Outbox repository.OutboxRepository
	Tokens *auth.TokenManager
	Hub    *websocket.Hub

	AuthService       service.AuthService
	LogService        service.LogService
	ApprovalService   service.ApprovalService
	RosterService     service.RosterService
	SettingsService   service.SettingsService
	SyncService       service.SyncService
	StatisticsService service.StatisticsService
	DocumentService   service.DocumentService
	ReportService     service.ReportService
	ExportService     service.ExportService
	AuditService      service.AuditLogService
	BackupService     *service.BackupService
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	router := gin.New()
	// 日志 ID 含职务名，可能包含 "/"，按转义后的路径匹配
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(deps.Logger))
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(deps.Config.CORS))
	router.Use(RateLimitMiddleware(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(deps.DB, deps.Outbox)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// 变更通知
	if deps.Hub != nil {
		router.GET("/ws", websocket.Handler(deps.Hub, deps.Tokens, deps.Config.CORS.AllowedOrigins))
	}

	authController := NewAuthController(deps.AuthService)
	logController := NewLogController(deps.LogService, deps.DocumentService)
	approvalController := NewApprovalController(deps.ApprovalService)
	rosterController := NewRosterController(deps.RosterService)
	settingsController := NewSettingsController(deps.SettingsService)
	syncController := NewSyncController(deps.SyncService)
	statsController := NewStatisticsController(deps.StatisticsService)
	reportController := NewReportController(deps.ReportService, deps.ExportService, deps.AuditService)
	backupController := NewBackupController(deps.BackupService)

	// 管理员权限：主任与科长
	admin := auth.RequireRole(domain.RoleManager, domain.RoleDirector)
	sessionSync := SessionSyncMiddleware(deps.SyncService, deps.Logger)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authController.Login)

	secured := v1.Group("")
	secured.Use(auth.Middleware(deps.Tokens))
	{
		secured.GET("/auth/me", authController.Me)

		// 训练日志路由
		logs := secured.Group("/logs")
		{
			logs.GET("", sessionSync, logController.List)
			logs.POST("", logController.Create)
			logs.GET("/:id", logController.Get)
			logs.GET("/:id/sync", logController.SyncStatus)
			logs.GET("/:id/document", logController.Document)
			logs.POST("/:id/document/drive", logController.SaveDocument)
		}

		// 审批路由
		approvals := secured.Group("/approvals")
		{
			approvals.GET("/queue", sessionSync, approvalController.Queue)
			approvals.POST("/batch/approve", approvalController.BulkApprove)
			approvals.POST("/:id/approve", approvalController.Approve)
			approvals.POST("/:id/reject", approvalController.Reject)
		}

		// 名册路由
		secured.GET("/trainees", rosterController.ListTrainees)
		secured.POST("/trainees", rosterController.CreateTrainee)
		secured.PUT("/trainees/:id", rosterController.UpdateTrainee)
		secured.DELETE("/trainees/:id", admin, rosterController.DeleteTrainee)
		secured.GET("/jobs", rosterController.ListJobs)
		secured.POST("/jobs", rosterController.CreateJob)
		secured.GET("/employees", rosterController.ListEmployees)
		secured.POST("/employees", admin, rosterController.CreateEmployee)
		secured.PUT("/employees/:id", admin, rosterController.UpdateEmployee)
		secured.DELETE("/employees/:id", admin, rosterController.DeleteEmployee)

		// 设置路由
		secured.GET("/settings", settingsController.Get)
		secured.PUT("/settings", admin, settingsController.Update)

		// 同步路由
		sync := secured.Group("/sync")
		{
			sync.POST("/refresh", syncController.Refresh)
			sync.POST("/import", syncController.Import)
			sync.POST("/trainees", syncController.SyncTrainees)
			sync.POST("/employees", syncController.SyncEmployees)
			sync.POST("/employees/push", admin, syncController.PushEmployees)
			sync.GET("/raw", syncController.Raw)
			sync.GET("/status", syncController.Status)
			sync.POST("/test", syncController.TestConnection)
		}

		// 备份路由
		backups := secured.Group("/backups", admin)
		{
			backups.GET("", backupController.ListBackups)
			backups.POST("", backupController.CreateBackup)
			backups.POST("/cloud", backupController.CloudSave)
			backups.POST("/cloud/restore", backupController.CloudRestore)
			backups.POST("/:filename/restore", backupController.RestoreBackup)
			backups.DELETE("/:filename", backupController.DeleteBackup)
		}

		// 统计路由
		stats := secured.Group("/stats")
		{
			stats.GET("/daily", statsController.Daily)
			stats.GET("/jobs", statsController.ByJob)
			stats.GET("/trainees/:id", statsController.Trainee)
			stats.GET("/approvals", statsController.Approvals)
		}

		// 报表与导出
		secured.GET("/export/logs.xlsx", reportController.ExportLogs)
		secured.POST("/reports/summary", reportController.Summary)
		secured.GET("/audit", admin, reportController.Audit)
	}

	return router
}
