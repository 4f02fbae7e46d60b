package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/api"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/jswork01-cmyk/trainning1/internal/genai"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
	"github.com/jswork01-cmyk/trainning1/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库、远程表格客户端、同步队列与所有服务
type Container struct {
	cfg    *config.Config
	db     *gorm.DB
	logger logrus.FieldLogger

	outboxRepo repository.OutboxRepository
	tokens     *auth.TokenManager
	hub        *websocket.Hub
	reader     *sheet.GVizClient
	dispatcher outbox.Dispatcher
	collector  *metrics.Collector
	scheduler  *service.BackupScheduler

	authService     service.AuthService
	logService      service.LogService
	approvalService service.ApprovalService
	rosterService   service.RosterService
	settingsService service.SettingsService
	syncService     service.SyncService
	statsService    service.StatisticsService
	documentService service.DocumentService
	reportService   service.ReportService
	exportService   service.ExportService
	auditService    service.AuditLogService
	backupService   *service.BackupService

	cancel context.CancelFunc
}

// NewContainer 创建依赖注入容器
// 根据配置连接数据库并执行迁移
func NewContainer(cfg *config.Config, logger logrus.FieldLogger) (*Container, error) {
	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	ctr, err := NewWithDB(cfg, db, logger, nil)
	if err != nil {
		database.Close(db)
		return nil, err
	}
	return ctr, nil
}

// NewWithDB 使用已迁移的数据库创建容器，httpClient 为空时按配置超时创建
func NewWithDB(cfg *config.Config, db *gorm.DB, logger logrus.FieldLogger, httpClient *http.Client) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Sheet.Timeout}
	}

	c := &Container{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}

	// 2. 初始化仓储
	logRepo := repository.NewTrainingLogRepository(db)
	traineeRepo := repository.NewTraineeRepository(db)
	jobRepo := repository.NewJobRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	overlayRepo := repository.NewOverlayRepository(db)
	c.outboxRepo = repository.NewOutboxRepository(db)

	// 3. 初始化变更通知与审计
	c.hub = websocket.NewHub(logger)
	c.auditService = service.NewAuditLogService(repository.NewAuditLogRepository(db))

	settingsService, err := service.NewSettingsService(cfg, repository.NewSettingRepository(db), c.auditService, c.hub)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	c.settingsService = settingsService

	// 4. 初始化远程表格客户端，脚本地址以设置为准
	c.reader = sheet.NewGVizClient(cfg.Sheet.GVizBaseURL, cfg.Sheet.SpreadsheetID, cfg.Sheet.CacheTTL, httpClient)
	script := sheet.NewScriptClient(settingsService.ScriptURL, httpClient)
	completer := genai.NewClient(genai.Config{
		BaseURL: cfg.GenAI.BaseURL,
		APIKey:  cfg.GenAI.APIKey,
		Model:   cfg.GenAI.Model,
	}, &http.Client{Timeout: cfg.GenAI.Timeout})

	// 5. 初始化同步队列，导出完成后重新读取日志表
	p := parser.New(logger)
	remote := service.NewRemoteState()
	views := service.NewViewService(logRepo, traineeRepo, jobRepo, overlayRepo, remote, p)
	executor := service.NewSyncExecutor(script, c.reader, func(ctx context.Context) {
		if c.syncService == nil {
			return
		}
		if err := c.syncService.RefreshData(ctx); err != nil {
			logger.WithError(err).Warn("refresh after export failed")
		}
	})
	c.dispatcher = outbox.NewDispatcher(c.outboxRepo, executor, outbox.Options{
		Workers:         cfg.Outbox.Workers,
		QueueSize:       cfg.Outbox.QueueSize,
		MaxRetries:      cfg.Outbox.MaxRetries,
		InitialBackoff:  cfg.Outbox.InitialBackoff,
		RecoverInterval: cfg.Outbox.RecoverInterval,
		Timeout:         cfg.Sheet.Timeout,
	}, logger)

	// 6. 初始化业务服务
	sm := statemachine.New()
	c.tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	c.logService = service.NewLogService(logRepo, employeeRepo, views, settingsService, script, c.dispatcher,
		service.NewImageProcessor(cfg.Image.MaxWidth, cfg.Image.Quality), c.auditService, c.hub, logger)
	c.approvalService = service.NewApprovalService(sm, views, logRepo, overlayRepo, employeeRepo,
		settingsService, c.dispatcher, c.auditService, c.hub, logger)
	c.syncService = service.NewSyncService(c.reader, script, p, remote, views, logRepo, traineeRepo,
		employeeRepo, overlayRepo, c.outboxRepo, settingsService, c.auditService, c.hub, logger,
		service.SyncOptions{InfoGID: cfg.Sheet.InfoGID})
	c.rosterService = service.NewRosterService(traineeRepo, jobRepo, employeeRepo, views, c.auditService, c.hub)
	c.statsService = service.NewStatisticsService(views, sm)
	c.authService = service.NewAuthService(employeeRepo, c.tokens, c.auditService, logger)
	c.documentService = service.NewDocumentService(views, employeeRepo, settingsService, script, c.auditService)
	c.reportService = service.NewReportService(views, completer, logger)
	c.exportService = service.NewExportService(c.logService, views)
	c.backupService = service.NewBackupService(db, cfg.Backup.Dir, settingsService, script, c.auditService, c.hub, logger)

	// 7. 初始化后台任务
	c.scheduler = service.NewBackupScheduler(c.backupService, &service.BackupScheduleConfig{
		Interval:      cfg.Backup.Interval,
		RetentionDays: cfg.Backup.RetentionDays,
	}, logger)
	c.collector = metrics.NewCollector(db, 30*time.Second)

	return c, nil
}

// Start 启动后台组件：通知中心、同步队列、定时备份与指标采集
func (c *Container) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.hub.Run(ctx)
	c.dispatcher.Start()
	if n, err := c.dispatcher.Recover(); err != nil {
		c.logger.WithError(err).Warn("failed to recover pending sync operations")
	} else if n > 0 {
		c.logger.WithField("count", n).Info("recovered pending sync operations")
	}
	c.scheduler.Start(ctx)
	c.collector.Start()
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(&api.RouterDeps{
		Config:            c.cfg,
		Logger:            c.logger,
		DB:                c.db,
		Outbox:            c.outboxRepo,
		Tokens:            c.tokens,
		Hub:               c.hub,
		AuthService:       c.authService,
		LogService:        c.logService,
		ApprovalService:   c.approvalService,
		RosterService:     c.rosterService,
		SettingsService:   c.settingsService,
		SyncService:       c.syncService,
		StatisticsService: c.statsService,
		DocumentService:   c.documentService,
		ReportService:     c.reportService,
		ExportService:     c.exportService,
		AuditService:      c.auditService,
		BackupService:     c.backupService,
	})
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Tokens 获取令牌管理器
func (c *Container) Tokens() *auth.TokenManager {
	return c.tokens
}

// Dispatcher 获取同步队列
func (c *Container) Dispatcher() outbox.Dispatcher {
	return c.dispatcher
}

// SyncService 获取同步服务
func (c *Container) SyncService() service.SyncService {
	return c.syncService
}

// RosterService 获取名册服务
func (c *Container) RosterService() service.RosterService {
	return c.rosterService
}

// BackupService 获取备份服务
func (c *Container) BackupService() *service.BackupService {
	return c.backupService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
		c.scheduler.Stop()
		c.collector.Stop()
		c.dispatcher.Stop()
	}
	if c.db != nil {
		return database.Close(c.db)
	}
	return nil
}
