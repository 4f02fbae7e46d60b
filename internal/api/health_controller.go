package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	db     *gorm.DB
	outbox repository.OutboxRepository
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, outbox repository.OutboxRepository) *HealthController {
	return &HealthController{
		db:     db,
		outbox: outbox,
	}
}

// Check 健康检查
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]interface{})

	// 检查数据库连接
	if c.db != nil {
		if err := c.checkDatabase(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	// 同步队列积压只作为信息返回
	if c.outbox != nil {
		if counts, err := c.outbox.CountByStatus(); err == nil {
			checks["outbox"] = counts
		}
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// MetricsHandler Prometheus 指标处理器
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
