package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
)

// 审计资源类型
const (
	ResourceLog      = "log"
	ResourceTrainee  = "trainee"
	ResourceJob      = "job"
	ResourceEmployee = "employee"
	ResourceSettings = "settings"
	ResourceBackup   = "backup"
	ResourceSync     = "sync"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error)
	ListRecent(limit int) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志，操作者与请求信息取自 context
func (s *auditLogService) RecordAction(
	ctx context.Context,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	userID := "system"
	if actor, ok := auth.ActorFromContext(ctx); ok && actor.EmployeeID != "" {
		userID = actor.EmployeeID
	}
	meta := auth.RequestMetaFromContext(ctx)

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    meta.RequestID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// ListByResource 查询资源的审计记录
func (s *auditLogService) ListByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}

// ListRecent 查询最近的审计记录
func (s *auditLogService) ListRecent(limit int) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindRecent(limit)
}

// recordAudit 写入审计记录，失败不影响主流程
func recordAudit(ctx context.Context, svc AuditLogService, action, resourceType, resourceID string, details interface{}) {
	if svc == nil {
		return
	}
	_ = svc.RecordAction(ctx, action, resourceType, resourceID, details)
}
