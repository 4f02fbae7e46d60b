package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApprovalService 审批服务接口
type ApprovalService interface {
	Approve(ctx context.Context, logID string, req *ApproveRequest) (*domain.TrainingLog, error)
	Reject(ctx context.Context, logID string, req *RejectRequest) (*domain.TrainingLog, error)
	BulkApprove(ctx context.Context, req *BulkApproveRequest) (*BulkApproveResult, error)
	Queue(ctx context.Context) (*statemachine.Queues, error)
}

// ApproveRequest 批准请求
type ApproveRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest 驳回请求
type RejectRequest struct {
	Reason string `json:"reason" binding:"required" validate:"required"`
}

// BulkApproveRequest 批量批准请求
type BulkApproveRequest struct {
	LogIDs []string `json:"logIds" binding:"required"`
}

// BulkApproveResult 批量批准结果
type BulkApproveResult struct {
	Approved []string `json:"approved"`
	Skipped  []string `json:"skipped"`
}

type approvalService struct {
	mu sync.Mutex

	sm         statemachine.StateMachine
	views      ViewService
	logs       repository.TrainingLogRepository
	overlays   repository.OverlayRepository
	employees  repository.EmployeeRepository
	settings   SettingsService
	dispatcher outbox.Dispatcher
	audit      AuditLogService
	notifier   Notifier
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewApprovalService 创建审批服务
func NewApprovalService(
	sm statemachine.StateMachine,
	views ViewService,
	logs repository.TrainingLogRepository,
	overlays repository.OverlayRepository,
	employees repository.EmployeeRepository,
	settings SettingsService,
	dispatcher outbox.Dispatcher,
	audit AuditLogService,
	notifier Notifier,
	logger logrus.FieldLogger,
) ApprovalService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &approvalService{
		sm:         sm,
		views:      views,
		logs:       logs,
		overlays:   overlays,
		employees:  employees,
		settings:   settings,
		dispatcher: dispatcher,
		audit:      audit,
		notifier:   notifierOrNoop(notifier),
		logger:     logger.WithField("service", "approvals"),
		now:        time.Now,
	}
}

// Approve 批准日志中当前角色的步骤
func (s *approvalService) Approve(ctx context.Context, logID string, req *ApproveRequest) (*domain.TrainingLog, error) {
	return s.decide(ctx, logID, func(log *domain.TrainingLog, d statemachine.Decision) error {
		d.Comment = strings.TrimSpace(req.Comment)
		return s.sm.Approve(log, d)
	}, "approve")
}

// Reject 驳回日志中当前角色的步骤
func (s *approvalService) Reject(ctx context.Context, logID string, req *RejectRequest) (*domain.TrainingLog, error) {
	// 驳回理由必填，纯空白视为未填写
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, &utils.ValidationError{Code: "INVALID_REQUIRED", Field: "reason", Message: "reason is required"}
	}
	return s.decide(ctx, logID, func(log *domain.TrainingLog, d statemachine.Decision) error {
		d.Reason = reason
		return s.sm.Reject(log, d)
	}, "reject")
}

func (s *approvalService) decide(
	ctx context.Context,
	logID string,
	apply func(*domain.TrainingLog, statemachine.Decision) error,
	action string,
) (*domain.TrainingLog, error) {
	decision, err := s.decision(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 在最新视图上重新判断
	log, _, err := s.views.FindLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if err := apply(log, decision); err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, logID, err)
	}

	// 2. 写入覆盖层与本地日志
	if err := s.persist(*log); err != nil {
		return nil, err
	}

	// 3. 远程保存
	step := *log.Approvals.Step(decision.Role)
	s.enqueue(sheet.ActionSaveApproval, log.ID, approvalRecord(log.ID, step))

	metrics.RecordApproval(action, string(decision.Role))
	recordAudit(ctx, s.audit, action, ResourceLog, log.ID, map[string]interface{}{
		"role":    decision.Role,
		"comment": step.Comment,
		"reason":  step.RejectReason,
	})
	s.notifier.Notify(EventApprovalsChanged, map[string]interface{}{"ids": []string{log.ID}})
	return log, nil
}

// BulkApprove 批量批准，不满足条件的日志被跳过，远程一次保存
func (s *approvalService) BulkApprove(ctx context.Context, req *BulkApproveRequest) (*BulkApproveResult, error) {
	decision, err := s.decision(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	// 1. 选出视图中的日志，未知 ID 记为跳过
	wanted := make(map[string]bool, len(req.LogIDs))
	for _, id := range req.LogIDs {
		wanted[id] = true
	}
	var selected []domain.TrainingLog
	for _, log := range view.Logs {
		if wanted[log.ID] {
			selected = append(selected, log)
			delete(wanted, log.ID)
		}
	}

	bulk := statemachine.BulkApprove(s.sm, selected, decision)
	result := &BulkApproveResult{Approved: []string{}, Skipped: append([]string{}, bulk.Skipped...)}
	for _, id := range req.LogIDs {
		if wanted[id] {
			result.Skipped = append(result.Skipped, id)
			delete(wanted, id)
		}
	}

	// 2. 保存
	records := make([]sheet.ApprovalRecord, 0, len(bulk.Approved))
	for _, log := range bulk.Approved {
		if err := s.persist(log); err != nil {
			return nil, err
		}
		result.Approved = append(result.Approved, log.ID)
		records = append(records, approvalRecord(log.ID, *log.Approvals.Step(decision.Role)))
		metrics.RecordApproval("approve", string(decision.Role))
	}
	if len(records) == 0 {
		return result, nil
	}

	s.enqueue(sheet.ActionSaveApprovalBatch, "", records)
	recordAudit(ctx, s.audit, "bulk_approve", ResourceLog, strings.Join(result.Approved, ","), map[string]interface{}{
		"role":  decision.Role,
		"count": len(result.Approved),
	})
	s.notifier.Notify(EventApprovalsChanged, map[string]interface{}{"ids": result.Approved})
	return result, nil
}

// Queue 当前用户的待办与已办
func (s *approvalService) Queue(ctx context.Context) (*statemachine.Queues, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}
	q := statemachine.BuildQueues(s.sm, view.Logs, actor.Role)
	return &q, nil
}

// decision 由当前用户生成审批决定，签名取自员工名册
func (s *approvalService) decision(ctx context.Context) (statemachine.Decision, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return statemachine.Decision{}, ErrUnauthenticated
	}
	signature := actor.SignatureURL
	if signature == "" && actor.EmployeeID != "" {
		if emp, err := s.employees.FindByID(actor.EmployeeID); err == nil && emp != nil {
			signature = emp.SignatureURL
		}
	}
	return statemachine.Decision{
		Role:         actor.Role,
		ApproverName: actor.Name,
		SignatureURL: signature,
		At:           s.now(),
	}, nil
}

// persist 写入完整的覆盖层，本地存在的日志同时更新
func (s *approvalService) persist(log domain.TrainingLog) error {
	overlay := domain.ApprovalOverlay{}
	for i, step := range log.Approvals {
		overlay.SetStep(i, step)
	}
	if err := s.overlays.Save(log.ID, overlay); err != nil {
		return fmt.Errorf("failed to save approval overlay: %w", err)
	}

	existing, err := s.logs.FindByID(log.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 仅存在于远程的日志只写覆盖层
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load training log: %w", err)
	}
	local := existing.ToDomain()
	local.Approvals = log.Approvals
	if err := s.logs.Save(model.NewTrainingLogModel(local)); err != nil {
		return fmt.Errorf("failed to save training log: %w", err)
	}
	return nil
}

// enqueue 配置了脚本地址时排队远程保存，失败不回滚本地状态
func (s *approvalService) enqueue(action, logID string, payload interface{}) {
	if s.dispatcher == nil || s.settings.ScriptURL() == "" {
		return
	}
	if _, err := s.dispatcher.Enqueue(action, logID, payload); err != nil {
		s.logger.WithError(err).WithField("action", action).Error("failed to queue approval sync")
	}
}

func approvalRecord(logID string, step domain.ApprovalStep) sheet.ApprovalRecord {
	return sheet.ApprovalRecord{
		LogID:        logID,
		Role:         string(step.Role),
		Status:       string(step.Status),
		ApproverName: step.ApproverName,
		SignatureURL: step.SignatureURL,
		ApprovedAt:   step.ApprovedAt,
		Comment:      step.Comment,
		RejectReason: step.RejectReason,
	}
}
