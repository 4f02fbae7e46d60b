package statemachine

import (
	"errors"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

var (
	// ErrNotActionable 当前角色无法处理该日志
	ErrNotActionable = errors.New("approval step is not actionable for this role")
	// ErrInvalidTransition 非法状态转换
	ErrInvalidTransition = errors.New("invalid step transition")
)

// StateMachine 审批步骤状态机接口
type StateMachine interface {
	// CanTransition 检查步骤状态是否可以转换
	CanTransition(from, to domain.StepStatus) bool
	// IsMyTurn 检查角色当前是否可以处理审批链
	IsMyTurn(chain domain.ApprovalChain, role domain.ApprovalRole) bool
	// Approve 批准当前步骤
	Approve(log *domain.TrainingLog, d Decision) error
	// Reject 驳回当前步骤
	Reject(log *domain.TrainingLog, d Decision) error
}

// Decision 审批决定
type Decision struct {
	Role         domain.ApprovalRole
	ApproverName string
	SignatureURL string
	Comment      string
	Reason       string
	At           time.Time
}

// timestamp 返回 ISO 8601 时间字符串
func (d Decision) timestamp() string {
	at := d.At
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format("2006-01-02T15:04:05.000Z")
}

// stepStateMachine 步骤状态机实现
type stepStateMachine struct {
	transitions map[domain.StepStatus][]domain.StepStatus
}

// New 创建审批状态机
func New() StateMachine {
	return &stepStateMachine{
		transitions: map[domain.StepStatus][]domain.StepStatus{
			domain.StepPending: {domain.StepApproved, domain.StepRejected},
		},
	}
}

// CanTransition 检查步骤状态是否可以转换，已结束的步骤不可再变
func (sm *stepStateMachine) CanTransition(from, to domain.StepStatus) bool {
	for _, allowed := range sm.transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsMyTurn 角色步骤待处理、前一步已批准且链未被驳回
func (sm *stepStateMachine) IsMyTurn(chain domain.ApprovalChain, role domain.ApprovalRole) bool {
	idx := role.Index()
	if idx < 0 {
		return false
	}
	if chain.HasRejection() {
		return false
	}
	if chain[idx].Status != domain.StepPending {
		return false
	}
	return idx == 0 || chain[idx-1].Status == domain.StepApproved
}

// Approve 批准当前步骤，前置条件不满足时不修改日志
func (sm *stepStateMachine) Approve(log *domain.TrainingLog, d Decision) error {
	if err := sm.check(log, d.Role, domain.StepApproved); err != nil {
		return err
	}

	step := log.Approvals.Step(d.Role)
	step.Status = domain.StepApproved
	step.ApproverName = d.ApproverName
	step.SignatureURL = d.SignatureURL
	step.ApprovedAt = d.timestamp()
	step.Comment = d.Comment
	return nil
}

// Reject 驳回当前步骤，驳回不记录签名
func (sm *stepStateMachine) Reject(log *domain.TrainingLog, d Decision) error {
	if err := sm.check(log, d.Role, domain.StepRejected); err != nil {
		return err
	}

	step := log.Approvals.Step(d.Role)
	step.Status = domain.StepRejected
	step.ApproverName = d.ApproverName
	step.SignatureURL = ""
	step.ApprovedAt = d.timestamp()
	step.RejectReason = d.Reason
	return nil
}

func (sm *stepStateMachine) check(log *domain.TrainingLog, role domain.ApprovalRole, to domain.StepStatus) error {
	if log == nil || !sm.IsMyTurn(log.Approvals, role) {
		return ErrNotActionable
	}
	if !sm.CanTransition(log.Approvals.Step(role).Status, to) {
		return ErrInvalidTransition
	}
	return nil
}

// BulkResult 批量批准结果
type BulkResult struct {
	Approved []domain.TrainingLog
	Skipped  []string
}

// BulkApprove 对选中的日志逐条批准，不满足条件的日志被跳过
func BulkApprove(sm StateMachine, logs []domain.TrainingLog, d Decision) BulkResult {
	var result BulkResult
	if d.At.IsZero() {
		d.At = time.Now()
	}
	for i := range logs {
		log := logs[i].Clone()
		if err := sm.Approve(&log, d); err != nil {
			result.Skipped = append(result.Skipped, log.ID)
			continue
		}
		result.Approved = append(result.Approved, log)
	}
	return result
}

// Queues 角色待办与已办
type Queues struct {
	Pending   []domain.TrainingLog `json:"pending"`
	Processed []domain.TrainingLog `json:"processed"`
}

// BuildQueues 计算角色的待办与已办列表
func BuildQueues(sm StateMachine, logs []domain.TrainingLog, role domain.ApprovalRole) Queues {
	var q Queues
	idx := role.Index()
	if idx < 0 {
		return q
	}
	for _, log := range logs {
		if sm.IsMyTurn(log.Approvals, role) {
			q.Pending = append(q.Pending, log)
			continue
		}
		if log.Approvals[idx].Status != domain.StepPending {
			q.Processed = append(q.Processed, log)
		}
	}
	return q
}
