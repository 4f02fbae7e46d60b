package statemachine_test

import (
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLog(id string) domain.TrainingLog {
	return domain.TrainingLog{
		ID:             id,
		Date:           "2024-01-01",
		TaskID:         "shared-job-조립",
		InstructorName: "김교사",
		Approvals:      domain.NewApprovalChain("김교사", "", "2024-01-01"),
	}
}

// TestStateMachine_CanTransition 测试状态转换规则
func TestStateMachine_CanTransition(t *testing.T) {
	sm := statemachine.New()

	assert.True(t, sm.CanTransition(domain.StepPending, domain.StepApproved))
	assert.True(t, sm.CanTransition(domain.StepPending, domain.StepRejected))
	assert.False(t, sm.CanTransition(domain.StepApproved, domain.StepRejected))
	assert.False(t, sm.CanTransition(domain.StepRejected, domain.StepApproved))
	assert.False(t, sm.CanTransition(domain.StepApproved, domain.StepPending))
}

// TestStateMachine_IsMyTurn 测试处理顺序
func TestStateMachine_IsMyTurn(t *testing.T) {
	sm := statemachine.New()
	log := newLog("log-1")

	assert.True(t, sm.IsMyTurn(log.Approvals, domain.RoleManager))
	assert.False(t, sm.IsMyTurn(log.Approvals, domain.RoleDirector))
	assert.False(t, sm.IsMyTurn(log.Approvals, domain.RoleInstructor))
	assert.False(t, sm.IsMyTurn(log.Approvals, domain.ApprovalRole("guest")))
}

// TestStateMachine_HappyPath 测试完整审批流程
func TestStateMachine_HappyPath(t *testing.T) {
	sm := statemachine.New()
	log := newLog("log-1")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := sm.Approve(&log, statemachine.Decision{Role: domain.RoleManager, ApproverName: "이국장", SignatureURL: "sig-m", Comment: "ok", At: at})
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproved, log.Approvals[1].Status)
	assert.Equal(t, "이국장", log.Approvals[1].ApproverName)
	assert.Equal(t, "sig-m", log.Approvals[1].SignatureURL)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", log.Approvals[1].ApprovedAt)
	assert.Equal(t, "ok", log.Approvals[1].Comment)
	assert.Equal(t, domain.LogInProgress, log.Status())

	err = sm.Approve(&log, statemachine.Decision{Role: domain.RoleDirector, ApproverName: "박원장", At: at})
	require.NoError(t, err)
	assert.Equal(t, domain.LogApproved, log.Status())

	// 已结束的步骤不能再处理
	err = sm.Reject(&log, statemachine.Decision{Role: domain.RoleDirector, Reason: "late"})
	assert.ErrorIs(t, err, statemachine.ErrNotActionable)
	assert.Equal(t, domain.LogApproved, log.Status())
}

// TestStateMachine_DirectorCannotSkipManager 测试院长不能越过事务局长
func TestStateMachine_DirectorCannotSkipManager(t *testing.T) {
	sm := statemachine.New()
	log := newLog("log-1")
	before := log.Clone()

	err := sm.Approve(&log, statemachine.Decision{Role: domain.RoleDirector, ApproverName: "박원장"})
	assert.ErrorIs(t, err, statemachine.ErrNotActionable)
	assert.Equal(t, before, log)
}

// TestStateMachine_RejectHaltsChain 测试驳回后链条终止
func TestStateMachine_RejectHaltsChain(t *testing.T) {
	sm := statemachine.New()
	log := newLog("log-1")
	log.Approvals[1].SignatureURL = "stale"

	err := sm.Reject(&log, statemachine.Decision{Role: domain.RoleManager, ApproverName: "이국장", Reason: "missing photos"})
	require.NoError(t, err)
	assert.Equal(t, domain.StepRejected, log.Approvals[1].Status)
	assert.Equal(t, "missing photos", log.Approvals[1].RejectReason)
	assert.Empty(t, log.Approvals[1].SignatureURL)
	assert.Equal(t, domain.LogRejected, log.Status())

	for _, role := range domain.ApprovalRoles {
		assert.False(t, sm.IsMyTurn(log.Approvals, role), role)
	}
	err = sm.Approve(&log, statemachine.Decision{Role: domain.RoleDirector})
	assert.ErrorIs(t, err, statemachine.ErrNotActionable)
}

// TestBulkApprove 测试批量批准
func TestBulkApprove(t *testing.T) {
	sm := statemachine.New()
	ready := newLog("log-ready")
	done := newLog("log-done")
	done.Approvals[1].Status = domain.StepApproved
	rejected := newLog("log-rejected")
	rejected.Approvals[1].Status = domain.StepRejected

	logs := []domain.TrainingLog{ready, done, rejected}
	result := statemachine.BulkApprove(sm, logs, statemachine.Decision{Role: domain.RoleManager, ApproverName: "이국장"})

	require.Len(t, result.Approved, 1)
	assert.Equal(t, "log-ready", result.Approved[0].ID)
	assert.Equal(t, domain.StepApproved, result.Approved[0].Approvals[1].Status)
	assert.ElementsMatch(t, []string{"log-done", "log-rejected"}, result.Skipped)

	// 输入不被修改
	assert.Equal(t, domain.StepPending, logs[0].Approvals[1].Status)
}

// TestBulkApprove_PreviousStepPending 测试前一步未完成的日志被跳过
func TestBulkApprove_PreviousStepPending(t *testing.T) {
	sm := statemachine.New()
	first := newLog("log-1")
	second := newLog("log-2")
	waiting := newLog("log-waiting")
	waiting.Approvals[0].Status = domain.StepPending

	result := statemachine.BulkApprove(sm, []domain.TrainingLog{first, second, waiting},
		statemachine.Decision{Role: domain.RoleManager, ApproverName: "이국장"})

	// 1. 只有两条可处理
	require.Len(t, result.Approved, 2)
	for _, log := range result.Approved {
		assert.Equal(t, domain.StepApproved, log.Approvals[1].Status, log.ID)
	}
	assert.Equal(t, []string{"log-waiting"}, result.Skipped)

	// 2. 未轮到的日志保持不变
	assert.Equal(t, domain.StepPending, waiting.Approvals[1].Status)
}

// TestBuildQueues 测试待办与已办列表
func TestBuildQueues(t *testing.T) {
	sm := statemachine.New()
	waiting := newLog("waiting")
	mine := newLog("mine")
	mine.Approvals[1].Status = domain.StepApproved
	processed := newLog("processed")
	processed.Approvals[1].Status = domain.StepApproved
	processed.Approvals[2].Status = domain.StepApproved

	q := statemachine.BuildQueues(sm, []domain.TrainingLog{waiting, mine, processed}, domain.RoleDirector)

	require.Len(t, q.Pending, 1)
	assert.Equal(t, "mine", q.Pending[0].ID)
	require.Len(t, q.Processed, 1)
	assert.Equal(t, "processed", q.Processed[0].ID)
}
