package service_test

import (
	"context"
	"testing"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApprovalService_ApproveChain 测试按顺序完成三步审批
func TestApprovalService_ApproveChain(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")
	env.drain(t)

	// 1. 院长不能跳过事务局长
	_, err := env.approvals.Approve(actorCtx(director), log.ID, &service.ApproveRequest{})
	assert.ErrorIs(t, err, service.ErrNotActionable)

	// 2. 事务局长批准，签名取自员工名册
	updated, err := env.approvals.Approve(actorCtx(manager), log.ID, &service.ApproveRequest{Comment: " 확인 "})
	require.NoError(t, err)
	step := updated.Approvals[1]
	assert.Equal(t, domain.StepApproved, step.Status)
	assert.Equal(t, "박국장", step.ApproverName)
	assert.Equal(t, "https://sig.test/park.png", step.SignatureURL)
	assert.Equal(t, "확인", step.Comment)
	assert.NotEmpty(t, step.ApprovedAt)

	// 3. 同一步骤不能重复批准
	_, err = env.approvals.Approve(actorCtx(manager), log.ID, &service.ApproveRequest{})
	assert.ErrorIs(t, err, service.ErrNotActionable)

	// 4. 院长批准后整体完成
	updated, err = env.approvals.Approve(actorCtx(director), log.ID, &service.ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.LogApproved, updated.Status())

	// 5. 本地日志与覆盖层均已更新
	saved, err := env.logs.FindByID(log.ID)
	require.NoError(t, err)
	local := saved.ToDomain()
	assert.Equal(t, domain.LogApproved, local.Status())
	overlay, err := env.overlays.FindByLogID(log.ID)
	require.NoError(t, err)
	require.NotNil(t, overlay)
	require.NotNil(t, overlay.StepAt(2))
	assert.Equal(t, domain.StepApproved, overlay.StepAt(2).Status)

	// 6. 远程保存
	env.drain(t)
	require.Len(t, env.script.approvals, 2)
	assert.Equal(t, sheet.ApprovalRecord{
		LogID:        log.ID,
		Role:         "manager",
		Status:       "approved",
		ApproverName: "박국장",
		SignatureURL: "https://sig.test/park.png",
		ApprovedAt:   env.script.approvals[0].ApprovedAt,
		Comment:      "확인",
	}, env.script.approvals[0])
	assert.Equal(t, "director", env.script.approvals[1].Role)
}

// TestApprovalService_Reject 测试驳回后链路终止
func TestApprovalService_Reject(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")

	updated, err := env.approvals.Reject(actorCtx(manager), log.ID, &service.RejectRequest{Reason: "사진 누락"})
	require.NoError(t, err)
	step := updated.Approvals[1]
	assert.Equal(t, domain.StepRejected, step.Status)
	assert.Equal(t, "사진 누락", step.RejectReason)
	assert.Empty(t, step.SignatureURL)
	assert.Equal(t, domain.LogRejected, updated.Status())

	// 驳回后任何角色都不能处理
	_, err = env.approvals.Approve(actorCtx(director), log.ID, &service.ApproveRequest{})
	assert.ErrorIs(t, err, service.ErrNotActionable)
	_, err = env.approvals.Reject(actorCtx(manager), log.ID, &service.RejectRequest{Reason: "again"})
	assert.ErrorIs(t, err, service.ErrNotActionable)

	// 未配置脚本时不排队
	entries, err := env.logSvc.SyncStatus(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestApprovalService_RemoteOnlyLog 测试仅存在于远程的日志只写覆盖层
func TestApprovalService_RemoteOnlyLog(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	env.remote.SetData(&sheet.Table{
		Headers: []string{"날짜", "직무", "담당자", "이름", "점수"},
		Rows:    [][]string{{"2024-02-01", "세척", "김교사", "홍길동", "4"}},
	}, nil)

	id := "log-2024-02-01-세척-김교사"
	updated, err := env.approvals.Approve(actorCtx(manager), id, &service.ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproved, updated.Approvals[1].Status)

	count, err := env.logs.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	// 视图中覆盖层生效
	log, err := env.logSvc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproved, log.Approvals[1].Status)
}

// TestApprovalService_NotFound 测试日志不存在
func TestApprovalService_NotFound(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.approvals.Approve(actorCtx(manager), "log-missing", &service.ApproveRequest{})
	assert.ErrorIs(t, err, service.ErrLogNotFound)
}

// TestApprovalService_Unauthenticated 测试缺少操作者
func TestApprovalService_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.approvals.Approve(context.Background(), "log-any", &service.ApproveRequest{})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = env.approvals.Queue(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

// TestApprovalService_BulkApprove 测试批量批准
func TestApprovalService_BulkApprove(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedRoster(t)
	first := env.createLog(t, "2024-03-01")
	second := env.createLog(t, "2024-03-02")
	env.drain(t)

	// 第二条已被驳回，应跳过
	_, err := env.approvals.Reject(actorCtx(manager), second.ID, &service.RejectRequest{Reason: "x"})
	require.NoError(t, err)
	env.drain(t)

	result, err := env.approvals.BulkApprove(actorCtx(manager), &service.BulkApproveRequest{
		LogIDs: []string{first.ID, second.ID, "log-unknown"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, result.Approved)
	assert.ElementsMatch(t, []string{second.ID, "log-unknown"}, result.Skipped)

	// 远程一次保存
	env.drain(t)
	require.Len(t, env.script.batches, 1)
	require.Len(t, env.script.batches[0], 1)
	assert.Equal(t, first.ID, env.script.batches[0][0].LogID)
}

// TestApprovalService_BulkApprove_PreviousStepPending 测试负责人未批准的日志不被批量处理
func TestApprovalService_BulkApprove_PreviousStepPending(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	first := env.createLog(t, "2024-03-01")
	second := env.createLog(t, "2024-03-02")
	third := env.createLog(t, "2024-03-03")

	// 1. 第三条的负责人步骤退回待处理
	stored, err := env.logs.FindByID(third.ID)
	require.NoError(t, err)
	waiting := stored.ToDomain()
	waiting.Approvals[0].Status = domain.StepPending
	require.NoError(t, env.logs.Save(model.NewTrainingLogModel(waiting)))

	// 2. 事务局长批量批准三条
	result, err := env.approvals.BulkApprove(actorCtx(manager), &service.BulkApproveRequest{
		LogIDs: []string{first.ID, second.ID, third.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, result.Approved)
	assert.Equal(t, []string{third.ID}, result.Skipped)

	// 3. 恰好两条的事务局长步骤被修改
	changed := 0
	for _, id := range []string{first.ID, second.ID, third.ID} {
		saved, err := env.logs.FindByID(id)
		require.NoError(t, err)
		if saved.ToDomain().Approvals[1].Status == domain.StepApproved {
			changed++
		}
	}
	assert.Equal(t, 2, changed)
	saved, err := env.logs.FindByID(third.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPending, saved.ToDomain().Approvals[1].Status)
}

// TestApprovalService_Reject_ReasonRequired 测试驳回理由必填
func TestApprovalService_Reject_ReasonRequired(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")

	for _, reason := range []string{"", "   "} {
		_, err := env.approvals.Reject(actorCtx(manager), log.ID, &service.RejectRequest{Reason: reason})
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err), reason)
	}

	// 步骤保持待处理
	saved, err := env.logs.FindByID(log.ID)
	require.NoError(t, err)
	step := saved.ToDomain().Approvals[1]
	assert.Equal(t, domain.StepPending, step.Status)
	assert.Empty(t, step.RejectReason)
}

// TestApprovalService_Queue 测试待办与已办
func TestApprovalService_Queue(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	first := env.createLog(t, "2024-03-01")
	env.createLog(t, "2024-03-02")

	q, err := env.approvals.Queue(actorCtx(manager))
	require.NoError(t, err)
	assert.Len(t, q.Pending, 2)
	assert.Empty(t, q.Processed)

	// 院长此时没有待办
	q, err = env.approvals.Queue(actorCtx(director))
	require.NoError(t, err)
	assert.Empty(t, q.Pending)

	_, err = env.approvals.Approve(actorCtx(manager), first.ID, &service.ApproveRequest{})
	require.NoError(t, err)

	q, err = env.approvals.Queue(actorCtx(manager))
	require.NoError(t, err)
	assert.Len(t, q.Pending, 1)
	assert.Len(t, q.Processed, 1)

	q, err = env.approvals.Queue(actorCtx(director))
	require.NoError(t, err)
	require.Len(t, q.Pending, 1)
	assert.Equal(t, first.ID, q.Pending[0].ID)
}
