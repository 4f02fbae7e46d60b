package service_test

import (
	"context"
	"testing"

	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatisticsService 测试按日期、职务、学员与审批统计
func TestStatisticsService(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	first := env.createLog(t, "2024-03-02")
	env.createLog(t, "2024-03-01")
	_, err := env.logSvc.Create(actorCtx(teacher), &service.CreateLogRequest{
		Date: "2024-03-01", TaskID: "shared-job-세척", InstructorName: "김교사",
		Evaluations: []service.EvaluationInput{{TraineeID: "t1", Score: 5}},
	})
	require.NoError(t, err)
	ctx := context.Background()

	// 1. 按日期升序
	daily, err := env.stats.Daily(ctx)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "2024-03-01", daily[0].Date)
	assert.Equal(t, 2, daily[0].Logs)
	assert.Equal(t, 3, daily[0].Evaluations)
	assert.Equal(t, 3.67, daily[0].AverageScore)

	// 2. 按职务，日志多的在前
	byJob, err := env.stats.ByJob(ctx)
	require.NoError(t, err)
	require.Len(t, byJob, 2)
	assert.Equal(t, "포장", byJob[0].JobTitle)
	assert.Equal(t, 2, byJob[0].Logs)
	assert.Equal(t, 3.0, byJob[0].AverageScore)

	// 3. 学员历史
	trainee, err := env.stats.Trainee(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "홍길동", trainee.Name)
	assert.Equal(t, 3, trainee.Count)
	assert.Equal(t, 5, trainee.MaxScore)
	assert.Equal(t, 4.33, trainee.AverageScore)
	assert.Equal(t, "2024-03-01", trainee.History[0].Date)
	assert.Len(t, trainee.ByJob, 2)

	_, err = env.stats.Trainee(ctx, "nobody")
	assert.ErrorIs(t, err, service.ErrTraineeNotFound)

	// 4. 审批
	_, err = env.approvals.Approve(actorCtx(manager), first.ID, &service.ApproveRequest{})
	require.NoError(t, err)
	_, err = env.approvals.Approve(actorCtx(director), first.ID, &service.ApproveRequest{})
	require.NoError(t, err)
	approvals, err := env.stats.Approvals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, approvals.Total)
	assert.Equal(t, 1, approvals.Approved)
	assert.Equal(t, 2, approvals.InProgress)
	assert.Equal(t, 33.33, approvals.ApprovalRate)
	assert.Equal(t, 2, approvals.PendingByRole["manager"])
	assert.Equal(t, 0, approvals.PendingByRole["director"])
}
