package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackupService(t *testing.T, env *testEnv) *service.BackupService {
	return service.NewBackupService(env.db, t.TempDir(), env.settings, env.script, env.audit, nil, quietLogger())
}

// TestBackupService_LocalRoundTrip 测试本地备份与恢复
func TestBackupService_LocalRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")
	_, err := env.approvals.Approve(actorCtx(manager), log.ID, &service.ApproveRequest{})
	require.NoError(t, err)
	svc := newBackupService(t, env)
	ctx := context.Background()

	// 1. 创建备份
	filename, err := svc.CreateBackup(ctx)
	require.NoError(t, err)
	backups, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, filename, backups[0].Filename)

	// 2. 修改数据
	require.NoError(t, env.logs.Delete(log.ID))
	require.NoError(t, env.trainees.Delete("t2"))
	_, err = env.overlays.FindByLogID(log.ID)
	require.NoError(t, err)
	require.NoError(t, env.overlays.ReplaceAll(map[string]domain.ApprovalOverlay{}))

	// 3. 恢复
	require.NoError(t, svc.RestoreBackup(ctx, filename))
	restored, err := env.logs.FindByID(log.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproved, restored.ToDomain().Approvals[1].Status)
	trainees, err := env.trainees.FindAll()
	require.NoError(t, err)
	assert.Len(t, trainees, 2)
	overlay, err := env.overlays.FindByLogID(log.ID)
	require.NoError(t, err)
	assert.NotNil(t, overlay)
}

// TestBackupService_InvalidNames 测试非法文件名
func TestBackupService_InvalidNames(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newBackupService(t, env)
	ctx := context.Background()

	for _, name := range []string{"../state.db", "backup_x.zip", "backup_20240101_000000.000.tar.gz", "sub/backup_1.tar.gz"} {
		assert.ErrorIs(t, svc.RestoreBackup(ctx, name), service.ErrBackupNotFound, name)
		assert.ErrorIs(t, svc.DeleteBackup(ctx, name), service.ErrBackupNotFound, name)
	}
}

// TestBackupService_ApplyPartial 测试只替换快照中存在的字段
func TestBackupService_ApplyPartial(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	env.createLog(t, "2024-03-01")
	svc := newBackupService(t, env)

	facility := "새작업장"
	trainees := []domain.Trainee{{ID: "n1", Name: "새학생"}}
	require.NoError(t, svc.Apply(context.Background(), &service.StateSnapshot{
		Trainees:     &trainees,
		FacilityName: &facility,
	}))

	all, err := env.trainees.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "새학생", all[0].Name)
	assert.Equal(t, "새작업장", env.settings.Get().FacilityName)

	// 日志与员工不变
	count, err := env.logs.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	employees, err := env.employees.FindAll()
	require.NoError(t, err)
	assert.Len(t, employees, 3)
}

// TestBackupService_Cloud 测试云端保存与读取
func TestBackupService_Cloud(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedRoster(t)
	svc := newBackupService(t, env)
	ctx := context.Background()

	// 1. 保存的内容为快照 JSON
	require.NoError(t, svc.CloudSave(ctx))
	var saved map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.script.savedBackup, &saved))
	assert.Contains(t, saved, "logs")
	assert.Contains(t, saved, "googleDriveFolderId")
	assert.Contains(t, saved, "approvalOverlays")

	// 2. 没有备份
	assert.ErrorIs(t, svc.CloudLoad(ctx), service.ErrNoBackup)

	// 3. 读取并恢复
	env.script.backup = []byte(`{"jobs":[{"id":"shared-job-원예","title":"원예"}],"facilityName":"클라우드"}`)
	require.NoError(t, svc.CloudLoad(ctx))
	jobs, err := env.jobs.FindAll()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "원예", jobs[0].Title)
	assert.Equal(t, "클라우드", env.settings.Get().FacilityName)

	// 4. 格式错误
	env.script.backup = []byte("<html>")
	assert.Error(t, svc.CloudLoad(ctx))
}

// TestBackupScheduler_Cleanup 测试清理过期备份
func TestBackupScheduler_Cleanup(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newBackupService(t, env)
	scheduler := service.NewBackupScheduler(svc, &service.BackupScheduleConfig{Interval: time.Hour, RetentionDays: 7}, quietLogger())
	ctx := context.Background()

	old, err := svc.CreateBackup(ctx)
	require.NoError(t, err)
	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(svc.BackupDir(), old), past, past))

	// RunOnce 创建新备份并删除过期备份
	scheduler.RunOnce(ctx)
	backups, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.NotEqual(t, old, backups[0].Filename)
	assert.Zero(t, scheduler.CleanupOldBackups(ctx))
}

// TestBackupScheduler_StartStop 测试启动与停止
func TestBackupScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newBackupService(t, env)

	disabled := service.NewBackupScheduler(svc, &service.BackupScheduleConfig{}, quietLogger())
	disabled.Start(context.Background())
	disabled.Stop()

	scheduler := service.NewBackupScheduler(svc, &service.BackupScheduleConfig{Interval: time.Hour}, quietLogger())
	scheduler.Start(context.Background())
	scheduler.Stop()
	scheduler.Stop()
}
