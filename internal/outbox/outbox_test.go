package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

// setupRepo 创建测试仓储
func setupRepo(t *testing.T) repository.OutboxRepository {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return repository.NewOutboxRepository(db)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func fastOptions() outbox.Options {
	return outbox.Options{Workers: 2, QueueSize: 10, MaxRetries: 3, InitialBackoff: time.Millisecond, Timeout: time.Second}
}

func waitStatus(t *testing.T, repo repository.OutboxRepository, id, status string) *model.OutboxModel {
	var entry *model.OutboxModel
	require.Eventually(t, func() bool {
		e, err := repo.FindByID(id)
		if err != nil {
			return false
		}
		entry = e
		return e.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return entry
}

// TestDispatcher_Success 测试操作执行成功
func TestDispatcher_Success(t *testing.T) {
	repo := setupRepo(t)

	var calls atomic.Int32
	var gotAction atomic.Value
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		calls.Add(1)
		gotAction.Store(action)
		var body map[string]string
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		if body["logId"] != "log-1" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	defer d.Stop()

	entry, err := d.Enqueue("save_approval", "log-1", map[string]string{"logId": "log-1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutboxPending, entry.Status)

	done := waitStatus(t, repo, entry.ID, model.OutboxSuccess)
	assert.Equal(t, 0, done.RetryCount)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "save_approval", gotAction.Load())
}

// TestDispatcher_RetryThenSuccess 测试重试后成功
func TestDispatcher_RetryThenSuccess(t *testing.T) {
	repo := setupRepo(t)

	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		if calls.Add(1) < 3 {
			return errors.New("HTTP Error 503")
		}
		return nil
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	defer d.Stop()

	entry, err := d.Enqueue("export_data", "log-1", []string{"row"})
	require.NoError(t, err)

	done := waitStatus(t, repo, entry.ID, model.OutboxSuccess)
	assert.Equal(t, 2, done.RetryCount)
	assert.Equal(t, int32(3), calls.Load())
}

// TestDispatcher_ExhaustRetries 测试重试耗尽后标记失败
func TestDispatcher_ExhaustRetries(t *testing.T) {
	repo := setupRepo(t)

	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		calls.Add(1)
		return errors.New("HTTP Error 500")
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	defer d.Stop()

	entry, err := d.Enqueue("save_approval", "log-1", map[string]string{})
	require.NoError(t, err)

	failed := waitStatus(t, repo, entry.ID, model.OutboxFailed)
	assert.Equal(t, 3, failed.RetryCount)
	assert.Equal(t, "HTTP Error 500", failed.LastError)
	assert.Equal(t, int32(3), calls.Load())
}

// TestDispatcher_PermanentError 测试不可重试错误
func TestDispatcher_PermanentError(t *testing.T) {
	repo := setupRepo(t)

	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		calls.Add(1)
		return outbox.Permanent(errors.New("script url not configured"))
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	defer d.Stop()

	entry, err := d.Enqueue("save_approval", "log-1", map[string]string{})
	require.NoError(t, err)

	failed := waitStatus(t, repo, entry.ID, model.OutboxFailed)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, outbox.IsPermanent(outbox.Permanent(errors.New("x"))))
	assert.Nil(t, outbox.Permanent(nil))
}

// TestDispatcher_Recover 测试启动时恢复 pending 操作
func TestDispatcher_Recover(t *testing.T) {
	repo := setupRepo(t)

	// 模拟上次运行遗留的操作
	for _, id := range []string{"left-1", "left-2"} {
		require.NoError(t, repo.Save(&model.OutboxModel{
			ID: id, Action: "export_data", LogID: "log-1", Payload: []byte(`[]`),
			Status: model.OutboxPending, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}))
	}

	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		calls.Add(1)
		return nil
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	defer d.Stop()

	n, err := d.Recover()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	waitStatus(t, repo, "left-1", model.OutboxSuccess)
	waitStatus(t, repo, "left-2", model.OutboxSuccess)
	assert.Equal(t, int32(2), calls.Load())
}

// TestDispatcher_PeriodicRecover 测试队列满时遗留的操作被定期恢复
func TestDispatcher_PeriodicRecover(t *testing.T) {
	repo := setupRepo(t)

	release := make(chan struct{})
	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		calls.Add(1)
		return nil
	})

	opts := outbox.Options{
		Workers:         1,
		QueueSize:       1,
		MaxRetries:      3,
		InitialBackoff:  time.Millisecond,
		Timeout:         time.Second,
		RecoverInterval: 10 * time.Millisecond,
	}
	d := outbox.NewDispatcher(repo, exec, opts, quietLogger())
	d.Start()
	defer d.Stop()

	// 1. worker 阻塞时连续入队，至少一条因队列满保持 pending
	var ids []string
	for i := 0; i < 3; i++ {
		entry, err := d.Enqueue("export_data", "log-1", map[string]int{"n": i})
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	// 2. 放行后无需重启即可全部完成
	close(release)
	for _, id := range ids {
		waitStatus(t, repo, id, model.OutboxSuccess)
	}
	assert.Equal(t, int32(3), calls.Load())
}

// TestDispatcher_StopAndDrain 测试停止后入队的操作保持 pending 并可同步处理
func TestDispatcher_StopAndDrain(t *testing.T) {
	repo := setupRepo(t)

	var calls atomic.Int32
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		calls.Add(1)
		return nil
	})

	d := outbox.NewDispatcher(repo, exec, fastOptions(), quietLogger())
	d.Start()
	d.Stop()
	// 重复停止不应阻塞
	d.Stop()

	entry, err := d.Enqueue("save_backup", "", map[string]string{"payload": "{}"})
	require.NoError(t, err)

	stored, err := repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxPending, stored.Status)
	assert.Zero(t, calls.Load())

	n, err := d.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stored, err = repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxSuccess, stored.Status)

	statuses, err := d.Status("")
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
}

// TestDispatcher_StopDuringBackoff 测试退避等待中停止
func TestDispatcher_StopDuringBackoff(t *testing.T) {
	repo := setupRepo(t)

	attempted := make(chan struct{}, 1)
	exec := outbox.ExecutorFunc(func(ctx context.Context, action string, payload json.RawMessage) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return errors.New("HTTP Error 502")
	})

	opts := fastOptions()
	opts.InitialBackoff = time.Hour
	d := outbox.NewDispatcher(repo, exec, opts, quietLogger())
	d.Start()

	entry, err := d.Enqueue("save_approval", "log-1", map[string]string{})
	require.NoError(t, err)

	<-attempted
	require.Eventually(t, func() bool {
		e, err := repo.FindByID(entry.ID)
		return err == nil && e.RetryCount == 1
	}, 2*time.Second, 5*time.Millisecond)
	d.Stop()

	stored, err := repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxPending, stored.Status)
}
