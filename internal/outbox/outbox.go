package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/sirupsen/logrus"
)

// ErrStopped 调度器已停止
var ErrStopped = errors.New("outbox dispatcher stopped")

// Executor 执行一条待同步操作
type Executor interface {
	Execute(ctx context.Context, action string, payload json.RawMessage) error
}

// ExecutorFunc 函数形式的 Executor
type ExecutorFunc func(ctx context.Context, action string, payload json.RawMessage) error

// Execute 调用函数本身
func (f ExecutorFunc) Execute(ctx context.Context, action string, payload json.RawMessage) error {
	return f(ctx, action, payload)
}

// permanentError 不可重试的错误
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 标记错误不可重试，操作会直接进入 failed
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 判断错误是否不可重试
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Options 调度器参数
type Options struct {
	Workers         int
	QueueSize       int
	MaxRetries      int
	InitialBackoff  time.Duration
	Timeout         time.Duration // 单次执行超时
	RecoverInterval time.Duration // 定期将 pending 操作重新入队
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.RecoverInterval <= 0 {
		o.RecoverInterval = time.Minute
	}
}

// Dispatcher 基于数据库的待同步操作调度器
type Dispatcher interface {
	// Enqueue 持久化一条操作并异步执行
	Enqueue(action, logID string, payload interface{}) (*model.OutboxModel, error)
	// Recover 将数据库中 pending 的操作重新入队
	Recover() (int, error)
	// Drain 在当前 goroutine 中同步处理所有 pending 操作
	Drain(ctx context.Context) (int, error)
	// Status 查询某条日志的同步记录
	Status(logID string) ([]*model.OutboxModel, error)
	// Start 启动 worker
	Start()
	// Stop 停止并等待所有 worker 退出
	Stop()
}

// dispatcher 调度器实现
type dispatcher struct {
	repo     repository.OutboxRepository
	executor Executor
	opts     Options
	logger   logrus.FieldLogger

	queue    chan string
	stop     chan struct{}
	wg       sync.WaitGroup
	startMu  sync.Mutex
	started  bool
	stopped  bool
	inflight sync.Map // id -> struct{}，避免同一操作被并发处理
}

// NewDispatcher 创建调度器，需调用 Start 启动 worker
func NewDispatcher(repo repository.OutboxRepository, executor Executor, opts Options, logger logrus.FieldLogger) Dispatcher {
	opts.applyDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &dispatcher{
		repo:     repo,
		executor: executor,
		opts:     opts,
		logger:   logger.WithField("component", "outbox"),
		queue:    make(chan string, opts.QueueSize),
		stop:     make(chan struct{}),
	}
}

// Start 启动 worker goroutines
func (d *dispatcher) Start() {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.wg.Add(1)
	go d.recoverLoop()
}

// recoverLoop 定期恢复 pending 操作，直到调度器停止
func (d *dispatcher) recoverLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.opts.RecoverInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := d.Recover(); err != nil {
				d.logger.WithError(err).Warn("periodic outbox recovery failed")
			}
		case <-d.stop:
			return
		}
	}
}

// Stop 停止调度器，未完成的操作保持 pending，下次启动时恢复
func (d *dispatcher) Stop() {
	d.startMu.Lock()
	if d.stopped {
		d.startMu.Unlock()
		return
	}
	d.stopped = true
	close(d.stop)
	d.startMu.Unlock()

	d.wg.Wait()
}

// Enqueue 持久化操作并入队
func (d *dispatcher) Enqueue(action, logID string, payload interface{}) (*model.OutboxModel, error) {
	// 1. 序列化负载
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	// 2. 持久化到数据库
	now := time.Now()
	entry := &model.OutboxModel{
		ID:        uuid.New().String(),
		Action:    action,
		LogID:     logID,
		Payload:   data,
		Status:    model.OutboxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.repo.Save(entry); err != nil {
		return nil, fmt.Errorf("failed to save outbox entry: %w", err)
	}

	// 3. 异步执行
	d.push(entry.ID)
	return entry, nil
}

// push 入队，队列满或已停止时保持 pending
func (d *dispatcher) push(id string) {
	d.startMu.Lock()
	stopped := d.stopped
	d.startMu.Unlock()
	if stopped {
		return
	}

	select {
	case d.queue <- id:
	default:
		d.logger.WithField("entry_id", id).Warn("outbox queue full, entry left pending")
	}
}

// Recover 将 pending 操作重新入队
func (d *dispatcher) Recover() (int, error) {
	entries, err := d.repo.FindPending()
	if err != nil {
		return 0, fmt.Errorf("failed to load pending outbox entries: %w", err)
	}
	recovered := 0
	for _, entry := range entries {
		// 正在执行或退避中的操作不重复入队
		if _, busy := d.inflight.Load(entry.ID); busy {
			continue
		}
		d.push(entry.ID)
		recovered++
	}
	if recovered > 0 {
		d.logger.WithField("count", recovered).Info("recovered pending outbox entries")
	}
	return recovered, nil
}

// Drain 同步处理所有 pending 操作，返回处理数量
func (d *dispatcher) Drain(ctx context.Context) (int, error) {
	entries, err := d.repo.FindPending()
	if err != nil {
		return 0, fmt.Errorf("failed to load pending outbox entries: %w", err)
	}
	processed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		d.process(ctx, entry.ID)
		processed++
	}
	return processed, nil
}

// Status 查询同步记录
func (d *dispatcher) Status(logID string) ([]*model.OutboxModel, error) {
	return d.repo.FindByLogID(logID)
}

// worker 操作处理 worker
func (d *dispatcher) worker() {
	defer d.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-d.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case id := <-d.queue:
			d.process(ctx, id)
		case <-d.stop:
			return
		}
	}
}

// process 执行一条操作，失败时按指数退避重试
func (d *dispatcher) process(ctx context.Context, id string) {
	if _, busy := d.inflight.LoadOrStore(id, struct{}{}); busy {
		return
	}
	defer d.inflight.Delete(id)

	// 1. 读取操作
	entry, err := d.repo.FindByID(id)
	if err != nil {
		d.logger.WithError(err).WithField("entry_id", id).Error("failed to load outbox entry")
		return
	}
	if entry.Status != model.OutboxPending {
		return
	}

	log := d.logger.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"action":   entry.Action,
		"log_id":   entry.LogID,
	})

	// 2. 执行并重试
	backoff := d.opts.InitialBackoff
	retries := entry.RetryCount
	for {
		err := d.execute(ctx, entry)
		if err == nil {
			d.finish(log, entry, model.OutboxSuccess, retries, "")
			return
		}

		// 停止时保持 pending，下次启动恢复
		if ctx.Err() != nil {
			_ = d.repo.UpdateStatus(entry.ID, model.OutboxPending, retries, err.Error())
			return
		}

		retries++
		if IsPermanent(err) || retries >= d.opts.MaxRetries {
			log.WithError(err).WithField("retry_count", retries).Warn("outbox entry failed")
			d.finish(log, entry, model.OutboxFailed, retries, err.Error())
			return
		}

		if err := d.repo.UpdateStatus(entry.ID, model.OutboxPending, retries, err.Error()); err != nil {
			log.WithError(err).Error("failed to update outbox retry count")
		}
		log.WithError(err).WithField("retry_count", retries).Debug("outbox entry will be retried")

		// 3. 等待后重试
		select {
		case <-time.After(backoff):
			backoff *= 2 // 指数退避
		case <-ctx.Done():
			return
		}
	}
}

// execute 带超时执行一次
func (d *dispatcher) execute(ctx context.Context, entry *model.OutboxModel) error {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return d.executor.Execute(callCtx, entry.Action, json.RawMessage(entry.Payload))
}

// finish 写入最终状态
func (d *dispatcher) finish(log logrus.FieldLogger, entry *model.OutboxModel, status string, retries int, lastError string) {
	if err := d.repo.UpdateStatus(entry.ID, status, retries, lastError); err != nil {
		log.WithError(err).Error("failed to update outbox status")
	}
	metrics.RecordOutbox(entry.Action, status)
}
