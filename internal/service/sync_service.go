package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/reconcile"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SyncService 远程表格同步服务接口
type SyncService interface {
	// Refresh 并行读取日志表、审批表与 program 表
	Refresh(ctx context.Context) (*RefreshResult, error)
	// RefreshData 只读取日志表
	RefreshData(ctx context.Context) error
	// Import 将远程日志中本地没有的日志保存到本地
	Import(ctx context.Context) (int, error)
	SyncTrainees(ctx context.Context) (int, error)
	SyncEmployees(ctx context.Context) (int, error)
	PushEmployees(ctx context.Context) (int, error)
	Raw() RemoteSnapshot
	TestConnection(ctx context.Context) (*ConnectionTest, error)
	Status(ctx context.Context) (*SyncStatus, error)
	// EnsureSession 每个会话第一次调用时执行完整同步，之后只刷新日志表
	EnsureSession(ctx context.Context) (bool, error)
}

// RefreshResult 刷新结果
type RefreshResult struct {
	Rows      int               `json:"rows"`
	Overlays  int               `json:"overlays"`
	Programs  int               `json:"programs"`
	Warnings  map[string]string `json:"warnings,omitempty"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// ConnectionTest 连接测试结果
type ConnectionTest struct {
	Script      string `json:"script"`
	DriveFolder string `json:"driveFolder,omitempty"`
	DriveError  string `json:"driveError,omitempty"`
}

// SyncStatus 同步状态
type SyncStatus struct {
	Outbox        map[string]int64 `json:"outbox"`
	LastFetchedAt time.Time        `json:"lastFetchedAt"`
	LastError     string           `json:"lastError,omitempty"`
	ScriptURLSet  bool             `json:"scriptUrlSet"`
	AutoSync      bool             `json:"autoSync"`
}

// SyncOptions 同步参数
type SyncOptions struct {
	InfoGID string // 员工表 gid，脚本读取失败时使用
}

type syncService struct {
	reader    sheet.TableReader
	script    sheet.Script
	parser    *parser.Parser
	remote    *RemoteState
	views     ViewService
	logs      repository.TrainingLogRepository
	trainees  repository.TraineeRepository
	employees repository.EmployeeRepository
	overlays  repository.OverlayRepository
	outbox    repository.OutboxRepository
	settings  SettingsService
	audit     AuditLogService
	notifier  Notifier
	logger    logrus.FieldLogger
	opts      SyncOptions

	overlayMu sync.Mutex
	sessionMu sync.Mutex
	sessions  map[string]bool
}

// NewSyncService 创建同步服务
func NewSyncService(
	reader sheet.TableReader,
	script sheet.Script,
	p *parser.Parser,
	remote *RemoteState,
	views ViewService,
	logs repository.TrainingLogRepository,
	trainees repository.TraineeRepository,
	employees repository.EmployeeRepository,
	overlays repository.OverlayRepository,
	outboxRepo repository.OutboxRepository,
	settings SettingsService,
	audit AuditLogService,
	notifier Notifier,
	logger logrus.FieldLogger,
	opts SyncOptions,
) SyncService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &syncService{
		reader:    reader,
		script:    script,
		parser:    p,
		remote:    remote,
		views:     views,
		logs:      logs,
		trainees:  trainees,
		employees: employees,
		overlays:  overlays,
		outbox:    outboxRepo,
		settings:  settings,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
		logger:    logger.WithField("service", "sync"),
		opts:      opts,
		sessions:  make(map[string]bool),
	}
}

// Refresh 并行读取三张表，只有日志表失败时返回错误
func (s *syncService) Refresh(ctx context.Context) (*RefreshResult, error) {
	s.reader.Invalidate()

	result := &RefreshResult{}
	var (
		mu       sync.Mutex
		warnings = map[string]string{}
		dataErr  error
	)
	warn := func(tab string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings[tab] = err.Error()
	}

	var g errgroup.Group
	g.Go(func() error {
		rows, err := s.fetchData(ctx)
		if err != nil {
			dataErr = err
			return nil
		}
		result.Rows = rows
		return nil
	})
	g.Go(func() error {
		n, err := s.fetchApprovals(ctx)
		if err != nil {
			warn(sheet.TabApprovals, err)
			return nil
		}
		result.Overlays = n
		return nil
	})
	g.Go(func() error {
		n, err := s.fetchPrograms(ctx)
		if err != nil {
			warn(sheet.TabProgram, err)
			return nil
		}
		result.Programs = n
		return nil
	})
	_ = g.Wait()

	if len(warnings) > 0 {
		result.Warnings = warnings
		s.logger.WithField("warnings", warnings).Warn("partial remote refresh")
	}
	if dataErr != nil {
		return result, dataErr
	}
	result.FetchedAt = s.remote.Snapshot().FetchedAt
	s.notifier.Notify(EventSyncRefreshed, result)
	return result, nil
}

// RefreshData 只刷新日志表
func (s *syncService) RefreshData(ctx context.Context) error {
	s.reader.Invalidate()
	if _, err := s.fetchData(ctx); err != nil {
		return err
	}
	s.notifier.Notify(EventSyncRefreshed, map[string]interface{}{"fetchedAt": s.remote.Snapshot().FetchedAt})
	return nil
}

func (s *syncService) fetchData(ctx context.Context) (int, error) {
	table, err := s.reader.FetchTable(ctx, sheet.TableQuery{Sheet: sheet.TabData})
	metrics.RecordRemoteRead(sheet.TabData, err)
	s.remote.SetData(table, err)
	if err != nil {
		return 0, fmt.Errorf("failed to read data tab: %w", err)
	}
	return len(table.Rows), nil
}

// fetchApprovals 读取审批表并合并到已保存的覆盖层
func (s *syncService) fetchApprovals(ctx context.Context) (int, error) {
	table, err := s.reader.FetchTable(ctx, sheet.TableQuery{Sheet: sheet.TabApprovals})
	metrics.RecordRemoteRead(sheet.TabApprovals, err)
	if err != nil {
		return 0, err
	}
	fetched := s.parser.ParseApprovalOverlays(table.Rows)
	if len(fetched) == 0 {
		return 0, nil
	}

	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	existing, err := s.overlays.FindAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load approval overlays: %w", err)
	}
	if err := s.overlays.ReplaceAll(reconcile.MergeOverlays(existing, fetched)); err != nil {
		return 0, fmt.Errorf("failed to save approval overlays: %w", err)
	}
	return len(fetched), nil
}

func (s *syncService) fetchPrograms(ctx context.Context) (int, error) {
	table, err := s.reader.FetchTable(ctx, sheet.TableQuery{Sheet: sheet.TabProgram})
	metrics.RecordRemoteRead(sheet.TabProgram, err)
	if err != nil {
		return 0, err
	}
	jobs := s.parser.ParsePrograms(table.Rows)
	s.remote.SetProgramJobs(jobs)
	return len(jobs), nil
}

// Import 读取日志表并保存本地不存在的日志
func (s *syncService) Import(ctx context.Context) (int, error) {
	if err := s.RefreshData(ctx); err != nil {
		return 0, err
	}
	sheetLogs, err := s.views.SheetLogs(ctx)
	if err != nil {
		return 0, err
	}

	local, err := s.logs.FindAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load training logs: %w", err)
	}
	existing := make(map[string]bool, len(local))
	for _, l := range local {
		existing[l.ID] = true
	}

	imported := 0
	for _, log := range sheetLogs {
		if existing[log.ID] {
			continue
		}
		if err := s.logs.Save(model.NewTrainingLogModel(log)); err != nil {
			return imported, fmt.Errorf("failed to save imported log %s: %w", log.ID, err)
		}
		existing[log.ID] = true
		imported++
	}

	if imported > 0 {
		recordAudit(ctx, s.audit, "import", ResourceSync, sheet.TabData, map[string]int{"imported": imported})
		s.notifier.Notify(EventLogsChanged, map[string]int{"imported": imported})
	}
	return imported, nil
}

// SyncTrainees 用 employee 表替换学员名册
func (s *syncService) SyncTrainees(ctx context.Context) (int, error) {
	table, err := s.reader.FetchTable(ctx, sheet.TableQuery{Sheet: sheet.TabEmployee})
	metrics.RecordRemoteRead(sheet.TabEmployee, err)
	if err != nil {
		return 0, err
	}
	trainees, err := s.parser.ParseTrainees(table.Headers, table.Rows)
	if err != nil {
		return 0, err
	}

	models := make([]*model.TraineeModel, 0, len(trainees))
	for i, t := range trainees {
		models = append(models, model.NewTraineeModel(t, i))
	}
	if err := s.trainees.ReplaceAll(models); err != nil {
		return 0, fmt.Errorf("failed to replace trainees: %w", err)
	}

	recordAudit(ctx, s.audit, "sync", ResourceTrainee, sheet.TabEmployee, map[string]int{"count": len(trainees)})
	s.notifier.Notify(EventRosterChanged, map[string]int{"trainees": len(trainees)})
	return len(trainees), nil
}

// SyncEmployees 优先通过脚本读取员工表，失败或为空时读取 info 表
func (s *syncService) SyncEmployees(ctx context.Context) (int, error) {
	var employees []domain.Employee
	if s.settings.ScriptURL() != "" {
		rows, err := s.script.GetEmployees(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("script employee read failed, falling back to sheet")
		} else {
			employees = s.parser.ParseEmployees(rows)
		}
	}

	if len(employees) == 0 {
		table, err := s.reader.FetchTable(ctx, sheet.TableQuery{GID: s.opts.InfoGID})
		metrics.RecordRemoteRead("info", err)
		if err != nil {
			return 0, err
		}
		employees = s.parser.ParseEmployees(table.Rows)
	}
	if len(employees) == 0 {
		return 0, nil
	}

	models := make([]*model.EmployeeModel, 0, len(employees))
	for i, e := range employees {
		models = append(models, model.NewEmployeeModel(e, i))
	}
	if err := s.employees.ReplaceAll(models); err != nil {
		return 0, fmt.Errorf("failed to replace employees: %w", err)
	}

	recordAudit(ctx, s.audit, "sync", ResourceEmployee, "info", map[string]int{"count": len(employees)})
	s.notifier.Notify(EventRosterChanged, map[string]int{"employees": len(employees)})
	return len(employees), nil
}

// PushEmployees 用本地员工名册覆盖远程员工表
func (s *syncService) PushEmployees(ctx context.Context) (int, error) {
	employees, err := loadEmployees(s.employees)
	if err != nil {
		return 0, err
	}
	if err := s.script.SaveEmployees(ctx, parser.EmployeeRows(employees)); err != nil {
		return 0, err
	}
	recordAudit(ctx, s.audit, "push", ResourceEmployee, "info", map[string]int{"count": len(employees)})
	return len(employees), nil
}

// Raw 返回最近读取的原始数据
func (s *syncService) Raw() RemoteSnapshot {
	return s.remote.Snapshot()
}

// TestConnection 测试脚本与云盘文件夹
func (s *syncService) TestConnection(ctx context.Context) (*ConnectionTest, error) {
	msg, err := s.script.Test(ctx)
	if err != nil {
		return nil, err
	}
	result := &ConnectionTest{Script: msg}

	if folder := s.settings.Get().DriveFolderID; folder != "" {
		driveMsg, err := s.script.TestDriveFolder(ctx, folder)
		if err != nil {
			result.DriveError = err.Error()
		} else {
			result.DriveFolder = driveMsg
		}
	}
	return result, nil
}

// Status 返回同步队列与远程读取状态
func (s *syncService) Status(ctx context.Context) (*SyncStatus, error) {
	counts, err := s.outbox.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox entries: %w", err)
	}
	snap := s.remote.Snapshot()
	settings := s.settings.Get()
	return &SyncStatus{
		Outbox:        counts,
		LastFetchedAt: snap.FetchedAt,
		LastError:     snap.Error,
		ScriptURLSet:  settings.ScriptURL != "",
		AutoSync:      settings.AutoSync,
	}, nil
}

// EnsureSession 会话首次调用时执行完整同步，返回是否执行了完整同步
func (s *syncService) EnsureSession(ctx context.Context) (bool, error) {
	session := auth.SessionFromContext(ctx)
	if session == "" {
		return false, ErrUnauthenticated
	}
	// 未配置脚本时名册由本地维护，不做会话同步
	if s.settings.ScriptURL() == "" {
		return false, nil
	}

	s.sessionMu.Lock()
	first := !s.sessions[session]
	s.sessions[session] = true
	s.sessionMu.Unlock()

	if !first {
		return false, s.RefreshData(ctx)
	}

	// 1. 原始数据、approvals、program
	if _, err := s.Refresh(ctx); err != nil {
		return true, err
	}

	// 2. 名册，单项失败只记录日志
	var errs []error
	if _, err := s.SyncTrainees(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trainees: %w", err))
	}
	if _, err := s.SyncEmployees(ctx); err != nil {
		errs = append(errs, fmt.Errorf("employees: %w", err))
	}

	// 3. 自动导入
	if s.settings.Get().AutoSync {
		if _, err := s.Import(ctx); err != nil {
			errs = append(errs, fmt.Errorf("import: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.WithError(err).WithField("session", session).Warn("session sync finished with errors")
	}
	return true, nil
}
