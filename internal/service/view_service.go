package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/reconcile"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
)

// RemoteSnapshot 最近一次读取的远程数据
type RemoteSnapshot struct {
	Data        *sheet.Table     `json:"data"`
	ProgramJobs []domain.JobTask `json:"programJobs"`
	FetchedAt   time.Time        `json:"fetchedAt"`
	Error       string           `json:"error,omitempty"`
}

// RemoteState 远程数据快照，只保存在内存中
type RemoteState struct {
	mu   sync.RWMutex
	snap RemoteSnapshot
}

// NewRemoteState 创建空快照
func NewRemoteState() *RemoteState {
	return &RemoteState{}
}

// Snapshot 返回当前快照
func (s *RemoteState) Snapshot() RemoteSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetData 更新日志表原始数据，读取失败时保留旧数据并记录错误
func (s *RemoteState) SetData(table *sheet.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.snap.Error = err.Error()
		return
	}
	s.snap.Data = table
	s.snap.Error = ""
	s.snap.FetchedAt = time.Now()
}

// SetProgramJobs 更新 program 表职务
func (s *RemoteState) SetProgramJobs(jobs []domain.JobTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ProgramJobs = jobs
}

// ViewService 计算本地与远程合并后的展示视图
type ViewService interface {
	Build(ctx context.Context) (*reconcile.View, error)
	// FindLog 在最新视图中查找日志
	FindLog(ctx context.Context, id string) (*domain.TrainingLog, *reconcile.View, error)
	// SheetLogs 按当前学员名册解析远程日志
	SheetLogs(ctx context.Context) ([]domain.TrainingLog, error)
}

type viewService struct {
	logs     repository.TrainingLogRepository
	trainees repository.TraineeRepository
	jobs     repository.JobRepository
	overlays repository.OverlayRepository
	remote   *RemoteState
	parser   *parser.Parser
}

// NewViewService 创建视图服务
func NewViewService(
	logs repository.TrainingLogRepository,
	trainees repository.TraineeRepository,
	jobs repository.JobRepository,
	overlays repository.OverlayRepository,
	remote *RemoteState,
	p *parser.Parser,
) ViewService {
	return &viewService{
		logs:     logs,
		trainees: trainees,
		jobs:     jobs,
		overlays: overlays,
		remote:   remote,
		parser:   p,
	}
}

// Build 每次读取都重新计算，输入不会被修改
func (s *viewService) Build(ctx context.Context) (*reconcile.View, error) {
	// 1. 读取本地数据
	localLogs, err := loadLogs(s.logs)
	if err != nil {
		return nil, err
	}
	localTrainees, err := loadTrainees(s.trainees)
	if err != nil {
		return nil, err
	}
	localJobs, err := loadJobs(s.jobs)
	if err != nil {
		return nil, err
	}
	overlays, err := s.overlays.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load approval overlays: %w", err)
	}

	// 2. 解析远程数据
	snap := s.remote.Snapshot()
	var parsed parser.Result
	if snap.Data != nil {
		parsed = s.parser.ParseLogs(snap.Data.Headers, snap.Data.Rows, localTrainees)
	}

	// 3. 合并
	view := reconcile.Build(reconcile.Input{
		LocalLogs:     localLogs,
		SheetLogs:     parsed.Logs,
		Overlays:      overlays,
		ProgramJobs:   snap.ProgramJobs,
		SheetJobs:     parsed.Jobs,
		LocalJobs:     localJobs,
		LocalTrainees: localTrainees,
		SheetTrainees: parsed.Trainees,
	})
	return &view, nil
}

// FindLog 在最新视图中查找日志
func (s *viewService) FindLog(ctx context.Context, id string) (*domain.TrainingLog, *reconcile.View, error) {
	view, err := s.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range view.Logs {
		if view.Logs[i].ID == id {
			log := view.Logs[i]
			return &log, view, nil
		}
	}
	return nil, view, fmt.Errorf("%w: %s", ErrLogNotFound, id)
}

// SheetLogs 解析远程日志
func (s *viewService) SheetLogs(ctx context.Context) ([]domain.TrainingLog, error) {
	snap := s.remote.Snapshot()
	if snap.Data == nil {
		return nil, nil
	}
	trainees, err := loadTrainees(s.trainees)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseLogs(snap.Data.Headers, snap.Data.Rows, trainees).Logs, nil
}

func loadLogs(repo repository.TrainingLogRepository) ([]domain.TrainingLog, error) {
	models, err := repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load training logs: %w", err)
	}
	logs := make([]domain.TrainingLog, 0, len(models))
	for _, m := range models {
		logs = append(logs, m.ToDomain())
	}
	return logs, nil
}

func loadTrainees(repo repository.TraineeRepository) ([]domain.Trainee, error) {
	models, err := repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load trainees: %w", err)
	}
	trainees := make([]domain.Trainee, 0, len(models))
	for _, m := range models {
		trainees = append(trainees, m.ToDomain())
	}
	return trainees, nil
}

func loadJobs(repo repository.JobRepository) ([]domain.JobTask, error) {
	models, err := repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	jobs := make([]domain.JobTask, 0, len(models))
	for _, m := range models {
		jobs = append(jobs, m.ToDomain())
	}
	return jobs, nil
}

func loadEmployees(repo repository.EmployeeRepository) ([]domain.Employee, error) {
	models, err := repo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	employees := make([]domain.Employee, 0, len(models))
	for _, m := range models {
		employees = append(employees, m.ToDomain())
	}
	return employees, nil
}
