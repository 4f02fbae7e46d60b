package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/metrics"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/reconcile"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
	"github.com/sirupsen/logrus"
)

// LogService 训练日志服务接口
type LogService interface {
	List(ctx context.Context, filter LogListFilter) ([]domain.TrainingLog, error)
	Get(ctx context.Context, id string) (*domain.TrainingLog, error)
	Create(ctx context.Context, req *CreateLogRequest) (*CreateLogResult, error)
	SyncStatus(ctx context.Context, id string) ([]*model.OutboxModel, error)
}

// LogListFilter 日志列表过滤条件
type LogListFilter struct {
	Date   string // 精确日期
	Term   string // 匹配职务、负责人、学员、总评
	Status string // in-progress/approved/rejected
}

// EvaluationInput 评价输入
type EvaluationInput struct {
	TraineeID string `json:"traineeId" binding:"required" validate:"required"`
	Score     int    `json:"score" binding:"required" validate:"min=1,max=5"`
	Note      string `json:"note"`
}

// CreateLogRequest 创建训练日志请求
type CreateLogRequest struct {
	Date           string            `json:"date" binding:"required" validate:"required"`
	TaskID         string            `json:"taskId" binding:"required" validate:"required"`
	Weather        string            `json:"weather"`
	InstructorName string            `json:"instructorName" binding:"required" validate:"required"`
	Summary        string            `json:"aiSummary"`
	Images         []string          `json:"images"`
	Evaluations    []EvaluationInput `json:"evaluations" validate:"dive"`
}

// CreateLogResult 创建结果
type CreateLogResult struct {
	Log *domain.TrainingLog `json:"log"`
	// ImagesDropped 图片上传失败，日志已保存但不含图片
	ImagesDropped bool   `json:"imagesDropped"`
	UploadError   string `json:"uploadError,omitempty"`
	// SyncQueued 是否已排队导出到远程表格
	SyncQueued bool `json:"syncQueued"`
}

type logService struct {
	logs       repository.TrainingLogRepository
	employees  repository.EmployeeRepository
	views      ViewService
	settings   SettingsService
	script     sheet.Script
	dispatcher outbox.Dispatcher
	images     *ImageProcessor
	audit      AuditLogService
	notifier   Notifier
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewLogService 创建训练日志服务
func NewLogService(
	logs repository.TrainingLogRepository,
	employees repository.EmployeeRepository,
	views ViewService,
	settings SettingsService,
	script sheet.Script,
	dispatcher outbox.Dispatcher,
	images *ImageProcessor,
	audit AuditLogService,
	notifier Notifier,
	logger logrus.FieldLogger,
) LogService {
	if images == nil {
		images = NewImageProcessor(0, 0)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &logService{
		logs:       logs,
		employees:  employees,
		views:      views,
		settings:   settings,
		script:     script,
		dispatcher: dispatcher,
		images:     images,
		audit:      audit,
		notifier:   notifierOrNoop(notifier),
		logger:     logger.WithField("service", "logs"),
		now:        time.Now,
	}
}

// List 返回展示视图中符合条件的日志
func (s *logService) List(ctx context.Context, filter LogListFilter) ([]domain.TrainingLog, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	date := domain.NormalizeDate(filter.Date)
	term := strings.ToLower(strings.TrimSpace(filter.Term))
	result := make([]domain.TrainingLog, 0, len(view.Logs))
	for _, log := range view.Logs {
		if date != "" && domain.NormalizeDate(log.Date) != date {
			continue
		}
		if filter.Status != "" && string(log.Status()) != filter.Status {
			continue
		}
		if term != "" && !matchesTerm(log, view, term) {
			continue
		}
		result = append(result, log)
	}
	return result, nil
}

func matchesTerm(log domain.TrainingLog, view *reconcile.View, term string) bool {
	fields := []string{
		domain.JobTitle(view.Jobs, log.TaskID),
		log.InstructorName,
		log.Summary,
	}
	for _, ev := range log.Evaluations {
		fields = append(fields, domain.TraineeName(view.Trainees, ev.TraineeID))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Get 获取展示视图中的日志
func (s *logService) Get(ctx context.Context, id string) (*domain.TrainingLog, error) {
	log, _, err := s.views.FindLog(ctx, id)
	return log, err
}

// Create 保存新日志
func (s *logService) Create(ctx context.Context, req *CreateLogRequest) (*CreateLogResult, error) {
	// 1. 校验
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(req.Evaluations))
	evaluations := make([]domain.Evaluation, 0, len(req.Evaluations))
	for _, ev := range req.Evaluations {
		if seen[ev.TraineeID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEvaluation, ev.TraineeID)
		}
		seen[ev.TraineeID] = true
		evaluations = append(evaluations, domain.Evaluation{TraineeID: ev.TraineeID, Score: ev.Score, Note: ev.Note})
	}

	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}
	settings := s.settings.Get()

	// 2. 组装日志，ID 由日期、职务名、负责人派生
	instructor := strings.TrimSpace(req.InstructorName)
	date := domain.NormalizeDate(req.Date)
	jobTitle := domain.JobTitle(view.Jobs, req.TaskID)
	weather := req.Weather
	if weather == "" {
		weather = domain.DefaultWeather
	}
	log := domain.TrainingLog{
		ID:             domain.NewLogKey(date, jobTitle, instructor).String(),
		Date:           date,
		TaskID:         req.TaskID,
		Weather:        weather,
		InstructorName: instructor,
		Summary:        req.Summary,
		Evaluations:    evaluations,
		Approvals:      domain.NewApprovalChain(instructor, "", s.now().UTC().Format("2006-01-02T15:04:05.000Z")),
	}

	if s.logExists(view.Logs, log.ID) {
		return nil, fmt.Errorf("%w: %s", ErrLogExists, log.ID)
	}

	// 3. 处理图片，任一上传失败则不保存图片
	result := &CreateLogResult{}
	images, uploadErr := s.processImages(ctx, settings, log, req.Images)
	if uploadErr != nil {
		s.logger.WithError(uploadErr).WithField("log_id", log.ID).Warn("image upload failed, images dropped")
		result.ImagesDropped = true
		result.UploadError = uploadErr.Error()
		images = nil
	}
	log.Images = images

	// 4. 负责人签名
	if emp, err := s.findEmployeeByName(instructor); err == nil && emp.SignatureURL != "" {
		log.Approvals[0].SignatureURL = emp.SignatureURL
	}

	// 5. 保存
	if err := s.logs.Save(model.NewTrainingLogModel(log)); err != nil {
		return nil, fmt.Errorf("failed to save training log: %w", err)
	}
	metrics.RecordLogCreated()
	recordAudit(ctx, s.audit, "create", ResourceLog, log.ID, map[string]interface{}{
		"date":        log.Date,
		"task_id":     log.TaskID,
		"evaluations": len(log.Evaluations),
	})
	s.notifier.Notify(EventLogsChanged, map[string]string{"id": log.ID})

	// 6. 自动同步
	if settings.ScriptURL != "" && settings.AutoSync && s.dispatcher != nil {
		payload := ExportPayload{LogID: log.ID, Rows: BuildExportRows(log, view.Jobs, view.Trainees)}
		if _, err := s.dispatcher.Enqueue(sheet.ActionExportData, log.ID, payload); err != nil {
			s.logger.WithError(err).WithField("log_id", log.ID).Error("failed to queue export")
		} else {
			result.SyncQueued = true
		}
	}

	result.Log = &log
	return result, nil
}

// processImages 压缩内嵌图片，配置了脚本与文件夹时上传并替换为地址
func (s *logService) processImages(ctx context.Context, settings domain.Settings, log domain.TrainingLog, images []string) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(images))
	canUpload := settings.ScriptURL != "" && settings.DriveFolderID != "" && s.script != nil
	for i, img := range images {
		if !IsInline(img) {
			out = append(out, img)
			continue
		}
		small, err := s.images.Downscale(img)
		if err != nil {
			return nil, err
		}
		if !canUpload {
			out = append(out, small)
			continue
		}
		filename := fmt.Sprintf("%s_%s_photo_%d.jpg", log.Date, log.InstructorName, i+1)
		url, err := s.script.UploadImage(ctx, settings.DriveFolderID, small, filename)
		if err != nil {
			return nil, err
		}
		out = append(out, url)
	}
	return out, nil
}

// logExists 本地或远程已有同 ID 日志
func (s *logService) logExists(logs []domain.TrainingLog, id string) bool {
	if _, err := s.logs.FindByID(id); err == nil {
		return true
	}
	for _, l := range logs {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (s *logService) findEmployeeByName(name string) (domain.Employee, error) {
	employees, err := loadEmployees(s.employees)
	if err != nil {
		return domain.Employee{}, err
	}
	if emp, ok := domain.FindEmployeeByName(employees, name); ok {
		return emp, nil
	}
	return domain.Employee{}, ErrEmployeeNotFound
}

// SyncStatus 查询日志的同步记录
func (s *logService) SyncStatus(ctx context.Context, id string) ([]*model.OutboxModel, error) {
	if s.dispatcher == nil {
		return nil, nil
	}
	return s.dispatcher.Status(id)
}

const unknownName = "Unknown"

// BuildExportRows 将日志展开为每个学员一行
func BuildExportRows(log domain.TrainingLog, jobs []domain.JobTask, trainees []domain.Trainee) []sheet.ExportRow {
	job := unknownName
	if j, ok := domain.FindJob(jobs, log.TaskID); ok {
		job = j.Title
	}
	images := parser.EncodePhotos(log.Images)

	rows := make([]sheet.ExportRow, 0, len(log.Evaluations))
	for _, ev := range log.Evaluations {
		trainee := unknownName
		for _, t := range trainees {
			if t.ID == ev.TraineeID {
				trainee = t.Name
				break
			}
		}
		rows = append(rows, sheet.ExportRow{
			Date:       log.Date,
			Weather:    log.Weather,
			Job:        job,
			Instructor: log.InstructorName,
			Trainee:    trainee,
			Score:      ev.Score,
			Note:       ev.Note,
			Summary:    log.Summary,
			Images:     images,
		})
	}
	return rows
}
