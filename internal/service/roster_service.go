package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/utils"
	"gorm.io/gorm"
)

// RosterService 学员、职务、员工名册服务接口
type RosterService interface {
	ListTrainees(ctx context.Context) ([]domain.Trainee, error)
	CreateTrainee(ctx context.Context, req *TraineeRequest) (*domain.Trainee, error)
	UpdateTrainee(ctx context.Context, id string, req *TraineeRequest) (*domain.Trainee, error)
	DeleteTrainee(ctx context.Context, id string) error

	ListJobs(ctx context.Context) ([]domain.JobTask, error)
	CreateJob(ctx context.Context, req *JobRequest) (*domain.JobTask, error)

	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, req *EmployeeRequest) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, req *EmployeeRequest) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// TraineeRequest 学员创建/更新请求
type TraineeRequest struct {
	Name           string `json:"name" binding:"required" validate:"required,max=64"`
	BirthDate      string `json:"birthDate"`
	DisabilityType string `json:"disabilityType"`
	JobRole        string `json:"jobRole"`
	WorkLocation   string `json:"workLocation"`
	ResidenceType  string `json:"residenceType"`
	EmploymentType string `json:"employmentType"`
	Phone          string `json:"phone"`
	TrainingGoal   string `json:"trainingGoal"`
	TargetScore    int    `json:"targetScore" validate:"omitempty,min=1,max=5"`
	Memo           string `json:"memo"`
}

func (r *TraineeRequest) toDomain(id string) domain.Trainee {
	t := domain.Trainee{
		ID:             id,
		Name:           strings.TrimSpace(r.Name),
		BirthDate:      r.BirthDate,
		DisabilityType: r.DisabilityType,
		JobRole:        r.JobRole,
		WorkLocation:   r.WorkLocation,
		ResidenceType:  r.ResidenceType,
		EmploymentType: r.EmploymentType,
		Phone:          r.Phone,
		TrainingGoal:   r.TrainingGoal,
		TargetScore:    r.TargetScore,
		Memo:           r.Memo,
	}
	if t.TargetScore == 0 {
		t.TargetScore = domain.DefaultScore
	}
	if t.DisabilityType == "" {
		t.DisabilityType = domain.DefaultDisabilityType
	}
	if t.WorkLocation == "" {
		t.WorkLocation = domain.DefaultWorkLocation
	}
	return t
}

// JobRequest 职务创建请求
type JobRequest struct {
	Title       string `json:"title" binding:"required" validate:"required,max=255"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// EmployeeRequest 员工创建/更新请求，更新时密码为空表示不修改
type EmployeeRequest struct {
	Name         string `json:"name" binding:"required" validate:"required,max=64"`
	Position     string `json:"position"`
	Email        string `json:"email" binding:"required" validate:"required,email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	SignatureURL string `json:"signatureUrl"`
}

type rosterService struct {
	trainees  repository.TraineeRepository
	jobs      repository.JobRepository
	employees repository.EmployeeRepository
	views     ViewService
	audit     AuditLogService
	notifier  Notifier
}

// NewRosterService 创建名册服务
func NewRosterService(
	trainees repository.TraineeRepository,
	jobs repository.JobRepository,
	employees repository.EmployeeRepository,
	views ViewService,
	audit AuditLogService,
	notifier Notifier,
) RosterService {
	return &rosterService{
		trainees:  trainees,
		jobs:      jobs,
		employees: employees,
		views:     views,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
	}
}

// ListTrainees 返回展示视图中的学员
func (s *rosterService) ListTrainees(ctx context.Context) ([]domain.Trainee, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}
	return view.Trainees, nil
}

// CreateTrainee 追加学员到名册末尾
func (s *rosterService) CreateTrainee(ctx context.Context, req *TraineeRequest) (*domain.Trainee, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	position, err := s.trainees.NextPosition()
	if err != nil {
		return nil, fmt.Errorf("failed to get trainee position: %w", err)
	}

	t := req.toDomain(uuid.New().String())
	if err := s.trainees.Save(model.NewTraineeModel(t, position)); err != nil {
		return nil, fmt.Errorf("failed to save trainee: %w", err)
	}
	s.changed(ctx, "create", ResourceTrainee, t.ID)
	return &t, nil
}

// UpdateTrainee 更新学员，保持原有顺序
func (s *rosterService) UpdateTrainee(ctx context.Context, id string, req *TraineeRequest) (*domain.Trainee, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.trainees.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrTraineeNotFound, id)
	}

	t := req.toDomain(id)
	m := model.NewTraineeModel(t, existing.Position)
	m.CreatedAt = existing.CreatedAt
	if err := s.trainees.Save(m); err != nil {
		return nil, fmt.Errorf("failed to save trainee: %w", err)
	}
	s.changed(ctx, "update", ResourceTrainee, id)
	return &t, nil
}

// DeleteTrainee 删除学员，已有日志中的评价保留
func (s *rosterService) DeleteTrainee(ctx context.Context, id string) error {
	if _, err := s.trainees.FindByID(id); err != nil {
		return notFound(err, ErrTraineeNotFound, id)
	}
	if err := s.trainees.Delete(id); err != nil {
		return fmt.Errorf("failed to delete trainee: %w", err)
	}
	s.changed(ctx, "delete", ResourceTrainee, id)
	return nil
}

// ListJobs 返回展示视图中的职务
func (s *rosterService) ListJobs(ctx context.Context) ([]domain.JobTask, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}
	return view.Jobs, nil
}

// CreateJob 创建本地职务，ID 由职务名派生
func (s *rosterService) CreateJob(ctx context.Context, req *JobRequest) (*domain.JobTask, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	position, err := s.jobs.NextPosition()
	if err != nil {
		return nil, fmt.Errorf("failed to get job position: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	job := domain.JobTask{
		ID:          domain.JobID(title),
		Title:       title,
		Category:    req.Category,
		Description: req.Description,
	}
	if job.Category == "" {
		job.Category = domain.JobCategoryOther
	}
	if err := s.jobs.Save(model.NewJobModel(job, position)); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	s.changed(ctx, "create", ResourceJob, job.ID)
	return &job, nil
}

// ListEmployees 返回员工名册，不含密码
func (s *rosterService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	employees, err := loadEmployees(s.employees)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		employees[i] = employees[i].Public()
	}
	return employees, nil
}

// CreateEmployee 创建员工，密码以 bcrypt 保存
func (s *rosterService) CreateEmployee(ctx context.Context, req *EmployeeRequest) (*domain.Employee, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	position, err := s.employees.NextPosition()
	if err != nil {
		return nil, fmt.Errorf("failed to get employee position: %w", err)
	}

	password := req.Password
	if password == "" {
		password = domain.DefaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	emp := employeeFromRequest(uuid.New().String(), req)
	emp.Password = hash
	if err := s.employees.Save(model.NewEmployeeModel(emp, position)); err != nil {
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}
	s.changed(ctx, "create", ResourceEmployee, emp.ID)
	public := emp.Public()
	return &public, nil
}

// UpdateEmployee 更新员工信息
func (s *rosterService) UpdateEmployee(ctx context.Context, id string, req *EmployeeRequest) (*domain.Employee, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	existing, err := s.employees.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrEmployeeNotFound, id)
	}

	emp := employeeFromRequest(id, req)
	emp.Password = existing.Password
	if req.Password != "" {
		if emp.Password, err = auth.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	m := model.NewEmployeeModel(emp, existing.SortOrder)
	m.CreatedAt = existing.CreatedAt
	if err := s.employees.Save(m); err != nil {
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}
	s.changed(ctx, "update", ResourceEmployee, id)
	public := emp.Public()
	return &public, nil
}

// DeleteEmployee 删除员工
func (s *rosterService) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := s.employees.FindByID(id); err != nil {
		return notFound(err, ErrEmployeeNotFound, id)
	}
	if err := s.employees.Delete(id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	s.changed(ctx, "delete", ResourceEmployee, id)
	return nil
}

func (s *rosterService) changed(ctx context.Context, action, resourceType, id string) {
	recordAudit(ctx, s.audit, action, resourceType, id, nil)
	s.notifier.Notify(EventRosterChanged, map[string]string{"type": resourceType, "id": id, "action": action})
}

func employeeFromRequest(id string, req *EmployeeRequest) domain.Employee {
	position := strings.TrimSpace(req.Position)
	if position == "" {
		position = domain.DefaultPosition
	}
	return domain.Employee{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Position:     position,
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		SignatureURL: domain.NormalizeImageURL(req.SignatureURL),
	}
}

// notFound 将记录不存在转换为服务层错误
func notFound(err, sentinel error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
