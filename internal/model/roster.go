package model

import (
	"errors"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// TraineeModel 学员数据模型
type TraineeModel struct {
	ID             string    `gorm:"primaryKey;type:varchar(255)"`
	Name           string    `gorm:"type:varchar(64);not null;index"`
	BirthDate      string    `gorm:"type:varchar(32)"`
	DisabilityType string    `gorm:"type:varchar(64)"`
	JobRole        string    `gorm:"type:text"`
	WorkLocation   string    `gorm:"type:varchar(32)"`
	ResidenceType  string    `gorm:"type:varchar(32)"`
	EmploymentType string    `gorm:"type:varchar(32)"`
	Phone          string    `gorm:"type:varchar(32)"`
	TrainingGoal   string    `gorm:"type:text"`
	TargetScore    int       `gorm:"type:int;default:3"`
	Memo           string    `gorm:"type:text"`
	Position       int       `gorm:"type:int;not null;default:0"` // 列表顺序
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName 指定表名
func (TraineeModel) TableName() string {
	return "trainees"
}

// Validate 验证学员模型
func (m *TraineeModel) Validate() error {
	if m.ID == "" {
		return errors.New("trainee ID is required")
	}
	if m.Name == "" {
		return errors.New("trainee name is required")
	}
	return nil
}

// NewTraineeModel 由领域对象创建数据模型
func NewTraineeModel(t domain.Trainee, position int) *TraineeModel {
	return &TraineeModel{
		ID:             t.ID,
		Name:           t.Name,
		BirthDate:      t.BirthDate,
		DisabilityType: t.DisabilityType,
		JobRole:        t.JobRole,
		WorkLocation:   t.WorkLocation,
		ResidenceType:  t.ResidenceType,
		EmploymentType: t.EmploymentType,
		Phone:          t.Phone,
		TrainingGoal:   t.TrainingGoal,
		TargetScore:    t.TargetScore,
		Memo:           t.Memo,
		Position:       position,
	}
}

// ToDomain 转换为领域对象
func (m *TraineeModel) ToDomain() domain.Trainee {
	return domain.Trainee{
		ID:             m.ID,
		Name:           m.Name,
		BirthDate:      m.BirthDate,
		DisabilityType: m.DisabilityType,
		JobRole:        m.JobRole,
		WorkLocation:   m.WorkLocation,
		ResidenceType:  m.ResidenceType,
		EmploymentType: m.EmploymentType,
		Phone:          m.Phone,
		TrainingGoal:   m.TrainingGoal,
		TargetScore:    m.TargetScore,
		Memo:           m.Memo,
	}
}

// JobModel 职务数据模型
type JobModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(255)"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Category    string    `gorm:"type:varchar(32)"`
	Description string    `gorm:"type:text"`
	Position    int       `gorm:"type:int;not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (JobModel) TableName() string {
	return "jobs"
}

// NewJobModel 由领域对象创建数据模型
func NewJobModel(j domain.JobTask, position int) *JobModel {
	return &JobModel{
		ID:          j.ID,
		Title:       j.Title,
		Category:    j.Category,
		Description: j.Description,
		Position:    position,
	}
}

// ToDomain 转换为领域对象
func (m *JobModel) ToDomain() domain.JobTask {
	return domain.JobTask{
		ID:          m.ID,
		Title:       m.Title,
		Category:    m.Category,
		Description: m.Description,
	}
}

// EmployeeModel 员工数据模型
type EmployeeModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(255)"`
	Name         string    `gorm:"type:varchar(64);not null;index"`
	Position     string    `gorm:"type:varchar(64)"`
	Email        string    `gorm:"type:varchar(255);not null;index"`
	Password     string    `gorm:"type:varchar(255)"`
	Phone        string    `gorm:"type:varchar(32)"`
	SignatureURL string    `gorm:"type:text"`
	SortOrder    int       `gorm:"type:int;not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (EmployeeModel) TableName() string {
	return "employees"
}

// Validate 验证员工模型
func (m *EmployeeModel) Validate() error {
	if m.ID == "" {
		return errors.New("employee ID is required")
	}
	if m.Name == "" {
		return errors.New("employee name is required")
	}
	if m.Email == "" {
		return errors.New("employee email is required")
	}
	return nil
}

// NewEmployeeModel 由领域对象创建数据模型
func NewEmployeeModel(e domain.Employee, order int) *EmployeeModel {
	return &EmployeeModel{
		ID:           e.ID,
		Name:         e.Name,
		Position:     e.Position,
		Email:        e.Email,
		Password:     e.Password,
		Phone:        e.Phone,
		SignatureURL: e.SignatureURL,
		SortOrder:    order,
	}
}

// ToDomain 转换为领域对象
func (m *EmployeeModel) ToDomain() domain.Employee {
	return domain.Employee{
		ID:           m.ID,
		Name:         m.Name,
		Position:     m.Position,
		Email:        m.Email,
		Password:     m.Password,
		Phone:        m.Phone,
		SignatureURL: m.SignatureURL,
	}
}
