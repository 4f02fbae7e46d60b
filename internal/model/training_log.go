package model

import (
	"errors"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"gorm.io/datatypes"
)

// TrainingLogModel 训练日志数据模型
type TrainingLogModel struct {
	ID             string                                  `gorm:"primaryKey;type:varchar(255)"`
	Date           string                                  `gorm:"type:varchar(32);not null;index"`
	TaskID         string                                  `gorm:"type:varchar(255);not null;index"`
	Weather        string                                  `gorm:"type:varchar(32)"`
	InstructorName string                                  `gorm:"type:varchar(64);not null;index"`
	Summary        string                                  `gorm:"type:text"`
	Images         datatypes.JSONSlice[string]             `gorm:"type:text"`
	Evaluations    datatypes.JSONSlice[domain.Evaluation]  `gorm:"type:text"`
	Approvals      datatypes.JSONType[domain.ApprovalChain] `gorm:"type:text"`
	Status         string                                  `gorm:"type:varchar(32);not null;index"` // in-progress/approved/rejected
	CreatedAt      time.Time                               `gorm:"not null;index"`
	UpdatedAt      time.Time                               `gorm:"not null"`
}

// TableName 指定表名
func (TrainingLogModel) TableName() string {
	return "training_logs"
}

// Validate 验证训练日志模型
func (m *TrainingLogModel) Validate() error {
	if m.ID == "" {
		return errors.New("log ID is required")
	}
	if m.Date == "" {
		return errors.New("log date is required")
	}
	if m.TaskID == "" {
		return errors.New("task ID is required")
	}
	return nil
}

// NewTrainingLogModel 由领域对象创建数据模型
func NewTrainingLogModel(log domain.TrainingLog) *TrainingLogModel {
	return &TrainingLogModel{
		ID:             log.ID,
		Date:           log.Date,
		TaskID:         log.TaskID,
		Weather:        log.Weather,
		InstructorName: log.InstructorName,
		Summary:        log.Summary,
		Images:         datatypes.JSONSlice[string](log.Images),
		Evaluations:    datatypes.JSONSlice[domain.Evaluation](log.Evaluations),
		Approvals:      datatypes.NewJSONType(log.Approvals),
		Status:         string(log.Status()),
	}
}

// ToDomain 转换为领域对象
func (m *TrainingLogModel) ToDomain() domain.TrainingLog {
	return domain.TrainingLog{
		ID:             m.ID,
		Date:           m.Date,
		TaskID:         m.TaskID,
		Weather:        m.Weather,
		InstructorName: m.InstructorName,
		Summary:        m.Summary,
		Images:         []string(m.Images),
		Evaluations:    []domain.Evaluation(m.Evaluations),
		Approvals:      m.Approvals.Data(),
	}
}
