package repository

import (
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrainingLogRepository 训练日志仓储接口
type TrainingLogRepository interface {
	Save(log *model.TrainingLogModel) error
	FindByID(id string) (*model.TrainingLogModel, error)
	FindAll() ([]*model.TrainingLogModel, error)
	FindByFilter(filter *LogFilter) ([]*model.TrainingLogModel, error)
	Delete(id string) error
	ReplaceAll(logs []*model.TrainingLogModel) error
	Count() (int64, error)
}

// LogFilter 训练日志查询过滤器
type LogFilter struct {
	Date       *string
	StartDate  *string
	EndDate    *string
	TaskID     *string
	Instructor *string
	Status     *string
}

// trainingLogRepository 训练日志仓储实现
type trainingLogRepository struct {
	db *gorm.DB
}

// NewTrainingLogRepository 创建训练日志仓储
func NewTrainingLogRepository(db *gorm.DB) TrainingLogRepository {
	return &trainingLogRepository{db: db}
}

// Save 保存训练日志，同 ID 覆盖
func (r *trainingLogRepository) Save(log *model.TrainingLogModel) error {
	if err := log.Validate(); err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date",
			"task_id",
			"weather",
			"instructor_name",
			"summary",
			"images",
			"evaluations",
			"approvals",
			"status",
			"updated_at",
		}),
	}).Create(log).Error
}

// FindByID 根据 ID 查找训练日志
func (r *trainingLogRepository) FindByID(id string) (*model.TrainingLogModel, error) {
	var log model.TrainingLogModel
	if err := r.db.Where("id = ?", id).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// FindAll 查找所有训练日志，按日期倒序
func (r *trainingLogRepository) FindAll() ([]*model.TrainingLogModel, error) {
	return r.FindByFilter(nil)
}

// FindByFilter 根据过滤器查找训练日志
func (r *trainingLogRepository) FindByFilter(filter *LogFilter) ([]*model.TrainingLogModel, error) {
	var logs []*model.TrainingLogModel
	query := r.db.Model(&model.TrainingLogModel{})

	if filter != nil {
		if filter.Date != nil {
			query = query.Where("date = ?", *filter.Date)
		}
		if filter.StartDate != nil {
			query = query.Where("date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("date <= ?", *filter.EndDate)
		}
		if filter.TaskID != nil {
			query = query.Where("task_id = ?", *filter.TaskID)
		}
		if filter.Instructor != nil {
			query = query.Where("instructor_name = ?", *filter.Instructor)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
	}

	err := query.Order("date DESC").Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// Delete 删除训练日志
func (r *trainingLogRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.TrainingLogModel{}).Error
}

// ReplaceAll 用给定集合整体替换训练日志（恢复备份时使用）
func (r *trainingLogRepository) ReplaceAll(logs []*model.TrainingLogModel) error {
	return replaceAll(r.db, &model.TrainingLogModel{}, logs)
}

// Count 统计训练日志数量
func (r *trainingLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.TrainingLogModel{}).Count(&count).Error
	return count, err
}

// replaceAll 在事务中清空表并批量写入
func replaceAll[T any](db *gorm.DB, table interface{}, rows []*T) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
}
