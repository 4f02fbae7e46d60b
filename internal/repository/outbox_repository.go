package repository

import (
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/model"
	"gorm.io/gorm"
)

// OutboxRepository 待同步操作仓储接口
type OutboxRepository interface {
	Save(entry *model.OutboxModel) error
	FindByID(id string) (*model.OutboxModel, error)
	FindByLogID(logID string) ([]*model.OutboxModel, error)
	FindPending() ([]*model.OutboxModel, error)
	FindByStatus(status string, limit int) ([]*model.OutboxModel, error)
	UpdateStatus(id, status string, retryCount int, lastError string) error
	CountByStatus() (map[string]int64, error)
}

// outboxRepository 待同步操作仓储实现
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建待同步操作仓储
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Save 保存待同步操作
func (r *outboxRepository) Save(entry *model.OutboxModel) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	return r.db.Save(entry).Error
}

// FindByID 根据 ID 查找待同步操作
func (r *outboxRepository) FindByID(id string) (*model.OutboxModel, error) {
	var entry model.OutboxModel
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByLogID 根据日志 ID 查找待同步操作，按创建时间顺序
func (r *outboxRepository) FindByLogID(logID string) ([]*model.OutboxModel, error) {
	var entries []*model.OutboxModel
	err := r.db.Where("log_id = ?", logID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// FindPending 查找待处理的操作
func (r *outboxRepository) FindPending() ([]*model.OutboxModel, error) {
	return r.FindByStatus(model.OutboxPending, 0)
}

// FindByStatus 按状态查找操作，limit 为 0 时不限制数量
func (r *outboxRepository) FindByStatus(status string, limit int) ([]*model.OutboxModel, error) {
	var entries []*model.OutboxModel
	query := r.db.Where("status = ?", status).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

// UpdateStatus 更新操作状态
func (r *outboxRepository) UpdateStatus(id, status string, retryCount int, lastError string) error {
	return r.db.Model(&model.OutboxModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": retryCount,
			"last_error":  lastError,
			"updated_at":  time.Now(),
		}).Error
}

// CountByStatus 按状态统计操作数量
func (r *outboxRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&model.OutboxModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
