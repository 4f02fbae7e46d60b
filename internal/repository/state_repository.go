package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingRepository 设置仓储接口
type SettingRepository interface {
	// Get 读取设置项到 dest，设置项不存在时返回 false
	Get(key string, dest interface{}) (bool, error)
	Set(key string, value interface{}) error
	Delete(key string) error
}

// settingRepository 设置仓储实现
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓储
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get 读取设置项
func (r *settingRepository) Get(key string, dest interface{}) (bool, error) {
	var setting model.SettingModel
	err := r.db.Where(&model.SettingModel{Key: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(setting.Value, dest); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// Set 写入设置项
func (r *settingRepository) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return r.db.Save(&model.SettingModel{
		Key:       key,
		Value:     datatypes.JSON(data),
		UpdatedAt: time.Now(),
	}).Error
}

// Delete 删除设置项
func (r *settingRepository) Delete(key string) error {
	return r.db.Delete(&model.SettingModel{Key: key}).Error
}

// OverlayRepository 审批覆盖层仓储接口
type OverlayRepository interface {
	FindAll() (map[string]domain.ApprovalOverlay, error)
	FindByLogID(logID string) (*domain.ApprovalOverlay, error)
	Save(logID string, overlay domain.ApprovalOverlay) error
	ReplaceAll(overlays map[string]domain.ApprovalOverlay) error
}

// overlayRepository 审批覆盖层仓储实现
type overlayRepository struct {
	db *gorm.DB
}

// NewOverlayRepository 创建审批覆盖层仓储
func NewOverlayRepository(db *gorm.DB) OverlayRepository {
	return &overlayRepository{db: db}
}

// FindAll 查找全部覆盖层
func (r *overlayRepository) FindAll() (map[string]domain.ApprovalOverlay, error) {
	var rows []*model.ApprovalOverlayModel
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	overlays := make(map[string]domain.ApprovalOverlay, len(rows))
	for _, row := range rows {
		overlays[row.LogID] = row.Overlay.Data()
	}
	return overlays, nil
}

// FindByLogID 查找单条日志的覆盖层，不存在时返回 nil
func (r *overlayRepository) FindByLogID(logID string) (*domain.ApprovalOverlay, error) {
	var row model.ApprovalOverlayModel
	err := r.db.Where("log_id = ?", logID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	overlay := row.Overlay.Data()
	return &overlay, nil
}

// Save 保存单条日志的覆盖层
func (r *overlayRepository) Save(logID string, overlay domain.ApprovalOverlay) error {
	return r.db.Save(&model.ApprovalOverlayModel{
		LogID:     logID,
		Overlay:   datatypes.NewJSONType(overlay),
		UpdatedAt: time.Now(),
	}).Error
}

// ReplaceAll 整体替换覆盖层
func (r *overlayRepository) ReplaceAll(overlays map[string]domain.ApprovalOverlay) error {
	now := time.Now()
	rows := make([]*model.ApprovalOverlayModel, 0, len(overlays))
	for logID, overlay := range overlays {
		rows = append(rows, &model.ApprovalOverlayModel{
			LogID:     logID,
			Overlay:   datatypes.NewJSONType(overlay),
			UpdatedAt: now,
		})
	}
	return replaceAll(r.db, &model.ApprovalOverlayModel{}, rows)
}
