package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
)

// SettingsService 机构设置服务
type SettingsService interface {
	Get() domain.Settings
	Update(ctx context.Context, req *UpdateSettingsRequest) (domain.Settings, error)
	// ScriptURL 当前脚本地址，供脚本客户端按需读取
	ScriptURL() string
}

// UpdateSettingsRequest 更新设置请求，nil 字段保持不变
type UpdateSettingsRequest struct {
	FacilityName  *string `json:"facilityName"`
	DriveFolderID *string `json:"googleDriveFolderId"`
	ScriptURL     *string `json:"scriptUrl"`
	AutoSync      *bool   `json:"autoSync"`
}

type settingsService struct {
	repo     repository.SettingRepository
	audit    AuditLogService
	notifier Notifier

	mu      sync.RWMutex
	current domain.Settings
}

// NewSettingsService 创建设置服务，未保存的设置项取配置默认值
func NewSettingsService(cfg *config.Config, repo repository.SettingRepository, audit AuditLogService, notifier Notifier) (SettingsService, error) {
	s := &settingsService{
		repo:     repo,
		audit:    audit,
		notifier: notifierOrNoop(notifier),
		current: domain.Settings{
			FacilityName:  cfg.Facility.Name,
			DriveFolderID: cfg.Sheet.DriveFolderID,
			ScriptURL:     cfg.Sheet.ScriptURL,
			AutoSync:      cfg.Sheet.AutoSync,
		},
	}
	if s.current.FacilityName == "" {
		s.current.FacilityName = domain.DefaultFacilityName
	}

	// 读取已保存的设置
	slots := []struct {
		key  string
		dest interface{}
	}{
		{model.SettingFacilityName, &s.current.FacilityName},
		{model.SettingDriveFolderID, &s.current.DriveFolderID},
		{model.SettingScriptURL, &s.current.ScriptURL},
		{model.SettingAutoSync, &s.current.AutoSync},
	}
	for _, slot := range slots {
		if _, err := repo.Get(slot.key, slot.dest); err != nil {
			return nil, fmt.Errorf("failed to load setting %s: %w", slot.key, err)
		}
	}
	return s, nil
}

// Get 返回当前设置
func (s *settingsService) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ScriptURL 返回当前脚本地址
func (s *settingsService) ScriptURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ScriptURL
}

// Update 更新设置，每个设置项单独保存
func (s *settingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (domain.Settings, error) {
	s.mu.Lock()
	next := s.current
	changed := map[string]interface{}{}

	if req.FacilityName != nil {
		next.FacilityName = strings.TrimSpace(*req.FacilityName)
		if next.FacilityName == "" {
			next.FacilityName = domain.DefaultFacilityName
		}
		changed[model.SettingFacilityName] = next.FacilityName
	}
	if req.DriveFolderID != nil {
		next.DriveFolderID = strings.TrimSpace(*req.DriveFolderID)
		changed[model.SettingDriveFolderID] = next.DriveFolderID
	}
	if req.ScriptURL != nil {
		next.ScriptURL = strings.TrimSpace(*req.ScriptURL)
		changed[model.SettingScriptURL] = next.ScriptURL
	}
	if req.AutoSync != nil {
		next.AutoSync = *req.AutoSync
		changed[model.SettingAutoSync] = next.AutoSync
	}

	for key, value := range changed {
		if err := s.repo.Set(key, value); err != nil {
			s.mu.Unlock()
			return domain.Settings{}, fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}
	s.current = next
	s.mu.Unlock()

	if len(changed) > 0 {
		recordAudit(ctx, s.audit, "update", ResourceSettings, "settings", changed)
		s.notifier.Notify(EventSettingsChanged, next)
	}
	return next, nil
}
