package model

import (
	"errors"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"gorm.io/datatypes"
)

// 设置项名称
const (
	SettingFacilityName  = "facility_name"
	SettingDriveFolderID = "drive_folder_id"
	SettingScriptURL     = "script_url"
	SettingAutoSync      = "auto_sync"
)

// SettingModel 设置数据模型，每个设置项一行
type SettingModel struct {
	Key       string         `gorm:"primaryKey;type:varchar(64)"`
	Value     datatypes.JSON `gorm:"type:text"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName 指定表名
func (SettingModel) TableName() string {
	return "settings"
}

// ApprovalOverlayModel 审批覆盖层数据模型
type ApprovalOverlayModel struct {
	LogID     string                                   `gorm:"primaryKey;type:varchar(255)"`
	Overlay   datatypes.JSONType[domain.ApprovalOverlay] `gorm:"type:text"`
	UpdatedAt time.Time                                `gorm:"not null;index"`
}

// TableName 指定表名
func (ApprovalOverlayModel) TableName() string {
	return "approval_overlays"
}

// 同步记录状态
const (
	OutboxPending = "pending"
	OutboxSuccess = "success"
	OutboxFailed  = "failed"
)

// OutboxModel 待同步操作数据模型
type OutboxModel struct {
	ID         string         `gorm:"primaryKey;type:varchar(64)"`
	Action     string         `gorm:"type:varchar(64);not null;index"`
	LogID      string         `gorm:"type:varchar(255);index"`
	Payload    datatypes.JSON `gorm:"type:text;not null"`
	Status     string         `gorm:"type:varchar(32);not null;default:'pending';index"` // pending/success/failed
	RetryCount int            `gorm:"type:int;default:0"`
	LastError  string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"not null;index"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// TableName 指定表名
func (OutboxModel) TableName() string {
	return "outbox"
}

// Validate 验证同步记录模型
func (m *OutboxModel) Validate() error {
	if m.ID == "" {
		return errors.New("outbox ID is required")
	}
	if m.Action == "" {
		return errors.New("outbox action is required")
	}
	if len(m.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	if m.Status == "" {
		m.Status = OutboxPending
	}
	return nil
}

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)"`
	UserID       string         `gorm:"type:varchar(255);not null;index"`
	Action       string         `gorm:"type:varchar(64);not null;index"` // create/update/approve/reject/restore
	ResourceType string         `gorm:"type:varchar(32);not null"`       // log/trainee/job/employee/settings/backup
	ResourceID   string         `gorm:"type:varchar(255);not null;index"`
	RequestID    string         `gorm:"type:varchar(64);index"`
	IP           string         `gorm:"type:varchar(45)"` // IPv4 或 IPv6
	UserAgent    string         `gorm:"type:text"`
	Details      datatypes.JSON `gorm:"type:text"` // 操作详情
	CreatedAt    time.Time      `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (m *AuditLogModel) Validate() error {
	if m.ID == "" {
		return errors.New("audit log ID is required")
	}
	if m.UserID == "" {
		return errors.New("user ID is required")
	}
	if m.Action == "" {
		return errors.New("action is required")
	}
	if m.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if m.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
