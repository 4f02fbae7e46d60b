package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BackupScheduler 本地备份调度器
type BackupScheduler struct {
	backupService *BackupService
	config        *BackupScheduleConfig
	logger        logrus.FieldLogger
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// BackupScheduleConfig 备份计划配置
type BackupScheduleConfig struct {
	Interval      time.Duration // 备份间隔，0 表示不启用
	RetentionDays int           // 保留天数
}

// NewBackupScheduler 创建备份调度器
func NewBackupScheduler(backupService *BackupService, config *BackupScheduleConfig, logger logrus.FieldLogger) *BackupScheduler {
	if config == nil {
		config = &BackupScheduleConfig{
			Interval:      24 * time.Hour,
			RetentionDays: 30,
		}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &BackupScheduler{
		backupService: backupService,
		config:        config,
		logger:        logger.WithField("component", "backup_scheduler"),
		stopChan:      make(chan struct{}),
	}
}

// Start 启动备份调度器
func (s *BackupScheduler) Start(ctx context.Context) {
	if s.config.Interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop 停止备份调度器并等待当前备份完成
func (s *BackupScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// Config 获取备份配置
func (s *BackupScheduler) Config() *BackupScheduleConfig {
	return s.config
}

func (s *BackupScheduler) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce 执行一次备份与清理
func (s *BackupScheduler) RunOnce(ctx context.Context) {
	filename, err := s.backupService.CreateBackup(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduled backup failed")
		return
	}
	s.logger.WithField("filename", filename).Info("scheduled backup created")
	s.CleanupOldBackups(ctx)
}

// CleanupOldBackups 删除超过保留期的备份
func (s *BackupScheduler) CleanupOldBackups(ctx context.Context) int {
	if s.config.RetentionDays <= 0 {
		return 0
	}
	backups, err := s.backupService.ListBackups(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list backups")
		return 0
	}

	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	now := time.Now()
	deleted := 0
	for _, backup := range backups {
		if now.Sub(backup.CreatedAt) <= retention {
			continue
		}
		if err := s.backupService.DeleteBackup(ctx, backup.Filename); err != nil {
			s.logger.WithError(err).WithField("filename", backup.Filename).Warn("failed to delete old backup")
			continue
		}
		deleted++
		s.logger.WithField("filename", backup.Filename).Info("old backup deleted")
	}
	return deleted
}
