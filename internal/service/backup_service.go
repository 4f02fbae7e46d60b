package service

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	backupPrefix    = "backup_"
	backupExt       = ".tar.gz"
	backupEntryName = "state.json"
)

// StateSnapshot 全量状态快照，本地备份与云端备份使用同一格式
//
// 恢复时只替换快照中存在的字段。
type StateSnapshot struct {
	Logs             *[]domain.TrainingLog              `json:"logs,omitempty"`
	Trainees         *[]domain.Trainee                  `json:"trainees,omitempty"`
	Jobs             *[]domain.JobTask                  `json:"jobs,omitempty"`
	Employees        *[]domain.Employee                 `json:"employees,omitempty"`
	FacilityName     *string                            `json:"facilityName,omitempty"`
	DriveFolderID    *string                            `json:"googleDriveFolderId,omitempty"`
	ApprovalOverlays *map[string]domain.ApprovalOverlay `json:"approvalOverlays,omitempty"`
}

// BackupService 备份服务
type BackupService struct {
	db        *gorm.DB
	backupDir string
	settings  SettingsService
	script    sheet.Script
	audit     AuditLogService
	notifier  Notifier
	logger    logrus.FieldLogger
}

// BackupInfo 备份信息
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBackupService 创建备份服务
func NewBackupService(
	db *gorm.DB,
	backupDir string,
	settings SettingsService,
	script sheet.Script,
	audit AuditLogService,
	notifier Notifier,
	logger logrus.FieldLogger,
) *BackupService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("service", "backup")

	// 确保备份目录存在
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		logger.WithError(err).WithField("dir", backupDir).Warn("backup dir unavailable, using temp dir")
		backupDir = os.TempDir()
	}

	return &BackupService{
		db:        db,
		backupDir: backupDir,
		settings:  settings,
		script:    script,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
		logger:    logger,
	}
}

// Snapshot 读取当前全部状态
func (s *BackupService) Snapshot(ctx context.Context) (*StateSnapshot, error) {
	logs, err := loadLogs(repository.NewTrainingLogRepository(s.db))
	if err != nil {
		return nil, err
	}
	trainees, err := loadTrainees(repository.NewTraineeRepository(s.db))
	if err != nil {
		return nil, err
	}
	jobs, err := loadJobs(repository.NewJobRepository(s.db))
	if err != nil {
		return nil, err
	}
	employees, err := loadEmployees(repository.NewEmployeeRepository(s.db))
	if err != nil {
		return nil, err
	}
	overlays, err := repository.NewOverlayRepository(s.db).FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load approval overlays: %w", err)
	}

	settings := s.settings.Get()
	return &StateSnapshot{
		Logs:             &logs,
		Trainees:         &trainees,
		Jobs:             &jobs,
		Employees:        &employees,
		FacilityName:     &settings.FacilityName,
		DriveFolderID:    &settings.DriveFolderID,
		ApprovalOverlays: &overlays,
	}, nil
}

// Apply 在一个事务中替换快照中存在的集合，设置项随后更新
func (s *BackupService) Apply(ctx context.Context, snap *StateSnapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if snap.Logs != nil {
			rows := make([]*model.TrainingLogModel, 0, len(*snap.Logs))
			for _, l := range *snap.Logs {
				rows = append(rows, model.NewTrainingLogModel(l))
			}
			if err := repository.NewTrainingLogRepository(tx).ReplaceAll(rows); err != nil {
				return fmt.Errorf("failed to restore logs: %w", err)
			}
		}
		if snap.Trainees != nil {
			rows := make([]*model.TraineeModel, 0, len(*snap.Trainees))
			for i, t := range *snap.Trainees {
				rows = append(rows, model.NewTraineeModel(t, i))
			}
			if err := repository.NewTraineeRepository(tx).ReplaceAll(rows); err != nil {
				return fmt.Errorf("failed to restore trainees: %w", err)
			}
		}
		if snap.Jobs != nil {
			rows := make([]*model.JobModel, 0, len(*snap.Jobs))
			for i, j := range *snap.Jobs {
				rows = append(rows, model.NewJobModel(j, i))
			}
			if err := repository.NewJobRepository(tx).ReplaceAll(rows); err != nil {
				return fmt.Errorf("failed to restore jobs: %w", err)
			}
		}
		if snap.Employees != nil {
			rows := make([]*model.EmployeeModel, 0, len(*snap.Employees))
			for i, e := range *snap.Employees {
				rows = append(rows, model.NewEmployeeModel(e, i))
			}
			if err := repository.NewEmployeeRepository(tx).ReplaceAll(rows); err != nil {
				return fmt.Errorf("failed to restore employees: %w", err)
			}
		}
		if snap.ApprovalOverlays != nil {
			if err := repository.NewOverlayRepository(tx).ReplaceAll(*snap.ApprovalOverlays); err != nil {
				return fmt.Errorf("failed to restore approval overlays: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if snap.FacilityName != nil || snap.DriveFolderID != nil {
		if _, err := s.settings.Update(ctx, &UpdateSettingsRequest{
			FacilityName:  snap.FacilityName,
			DriveFolderID: snap.DriveFolderID,
		}); err != nil {
			return fmt.Errorf("failed to restore settings: %w", err)
		}
	}

	s.notifier.Notify(EventStateRestored, nil)
	return nil
}

// CloudSave 将全量状态保存到远程脚本
func (s *BackupService) CloudSave(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.script.SaveBackup(ctx, data); err != nil {
		return err
	}
	recordAudit(ctx, s.audit, "cloud_save", ResourceBackup, "cloud", map[string]int{"bytes": len(data)})
	return nil
}

// CloudLoad 从远程脚本读取全量状态并恢复
func (s *BackupService) CloudLoad(ctx context.Context) error {
	data, err := s.script.LoadBackup(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNoBackup
	}
	var snap StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode cloud backup: %w", err)
	}
	if err := s.Apply(ctx, &snap); err != nil {
		return err
	}
	recordAudit(ctx, s.audit, "cloud_load", ResourceBackup, "cloud", nil)
	return nil
}

// CreateBackup 创建本地备份，返回文件名
func (s *BackupService) CreateBackup(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	filename := fmt.Sprintf("%s%s%s", backupPrefix, time.Now().Format("20060102_150405.000"), backupExt)
	if err := writeArchive(filepath.Join(s.backupDir, filename), data); err != nil {
		return "", err
	}

	s.logger.WithField("filename", filename).Info("backup created")
	recordAudit(ctx, s.audit, "create", ResourceBackup, filename, map[string]int{"bytes": len(data)})
	return filename, nil
}

// writeArchive 写入只含 state.json 的 tar.gz
func writeArchive(path string, data []byte) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	gzWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzWriter)
	header := &tar.Header{
		Name:    backupEntryName,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := tarWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to close tar: %w", err)
	}
	return gzWriter.Close()
}

// RestoreBackup 从本地备份恢复
func (s *BackupService) RestoreBackup(ctx context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}

	data, err := readArchive(path)
	if err != nil {
		return err
	}
	var snap StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := s.Apply(ctx, &snap); err != nil {
		return err
	}

	s.logger.WithField("filename", filename).Info("backup restored")
	recordAudit(ctx, s.audit, "restore", ResourceBackup, filename, nil)
	return nil
}

func readArchive(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%s missing from backup", backupEntryName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}
		if header.Name == backupEntryName {
			return io.ReadAll(tarReader)
		}
	}
}

// ListBackups 列出本地备份，新的在前
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Filename > backups[j].Filename
	})
	return backups, nil
}

// BackupDir 获取备份目录
func (s *BackupService) BackupDir() string {
	return s.backupDir
}

// DeleteBackup 删除本地备份
func (s *BackupService) DeleteBackup(ctx context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	recordAudit(ctx, s.audit, "delete", ResourceBackup, filename, nil)
	return nil
}

// resolve 校验文件名并返回备份目录内的路径
func (s *BackupService) resolve(filename string) (string, error) {
	if filename != filepath.Base(filename) || !isBackupFile(filename) {
		return "", fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
	}
	path := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
		}
		return "", err
	}
	return path, nil
}

// isBackupFile 检查是否是备份文件
func isBackupFile(filename string) bool {
	return strings.HasPrefix(filename, backupPrefix) && strings.HasSuffix(filename, backupExt)
}
