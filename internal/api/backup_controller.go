package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// BackupController 备份控制器
type BackupController struct {
	backupService *service.BackupService
}

// NewBackupController 创建备份控制器
func NewBackupController(backupService *service.BackupService) *BackupController {
	return &BackupController{
		backupService: backupService,
	}
}

// CreateBackup 创建本地备份
// @Router /backups [post]
func (c *BackupController) CreateBackup(ctx *gin.Context) {
	filename, err := c.backupService.CreateBackup(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "create backup")
		return
	}

	// 返回刚创建的备份信息
	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "list backups")
		return
	}
	for _, b := range backups {
		if b.Filename == filename {
			Created(ctx, b)
			return
		}
	}
	Created(ctx, service.BackupInfo{Filename: filename})
}

// ListBackups 列出所有本地备份
// @Router /backups [get]
func (c *BackupController) ListBackups(ctx *gin.Context) {
	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "list backups")
		return
	}

	Success(ctx, backups)
}

// RestoreBackup 从本地备份恢复
// @Router /backups/{filename}/restore [post]
func (c *BackupController) RestoreBackup(ctx *gin.Context) {
	if err := c.backupService.RestoreBackup(ctx.Request.Context(), ctx.Param("filename")); err != nil {
		HandleError(ctx, err, "restore backup")
		return
	}

	Success(ctx, nil)
}

// DeleteBackup 删除本地备份
// @Router /backups/{filename} [delete]
func (c *BackupController) DeleteBackup(ctx *gin.Context) {
	if err := c.backupService.DeleteBackup(ctx.Request.Context(), ctx.Param("filename")); err != nil {
		HandleError(ctx, err, "delete backup")
		return
	}

	Success(ctx, nil)
}

// CloudSave 将全量状态保存到远程
// @Router /backups/cloud [post]
func (c *BackupController) CloudSave(ctx *gin.Context) {
	if err := c.backupService.CloudSave(ctx.Request.Context()); err != nil {
		HandleError(ctx, err, "save cloud backup")
		return
	}

	Success(ctx, nil)
}

// CloudRestore 从远程备份恢复全量状态
// @Router /backups/cloud/restore [post]
func (c *BackupController) CloudRestore(ctx *gin.Context) {
	if err := c.backupService.CloudLoad(ctx.Request.Context()); err != nil {
		HandleError(ctx, err, "restore cloud backup")
		return
	}

	Success(ctx, nil)
}
