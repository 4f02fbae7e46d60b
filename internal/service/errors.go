package service

import (
	"errors"

	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
)

var (
	// ErrLogNotFound 日志不存在
	ErrLogNotFound = errors.New("training log not found")
	// ErrLogExists 同一日期、职务、负责人的日志已存在
	ErrLogExists = errors.New("training log already exists")
	// ErrTraineeNotFound 学员不存在
	ErrTraineeNotFound = errors.New("trainee not found")
	// ErrJobNotFound 职务不存在
	ErrJobNotFound = errors.New("job not found")
	// ErrEmployeeNotFound 员工不存在
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrInvalidCredentials 登录失败，不区分邮箱与密码
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateEvaluation 同一学员在一条日志中出现多次
	ErrDuplicateEvaluation = errors.New("duplicate evaluation for trainee")
	// ErrUnauthenticated 缺少操作者
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoBackup 远程没有可恢复的备份
	ErrNoBackup = errors.New("no backup found")
	// ErrBackupNotFound 本地备份文件不存在
	ErrBackupNotFound = errors.New("backup file not found")
	// ErrNotActionable 当前角色不能处理该日志
	ErrNotActionable = statemachine.ErrNotActionable
)
