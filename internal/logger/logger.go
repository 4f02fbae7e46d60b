package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName 日志中的服务名
const ServiceName = "training-log"

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	defaultLogger *logrus.Logger
	once          sync.Once
)

func jsonFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "time",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	}
}

// New 创建默认日志记录器
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(jsonFormatter())
	l.SetLevel(logrus.InfoLevel)
	l.SetOutput(os.Stdout)
	l.AddHook(newDefaultFieldsHook())
	return l
}

// NewFromConfig 根据配置创建日志记录器
func NewFromConfig(cfg *config.LogConfig) (*logrus.Logger, error) {
	l := logrus.New()

	// 设置日志格式
	if cfg.Format == "json" {
		l.SetFormatter(jsonFormatter())
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	// 设置日志输出
	var writers []io.Writer
	if cfg.Output == "stdout" || cfg.Output == "both" {
		writers = append(writers, os.Stdout)
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		file := cfg.File
		if file == "" {
			file = filepath.Join("logs", ServiceName+".log")
		}
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	l.SetOutput(io.MultiWriter(writers...))

	// 添加默认字段（用于日志聚合）
	l.AddHook(newDefaultFieldsHook())

	return l, nil
}

// defaultFieldsHook 添加默认字段的 Hook
type defaultFieldsHook struct {
	fields logrus.Fields
}

func newDefaultFieldsHook() *defaultFieldsHook {
	return &defaultFieldsHook{fields: logrus.Fields{"service": ServiceName}}
}

func (h *defaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *defaultFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		entry.Data[k] = v
	}
	return nil
}

// Get 获取默认日志记录器
func Get() *logrus.Logger {
	once.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New()
		}
	})
	return defaultLogger
}

// Set 替换默认日志记录器，服务启动时调用
func Set(l *logrus.Logger) {
	once.Do(func() {})
	defaultLogger = l
}

// SetLevel 设置默认日志记录器级别，配置热更新时调用
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	Get().SetLevel(parsed)
}
