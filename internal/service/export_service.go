package service

import (
	"context"
	"io"

	"github.com/jswork01-cmyk/trainning1/internal/export"
)

// ExportService xlsx 导出服务
type ExportService interface {
	// WriteLogs 将符合条件的日志按评价展开写入工作簿
	WriteLogs(ctx context.Context, w io.Writer, filter LogListFilter) error
}

type exportService struct {
	logs  LogService
	views ViewService
}

// NewExportService 创建导出服务
func NewExportService(logs LogService, views ViewService) ExportService {
	return &exportService{logs: logs, views: views}
}

// WriteLogs 导出日志
func (s *exportService) WriteLogs(ctx context.Context, w io.Writer, filter LogListFilter) error {
	logs, err := s.logs.List(ctx, filter)
	if err != nil {
		return err
	}
	view, err := s.views.Build(ctx)
	if err != nil {
		return err
	}

	var rows []export.Row
	for _, log := range logs {
		status := string(log.Status())
		for _, r := range BuildExportRows(log, view.Jobs, view.Trainees) {
			rows = append(rows, export.Row{
				Date:       r.Date,
				Weather:    r.Weather,
				Job:        r.Job,
				Instructor: r.Instructor,
				Trainee:    r.Trainee,
				Score:      r.Score,
				Note:       r.Note,
				Summary:    r.Summary,
				Status:     status,
			})
		}
	}
	return export.WriteXLSX(w, rows)
}
