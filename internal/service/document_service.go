package service

import (
	"context"

	"github.com/jswork01-cmyk/trainning1/internal/document"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
)

// DocumentService 训练日志文档服务
type DocumentService interface {
	// Render 生成可打印 HTML
	Render(ctx context.Context, logID string) (string, error)
	// SaveToDrive 将文档保存为云盘 PDF
	SaveToDrive(ctx context.Context, logID string) (*DriveDocument, error)
}

// DriveDocument 云盘文档
type DriveDocument struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type documentService struct {
	views     ViewService
	employees repository.EmployeeRepository
	settings  SettingsService
	script    sheet.Script
	audit     AuditLogService
}

// NewDocumentService 创建文档服务
func NewDocumentService(views ViewService, employees repository.EmployeeRepository, settings SettingsService, script sheet.Script, audit AuditLogService) DocumentService {
	return &documentService{views: views, employees: employees, settings: settings, script: script, audit: audit}
}

func (s *documentService) build(ctx context.Context, logID string) (*document.Data, string, error) {
	log, view, err := s.views.FindLog(ctx, logID)
	if err != nil {
		return nil, "", err
	}
	employees, err := loadEmployees(s.employees)
	if err != nil {
		return nil, "", err
	}
	data := document.Build(document.Input{
		Facility:  s.settings.Get().FacilityName,
		Log:       *log,
		Jobs:      view.Jobs,
		Trainees:  view.Trainees,
		Employees: employees,
	})
	return &data, document.Filename(*log), nil
}

// Render 生成可打印 HTML
func (s *documentService) Render(ctx context.Context, logID string) (string, error) {
	data, _, err := s.build(ctx, logID)
	if err != nil {
		return "", err
	}
	return document.RenderString(*data)
}

// SaveToDrive 将文档保存为云盘 PDF
func (s *documentService) SaveToDrive(ctx context.Context, logID string) (*DriveDocument, error) {
	data, filename, err := s.build(ctx, logID)
	if err != nil {
		return nil, err
	}
	html, err := document.RenderString(*data)
	if err != nil {
		return nil, err
	}

	url, err := s.script.SavePDF(ctx, s.settings.Get().DriveFolderID, html, filename)
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.audit, "save_pdf", ResourceLog, logID, map[string]string{"filename": filename})
	return &DriveDocument{Filename: filename, URL: url}, nil
}
