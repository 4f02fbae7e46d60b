package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportController 报表控制器，负责总评生成、导出与审计查询
type ReportController struct {
	reportService service.ReportService
	exportService service.ExportService
	auditService  service.AuditLogService
}

// NewReportController 创建报表控制器
func NewReportController(reportService service.ReportService, exportService service.ExportService, auditService service.AuditLogService) *ReportController {
	return &ReportController{
		reportService: reportService,
		exportService: exportService,
		auditService:  auditService,
	}
}

// Summary 生成训练总评
// @Router /reports/summary [post]
func (c *ReportController) Summary(ctx *gin.Context) {
	var req service.SummaryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.reportService.Summarize(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "generate summary")
		return
	}
	Success(ctx, result)
}

// ExportLogs 导出训练日志为 xlsx
// @Router /export/logs.xlsx [get]
func (c *ReportController) ExportLogs(ctx *gin.Context) {
	filter := service.LogListFilter{
		Date:   ctx.Query("date"),
		Term:   ctx.Query("term"),
		Status: ctx.Query("status"),
	}

	// 先写入缓冲区，失败时仍可返回 JSON 错误
	var buf bytes.Buffer
	if err := c.exportService.WriteLogs(ctx.Request.Context(), &buf, filter); err != nil {
		HandleError(ctx, err, "export logs")
		return
	}

	filename := fmt.Sprintf("training-logs-%s.xlsx", time.Now().Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Audit 最近的审计记录，指定资源时按资源过滤
// @Router /audit [get]
func (c *ReportController) Audit(ctx *gin.Context) {
	resourceType := ctx.Query("resourceType")
	resourceID := ctx.Query("resourceId")
	if resourceType != "" && resourceID != "" {
		entries, err := c.auditService.ListByResource(resourceType, resourceID)
		if err != nil {
			HandleError(ctx, err, "list audit logs")
			return
		}
		Success(ctx, entries)
		return
	}

	limit := 100
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(ctx, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = n
	}
	entries, err := c.auditService.ListRecent(limit)
	if err != nil {
		HandleError(ctx, err, "list audit logs")
		return
	}
	Success(ctx, entries)
}
