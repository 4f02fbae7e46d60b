package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// LogController 训练日志控制器
type LogController struct {
	logService      service.LogService
	documentService service.DocumentService
}

// NewLogController 创建训练日志控制器
func NewLogController(logService service.LogService, documentService service.DocumentService) *LogController {
	return &LogController{
		logService:      logService,
		documentService: documentService,
	}
}

// List 查询训练日志
// @Router /logs [get]
func (c *LogController) List(ctx *gin.Context) {
	filter := service.LogListFilter{
		Date:   ctx.Query("date"),
		Term:   ctx.Query("term"),
		Status: ctx.Query("status"),
	}

	logs, err := c.logService.List(ctx.Request.Context(), filter)
	if err != nil {
		HandleError(ctx, err, "list logs")
		return
	}

	Success(ctx, logs)
}

// Create 创建训练日志
// @Router /logs [post]
func (c *LogController) Create(ctx *gin.Context) {
	var req service.CreateLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.logService.Create(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "create log")
		return
	}

	Created(ctx, result)
}

// Get 获取训练日志
// @Router /logs/{id} [get]
func (c *LogController) Get(ctx *gin.Context) {
	log, err := c.logService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err, "get log")
		return
	}

	Success(ctx, log)
}

// SyncStatus 查询日志的远程同步记录
// @Router /logs/{id}/sync [get]
func (c *LogController) SyncStatus(ctx *gin.Context) {
	entries, err := c.logService.SyncStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err, "get sync status")
		return
	}

	Success(ctx, entries)
}

// Document 渲染可打印的训练日志
// @Router /logs/{id}/document [get]
func (c *LogController) Document(ctx *gin.Context) {
	html, err := c.documentService.Render(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err, "render document")
		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// SaveDocument 将训练日志文档保存到云端文件夹
// @Router /logs/{id}/document/drive [post]
func (c *LogController) SaveDocument(ctx *gin.Context) {
	doc, err := c.documentService.SaveToDrive(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err, "save document")
		return
	}

	Success(ctx, doc)
}
