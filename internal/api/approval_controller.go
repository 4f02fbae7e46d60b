package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// ApprovalController 审批控制器
type ApprovalController struct {
	approvalService service.ApprovalService
}

// NewApprovalController 创建审批控制器
func NewApprovalController(approvalService service.ApprovalService) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
	}
}

// Queue 当前操作者的审批队列
// @Router /approvals/queue [get]
func (c *ApprovalController) Queue(ctx *gin.Context) {
	queues, err := c.approvalService.Queue(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get approval queue")
		return
	}

	Success(ctx, queues)
}

// Approve 批准当前步骤
// @Router /approvals/{id}/approve [post]
func (c *ApprovalController) Approve(ctx *gin.Context) {
	var req service.ApproveRequest
	// 意见可选，允许空请求体
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	log, err := c.approvalService.Approve(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err, "approve log")
		return
	}

	Success(ctx, log)
}

// Reject 驳回当前步骤
// @Router /approvals/{id}/reject [post]
func (c *ApprovalController) Reject(ctx *gin.Context) {
	var req service.RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	log, err := c.approvalService.Reject(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err, "reject log")
		return
	}

	Success(ctx, log)
}

// BulkApprove 批量批准
// @Router /approvals/batch/approve [post]
func (c *ApprovalController) BulkApprove(ctx *gin.Context) {
	var req service.BulkApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.approvalService.BulkApprove(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "bulk approve")
		return
	}

	Success(ctx, result)
}
