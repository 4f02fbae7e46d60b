package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// StatisticsController 统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// Daily 按日期统计
// @Router /stats/daily [get]
func (c *StatisticsController) Daily(ctx *gin.Context) {
	stats, err := c.statisticsService.Daily(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get daily statistics")
		return
	}
	Success(ctx, stats)
}

// ByJob 按职务统计
// @Router /stats/jobs [get]
func (c *StatisticsController) ByJob(ctx *gin.Context) {
	stats, err := c.statisticsService.ByJob(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get job statistics")
		return
	}
	Success(ctx, stats)
}

// Trainee 学员成长统计
// @Router /stats/trainees/{id} [get]
func (c *StatisticsController) Trainee(ctx *gin.Context) {
	stats, err := c.statisticsService.Trainee(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err, "get trainee statistics")
		return
	}
	Success(ctx, stats)
}

// Approvals 审批统计
// @Router /stats/approvals [get]
func (c *StatisticsController) Approvals(ctx *gin.Context) {
	stats, err := c.statisticsService.Approvals(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "get approval statistics")
		return
	}
	Success(ctx, stats)
}
