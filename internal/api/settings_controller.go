package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// SettingsController 机构设置控制器
type SettingsController struct {
	settingsService service.SettingsService
}

// NewSettingsController 创建机构设置控制器
func NewSettingsController(settingsService service.SettingsService) *SettingsController {
	return &SettingsController{
		settingsService: settingsService,
	}
}

// Get 读取设置
// @Router /settings [get]
func (c *SettingsController) Get(ctx *gin.Context) {
	Success(ctx, c.settingsService.Get())
}

// Update 更新设置
// @Router /settings [put]
func (c *SettingsController) Update(ctx *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	settings, err := c.settingsService.Update(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "update settings")
		return
	}
	Success(ctx, settings)
}
